package vault

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/google/uuid"
)

// CreateRecord encrypts and inserts a new record built from the given
// template. Field values are supplied by display name and mapped to their
// template field ids; names unknown to the template are dropped. Label
// ids not present in the vault are ignored.
func (m *Manager) CreateRecord(ctx context.Context, templateID, title string, fields map[string]string, labelIDs []string) (string, error) {
	if err := m.requireUnlocked(); err != nil {
		return "", err
	}

	tpl, err := m.decryptTemplate(templateID)
	if err != nil {
		return "", err
	}

	encTitle, err := m.Encrypt([]byte(title))
	if err != nil {
		return "", errf("create record: title: %w", err)
	}

	encFields, err := m.encryptFields(tpl, fields)
	if err != nil {
		return "", errf("create record: %w", err)
	}

	record := &vaultdata.Record{
		Template:     templateID,
		Labels:       m.knownLabels(labelIDs),
		Title:        &encTitle,
		Fields:       encFields,
		LastModified: vaultdata.Now(),
	}

	id := uuid.NewString()
	m.vault.Records[id] = record

	if err := m.SaveVault(ctx); err != nil {
		return "", err
	}

	return id, nil
}

// GetRecord decrypts the record with the given id. Missing or tombstoned
// records yield nil without error.
func (m *Manager) GetRecord(_ context.Context, id string) (*vaultdata.DecryptedRecord, error) {
	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	r, ok := m.vault.Records[id]
	if !ok || r == nil || r.Deleted {
		return nil, nil
	}

	return m.decryptRecord(id, r)
}

// UpdateRecordParams selects which parts of a record to mutate. Only the
// supplied fields change.
type UpdateRecordParams struct {
	Title     *string
	Fields    map[string]string
	Labels    *[]string
	LocalOnly *bool
}

// UpdateRecord mutates the supplied parts of a live record and bumps its
// last-modified timestamp.
func (m *Manager) UpdateRecord(ctx context.Context, id string, params UpdateRecordParams) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	r, ok := m.vault.Records[id]
	if !ok || r == nil || r.Deleted {
		return vaulterrors.ErrRecordNotFound
	}

	if params.Title != nil {
		encTitle, err := m.Encrypt([]byte(*params.Title))
		if err != nil {
			return errf("update record: title: %w", err)
		}

		r.Title = &encTitle
	}

	if len(params.Fields) > 0 {
		tpl, err := m.decryptTemplate(r.Template)
		if err != nil {
			return errf("update record: %w", err)
		}

		updated, err := m.encryptFields(tpl, params.Fields)
		if err != nil {
			return errf("update record: %w", err)
		}

		if r.Fields == nil {
			r.Fields = map[string]vaultcrypto.EncryptedData{}
		}

		for fid, ed := range updated {
			r.Fields[fid] = ed
		}
	}

	if params.Labels != nil {
		r.Labels = m.knownLabels(*params.Labels)
	}

	if params.LocalOnly != nil {
		r.LocalOnly = *params.LocalOnly
	}

	r.LastModified = vaultdata.Now()

	return m.SaveVault(ctx)
}

// DeleteRecord tombstones the record so the deletion replicates through
// sync. The ciphertexts are discarded.
func (m *Manager) DeleteRecord(ctx context.Context, id string) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	r, ok := m.vault.Records[id]
	if !ok || r == nil || r.Deleted {
		return vaulterrors.ErrRecordNotFound
	}

	r.Tombstone(vaultdata.Now())

	return m.SaveVault(ctx)
}

// RecordList returns decrypted title entries for all live records sorted
// by title. Records that fail to decrypt are skipped and counted.
func (m *Manager) RecordList(_ context.Context) ([]vaultdata.RecordListEntry, error) {
	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	entries := make([]vaultdata.RecordListEntry, 0, len(m.vault.Records))
	skipped := 0

	for id, r := range m.vault.Records {
		if r == nil || r.Deleted || r.Title == nil {
			continue
		}

		title, err := m.Decrypt(*r.Title)
		if err != nil {
			skipped++
			continue
		}

		entries = append(entries, vaultdata.RecordListEntry{
			ID:           id,
			Title:        string(title),
			Template:     r.Template,
			Labels:       append([]string(nil), r.Labels...),
			LastModified: r.LastModified,
		})
	}

	if skipped > 0 {
		m.logger.Warn("record list: skipped unreadable records", "count", skipped)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })

	return entries, nil
}

// decryptRecord decrypts title and fields, cross-referencing the template
// to recover field names and types. Field ids the template no longer
// knows are skipped.
func (m *Manager) decryptRecord(id string, r *vaultdata.Record) (*vaultdata.DecryptedRecord, error) {
	dr := &vaultdata.DecryptedRecord{
		ID:           id,
		Template:     r.Template,
		Labels:       append([]string(nil), r.Labels...),
		Fields:       []vaultdata.RecordField{},
		LastModified: r.LastModified,
		Deleted:      r.Deleted,
		LocalOnly:    r.LocalOnly,
	}

	if r.Title != nil {
		title, err := m.Decrypt(*r.Title)
		if err != nil {
			return nil, errf("record %s: title: %w", id, err)
		}

		dr.Title = string(title)
	}

	tpl, err := m.decryptTemplate(r.Template)
	if err != nil {
		return nil, errf("record %s: %w", id, err)
	}

	for fid, ed := range r.Fields {
		tf, ok := tpl.FieldByID(fid)
		if !ok {
			continue
		}

		value, err := m.Decrypt(ed)
		if err != nil {
			return nil, errf("record %s: field %s: %w", id, fid, err)
		}

		dr.Fields = append(dr.Fields, vaultdata.RecordField{
			ID:    fid,
			Name:  tf.Name,
			Type:  tf.Type,
			Value: string(value),
		})
	}

	sort.Slice(dr.Fields, func(i, j int) bool {
		return tpl.FieldIndex(dr.Fields[i].ID) < tpl.FieldIndex(dr.Fields[j].ID)
	})

	return dr, nil
}

// encryptFields maps display names to template field ids and encrypts
// each value. Unknown names are dropped.
func (m *Manager) encryptFields(tpl vaultdata.Template, fields map[string]string) (map[string]vaultcrypto.EncryptedData, error) {
	encrypted := map[string]vaultcrypto.EncryptedData{}

	for name, value := range fields {
		tf, ok := tpl.FieldByName(name)
		if !ok {
			continue
		}

		ed, err := m.Encrypt([]byte(value))
		if err != nil {
			return nil, errf("field %s: %w", tf.ID, err)
		}

		encrypted[tf.ID] = ed
	}

	return encrypted, nil
}

// knownLabels filters the given label ids down to those present in the
// vault, preserving order.
func (m *Manager) knownLabels(labelIDs []string) []string {
	known := make([]string, 0, len(labelIDs))

	for _, id := range labelIDs {
		if _, ok := m.vault.Labels[id]; ok {
			known = append(known, id)
		}
	}

	return known
}

func (m *Manager) decryptTemplate(id string) (vaultdata.Template, error) {
	ed, ok := m.vault.Templates[id]
	if !ok {
		return vaultdata.Template{}, vaulterrors.ErrTemplateNotFound
	}

	raw, err := m.Decrypt(ed)
	if err != nil {
		return vaultdata.Template{}, errf("template %s: %w", id, err)
	}

	var tpl vaultdata.Template
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return vaultdata.Template{}, errf("template %s: decode: %w", id, err)
	}

	return tpl, nil
}
