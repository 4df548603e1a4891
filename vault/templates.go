package vault

import (
	"context"
	"encoding/json"
	"slices"
	"sort"

	"github.com/passnote/passnote/vaultdata"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/google/uuid"
)

// TemplateInfo pairs a decrypted template payload with its vault id.
type TemplateInfo struct {
	ID string `json:"id"`
	vaultdata.Template
}

// LabelInfo pairs a decrypted label name with its vault id.
type LabelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateTemplate encrypts a new template as a single blob and inserts it.
// Fields without an id are assigned a fresh UUID; field types must belong
// to the closed enumeration.
func (m *Manager) CreateTemplate(ctx context.Context, name string, fields []vaultdata.TemplateField) (string, error) {
	if err := m.requireUnlocked(); err != nil {
		return "", err
	}

	for i := range fields {
		if !fields[i].Type.Valid() {
			return "", errf("create template: field %q: unknown type %q", fields[i].Name, fields[i].Type)
		}

		if len(fields[i].ID) == 0 {
			fields[i].ID = uuid.NewString()
		}
	}

	id := uuid.NewString()

	if err := m.putTemplate(ctx, id, vaultdata.Template{Name: name, Fields: fields}); err != nil {
		return "", err
	}

	return id, nil
}

// GetTemplate returns the decrypted template with the given id.
func (m *Manager) GetTemplate(_ context.Context, id string) (*TemplateInfo, error) {
	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	tpl, err := m.decryptTemplate(id)
	if err != nil {
		return nil, err
	}

	return &TemplateInfo{ID: id, Template: tpl}, nil
}

// UpdateTemplate replaces the template payload under the same id.
func (m *Manager) UpdateTemplate(ctx context.Context, id string, tpl vaultdata.Template) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	if _, ok := m.vault.Templates[id]; !ok {
		return vaulterrors.ErrTemplateNotFound
	}

	for i := range tpl.Fields {
		if !tpl.Fields[i].Type.Valid() {
			return errf("update template: field %q: unknown type %q", tpl.Fields[i].Name, tpl.Fields[i].Type)
		}

		if len(tpl.Fields[i].ID) == 0 {
			tpl.Fields[i].ID = uuid.NewString()
		}
	}

	return m.putTemplate(ctx, id, tpl)
}

// DeleteTemplate removes a template that no live record references.
func (m *Manager) DeleteTemplate(ctx context.Context, id string) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	if _, ok := m.vault.Templates[id]; !ok {
		return vaulterrors.ErrTemplateNotFound
	}

	for _, r := range m.vault.Records {
		if r != nil && !r.Deleted && r.Template == id {
			return vaulterrors.ErrTemplateInUse
		}
	}

	delete(m.vault.Templates, id)

	return m.SaveVault(ctx)
}

// TemplateList returns all decrypted templates sorted by name.
func (m *Manager) TemplateList(_ context.Context) ([]TemplateInfo, error) {
	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	infos := make([]TemplateInfo, 0, len(m.vault.Templates))

	for id := range m.vault.Templates {
		tpl, err := m.decryptTemplate(id)
		if err != nil {
			return nil, err
		}

		infos = append(infos, TemplateInfo{ID: id, Template: tpl})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}

// CreateLabel encrypts a new label as a single blob and inserts it.
func (m *Manager) CreateLabel(ctx context.Context, name string) (string, error) {
	if err := m.requireUnlocked(); err != nil {
		return "", err
	}

	id := uuid.NewString()

	if err := m.putLabel(ctx, id, vaultdata.Label{Name: name}); err != nil {
		return "", err
	}

	return id, nil
}

// GetLabel returns the decrypted label with the given id.
func (m *Manager) GetLabel(_ context.Context, id string) (*LabelInfo, error) {
	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	label, err := m.decryptLabel(id)
	if err != nil {
		return nil, err
	}

	return &LabelInfo{ID: id, Name: label.Name}, nil
}

// UpdateLabel replaces the label payload under the same id.
func (m *Manager) UpdateLabel(ctx context.Context, id, name string) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	if _, ok := m.vault.Labels[id]; !ok {
		return vaulterrors.ErrLabelNotFound
	}

	return m.putLabel(ctx, id, vaultdata.Label{Name: name})
}

// DeleteLabel removes the label and scrubs its id from every record's
// label list. Unresolved references degrade gracefully at render time, so
// the scrub does not bump record timestamps.
func (m *Manager) DeleteLabel(ctx context.Context, id string) error {
	if err := m.requireUnlocked(); err != nil {
		return err
	}

	if _, ok := m.vault.Labels[id]; !ok {
		return vaulterrors.ErrLabelNotFound
	}

	delete(m.vault.Labels, id)

	for _, r := range m.vault.Records {
		if r == nil || len(r.Labels) == 0 {
			continue
		}

		r.Labels = slices.DeleteFunc(r.Labels, func(l string) bool { return l == id })
	}

	return m.SaveVault(ctx)
}

// LabelList returns all decrypted labels sorted by name.
func (m *Manager) LabelList(_ context.Context) ([]LabelInfo, error) {
	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	infos := make([]LabelInfo, 0, len(m.vault.Labels))

	for id := range m.vault.Labels {
		label, err := m.decryptLabel(id)
		if err != nil {
			return nil, err
		}

		infos = append(infos, LabelInfo{ID: id, Name: label.Name})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}

func (m *Manager) putTemplate(ctx context.Context, id string, tpl vaultdata.Template) error {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return errf("template %s: encode: %w", id, err)
	}

	ed, err := m.Encrypt(raw)
	if err != nil {
		return errf("template %s: %w", id, err)
	}

	m.vault.Templates[id] = ed

	return m.SaveVault(ctx)
}

func (m *Manager) putLabel(ctx context.Context, id string, label vaultdata.Label) error {
	raw, err := json.Marshal(label)
	if err != nil {
		return errf("label %s: encode: %w", id, err)
	}

	ed, err := m.Encrypt(raw)
	if err != nil {
		return errf("label %s: %w", id, err)
	}

	m.vault.Labels[id] = ed

	return m.SaveVault(ctx)
}

func (m *Manager) decryptLabel(id string) (vaultdata.Label, error) {
	ed, ok := m.vault.Labels[id]
	if !ok {
		return vaultdata.Label{}, vaulterrors.ErrLabelNotFound
	}

	raw, err := m.Decrypt(ed)
	if err != nil {
		return vaultdata.Label{}, errf("label %s: %w", id, err)
	}

	var label vaultdata.Label
	if err := json.Unmarshal(raw, &label); err != nil {
		return vaultdata.Label{}, errf("label %s: decode: %w", id, err)
	}

	return label, nil
}
