package vault

import (
	"context"
	"sort"

	"github.com/passnote/passnote/vaultdata"
)

// ExportRecords decrypts every live record for export. Unlike
// [Manager.RecordList], a record that fails to decrypt fails the export.
func (m *Manager) ExportRecords(_ context.Context) ([]vaultdata.DecryptedRecord, error) {
	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	records := make([]vaultdata.DecryptedRecord, 0, len(m.vault.Records))

	for id, r := range m.vault.Records {
		if r == nil || r.Deleted {
			continue
		}

		dr, err := m.decryptRecord(id, r)
		if err != nil {
			return nil, errf("export: %w", err)
		}

		records = append(records, *dr)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Title < records[j].Title })

	return records, nil
}
