package passnote

import (
	"context"

	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/vault"
	"github.com/passnote/passnote/vaultdata"
)

// CreateRecord inserts a new encrypted record and returns its id.
func (a *App) CreateRecord(ctx context.Context, templateID, title string, fields map[string]string, labelIDs []string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return "", err
	}

	return a.manager.CreateRecord(ctx, templateID, title, fields, labelIDs)
}

// GetRecord returns the decrypted record, or nil when it is missing or
// tombstoned.
func (a *App) GetRecord(ctx context.Context, id string) (*vaultdata.DecryptedRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	return a.manager.GetRecord(ctx, id)
}

// UpdateRecord mutates the supplied parts of a record.
func (a *App) UpdateRecord(ctx context.Context, id string, params vault.UpdateRecordParams) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.UpdateRecord(ctx, id, params)
}

// DeleteRecord tombstones a record so the deletion syncs.
func (a *App) DeleteRecord(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.DeleteRecord(ctx, id)
}

// GetRecordList returns decrypted titles of all live records.
func (a *App) GetRecordList(ctx context.Context) ([]vaultdata.RecordListEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	return a.manager.RecordList(ctx)
}

// ExportVault decrypts every live record.
func (a *App) ExportVault(ctx context.Context) ([]vaultdata.DecryptedRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	return a.manager.ExportRecords(ctx)
}

// CreateTemplate inserts a new encrypted template and returns its id.
func (a *App) CreateTemplate(ctx context.Context, name string, fields []vaultdata.TemplateField) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return "", err
	}

	return a.manager.CreateTemplate(ctx, name, fields)
}

// GetTemplate returns the decrypted template with the given id.
func (a *App) GetTemplate(ctx context.Context, id string) (*vault.TemplateInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	return a.manager.GetTemplate(ctx, id)
}

// UpdateTemplate replaces the template payload under the same id.
func (a *App) UpdateTemplate(ctx context.Context, id string, tpl vaultdata.Template) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.UpdateTemplate(ctx, id, tpl)
}

// DeleteTemplate removes a template no live record references.
func (a *App) DeleteTemplate(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.DeleteTemplate(ctx, id)
}

// GetTemplateList returns all decrypted templates.
func (a *App) GetTemplateList(ctx context.Context) ([]vault.TemplateInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	return a.manager.TemplateList(ctx)
}

// CreateLabel inserts a new encrypted label and returns its id.
func (a *App) CreateLabel(ctx context.Context, name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return "", err
	}

	return a.manager.CreateLabel(ctx, name)
}

// GetLabel returns the decrypted label with the given id.
func (a *App) GetLabel(ctx context.Context, id string) (*vault.LabelInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	return a.manager.GetLabel(ctx, id)
}

// UpdateLabel renames a label.
func (a *App) UpdateLabel(ctx context.Context, id, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.UpdateLabel(ctx, id, name)
}

// DeleteLabel removes a label and scrubs it from all records.
func (a *App) DeleteLabel(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.DeleteLabel(ctx, id)
}

// GetLabelList returns all decrypted labels.
func (a *App) GetLabelList(ctx context.Context) ([]vault.LabelInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return nil, err
	}

	return a.manager.LabelList(ctx)
}

// ConfigureWebDAV stores the WebDAV settings encrypted under the master
// key.
func (a *App) ConfigureWebDAV(ctx context.Context, cfg remote.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.SetWebDAVConfig(ctx, cfg)
}

// GetWebDAVConfig returns the decrypted WebDAV settings.
func (a *App) GetWebDAVConfig(ctx context.Context) (remote.Config, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return remote.Config{}, err
	}

	return a.manager.WebDAVConfig(ctx)
}

// ClearWebDAVConfig replaces the stored settings with the empty form.
func (a *App) ClearWebDAVConfig(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInitialized(); err != nil {
		return err
	}

	return a.manager.ClearWebDAVConfig(ctx)
}
