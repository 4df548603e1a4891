package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/clipboard"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/vault"
	"github.com/passnote/passnote/vaultdata"

	"github.com/spf13/cobra"
)

var errRecordIDRequired = errors.New("record id required")

// parseFieldArgs parses repeated name=value flags.
func parseFieldArgs(args []string) (map[string]string, error) {
	fields := map[string]string{}

	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || len(name) == 0 {
			return nil, fmt.Errorf("invalid field %q, expected name=value", arg)
		}

		fields[name] = value
	}

	return fields, nil
}

// ListOptions lists the live records of the vault.
type ListOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions
}

var _ genericclioptions.CmdOptions = &ListOptions{}

func NewListOptions(defaults *DefaultPassnoteOptions) *ListOptions {
	return &ListOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*ListOptions) Complete() error { return nil }

func (*ListOptions) Validate() error { return nil }

func (o *ListOptions) Run(ctx context.Context, _ ...string) error {
	entries, err := o.appOptions.App().GetRecordList(ctx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		o.Printf("%s\t%s\n", e.ID, e.Title)
	}

	return nil
}

// NewCmdList creates the list cobra command.
func NewCmdList(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewListOptions(defaults)

	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all records",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}
}

// ShowOptions prints a single decrypted record.
type ShowOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	copyField string
}

var _ genericclioptions.CmdOptions = &ShowOptions{}

func NewShowOptions(defaults *DefaultPassnoteOptions) *ShowOptions {
	return &ShowOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*ShowOptions) Complete() error { return nil }

func (*ShowOptions) Validate() error { return nil }

func (o *ShowOptions) Run(ctx context.Context, args ...string) error {
	if len(args) != 1 {
		return errRecordIDRequired
	}

	record, err := o.appOptions.App().GetRecord(ctx, args[0])
	if err != nil {
		return err
	}

	if record == nil {
		return fmt.Errorf("record %q not found", args[0])
	}

	if len(o.copyField) > 0 {
		for _, f := range record.Fields {
			if f.Name == o.copyField {
				o.Debugf("copying field %q to clipboard\n", f.Name)
				return clipboard.Copy(f.Value)
			}
		}

		return fmt.Errorf("record has no field %q", o.copyField)
	}

	o.Printf("%s\n", record.Title)

	for _, f := range record.Fields {
		o.Printf("  %s: %s\n", f.Name, f.Value)
	}

	return nil
}

// NewCmdShow creates the show cobra command.
func NewCmdShow(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewShowOptions(defaults)

	cmd := &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show a decrypted record",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	cmd.Flags().StringVarP(&o.copyField, "copy", "c", "", "copy the named field to the clipboard instead of printing")

	return cmd
}

// CreateOptions inserts a new record.
type CreateOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	templateID string
	title      string
	fieldArgs  []string
	labelIDs   []string
	localOnly  bool
}

var _ genericclioptions.CmdOptions = &CreateOptions{}

func NewCreateOptions(defaults *DefaultPassnoteOptions) *CreateOptions {
	return &CreateOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*CreateOptions) Complete() error { return nil }

func (o *CreateOptions) Validate() error {
	if len(o.templateID) == 0 {
		return errors.New("--template is required")
	}

	if len(o.title) == 0 {
		return errors.New("--title is required")
	}

	return nil
}

func (o *CreateOptions) Run(ctx context.Context, _ ...string) error {
	fields, err := parseFieldArgs(o.fieldArgs)
	if err != nil {
		return err
	}

	app := o.appOptions.App()

	id, err := app.CreateRecord(ctx, o.templateID, o.title, fields, o.labelIDs)
	if err != nil {
		return err
	}

	if o.localOnly {
		localOnly := true
		if err := app.UpdateRecord(ctx, id, vault.UpdateRecordParams{LocalOnly: &localOnly}); err != nil {
			return err
		}
	}

	o.Infof("%s\n", id)

	return nil
}

// NewCmdCreate creates the create cobra command.
func NewCmdCreate(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewCreateOptions(defaults)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new record",
		Long: `Create a new record from a template.

Field values are given by template field name, e.g.:
    passnote create --template <id> --title Example --field username=alice --field password=pw`,
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVarP(&o.templateID, "template", "t", "", "template id")
	cmd.Flags().StringVar(&o.title, "title", "", "record title")
	cmd.Flags().StringArrayVar(&o.fieldArgs, "field", nil, "field value as name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&o.labelIDs, "label", "l", nil, "label id (repeatable)")
	cmd.Flags().BoolVar(&o.localOnly, "local", false, "keep the record out of remote sync")

	return cmd
}

// UpdateOptions mutates an existing record.
type UpdateOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	title     string
	fieldArgs []string
	labelIDs  []string
	localOnly bool
	shared    bool
}

var _ genericclioptions.CmdOptions = &UpdateOptions{}

func NewUpdateOptions(defaults *DefaultPassnoteOptions) *UpdateOptions {
	return &UpdateOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*UpdateOptions) Complete() error { return nil }

func (o *UpdateOptions) Validate() error {
	if o.localOnly && o.shared {
		return errors.New("--local and --shared are mutually exclusive")
	}

	return nil
}

func (o *UpdateOptions) Run(ctx context.Context, args ...string) error {
	if len(args) != 1 {
		return errRecordIDRequired
	}

	params := vault.UpdateRecordParams{}

	if len(o.title) > 0 {
		params.Title = &o.title
	}

	if len(o.fieldArgs) > 0 {
		fields, err := parseFieldArgs(o.fieldArgs)
		if err != nil {
			return err
		}

		params.Fields = fields
	}

	if o.labelIDs != nil {
		params.Labels = &o.labelIDs
	}

	if o.localOnly || o.shared {
		localOnly := o.localOnly
		params.LocalOnly = &localOnly
	}

	return o.appOptions.App().UpdateRecord(ctx, args[0], params)
}

// NewCmdUpdate creates the update cobra command.
func NewCmdUpdate(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewUpdateOptions(defaults)

	cmd := &cobra.Command{
		Use:   "update <record-id>",
		Short: "Update an existing record",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	cmd.Flags().StringVar(&o.title, "title", "", "new record title")
	cmd.Flags().StringArrayVar(&o.fieldArgs, "field", nil, "field value as name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&o.labelIDs, "label", "l", nil, "replace the record's labels (repeatable)")
	cmd.Flags().BoolVar(&o.localOnly, "local", false, "keep the record out of remote sync")
	cmd.Flags().BoolVar(&o.shared, "shared", false, "include the record in remote sync again")

	return cmd
}

// RemoveOptions tombstones a record.
type RemoveOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions
}

var _ genericclioptions.CmdOptions = &RemoveOptions{}

func NewRemoveOptions(defaults *DefaultPassnoteOptions) *RemoveOptions {
	return &RemoveOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*RemoveOptions) Complete() error { return nil }

func (*RemoveOptions) Validate() error { return nil }

func (o *RemoveOptions) Run(ctx context.Context, args ...string) error {
	if len(args) != 1 {
		return errRecordIDRequired
	}

	return o.appOptions.App().DeleteRecord(ctx, args[0])
}

// NewCmdRemove creates the remove cobra command.
func NewCmdRemove(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewRemoveOptions(defaults)

	return &cobra.Command{
		Use:     "remove <record-id>",
		Aliases: []string{"rm", "delete"},
		Short:   "Delete a record",
		Long:    "Delete a record. The deletion is kept as a tombstone so it propagates through sync.",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}
}

// ExportOptions dumps all live records as JSON.
type ExportOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions
}

var _ genericclioptions.CmdOptions = &ExportOptions{}

func NewExportOptions(defaults *DefaultPassnoteOptions) *ExportOptions {
	return &ExportOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*ExportOptions) Complete() error { return nil }

func (*ExportOptions) Validate() error { return nil }

func (o *ExportOptions) Run(ctx context.Context, _ ...string) error {
	records, err := o.appOptions.App().ExportVault(ctx)
	if err != nil {
		return err
	}

	if records == nil {
		records = []vaultdata.DecryptedRecord{}
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	o.Printf("%s\n", raw)

	return nil
}

// NewCmdExport creates the export cobra command.
func NewCmdExport(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewExportOptions(defaults)

	return &cobra.Command{
		Use:   "export",
		Short: "Export all records as decrypted JSON",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}
}
