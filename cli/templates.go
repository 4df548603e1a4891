package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/vaultdata"

	"github.com/spf13/cobra"
)

// parseTemplateFieldArgs parses repeated name:type[:optional] specs.
func parseTemplateFieldArgs(args []string) ([]vaultdata.TemplateField, error) {
	fields := make([]vaultdata.TemplateField, 0, len(args))

	for _, arg := range args {
		parts := strings.Split(arg, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid field spec %q, expected name:type[:optional]", arg)
		}

		field := vaultdata.TemplateField{
			Name: parts[0],
			Type: vaultdata.FieldType(parts[1]),
		}

		if !field.Type.Valid() {
			return nil, fmt.Errorf("invalid field type %q in %q", parts[1], arg)
		}

		if len(parts) == 3 {
			if parts[2] != "optional" {
				return nil, fmt.Errorf("invalid field modifier %q in %q", parts[2], arg)
			}

			field.Optional = true
		}

		fields = append(fields, field)
	}

	return fields, nil
}

// TemplateOptions implements the template sub-commands.
type TemplateOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	name      string
	fieldArgs []string
}

var _ genericclioptions.CmdOptions = &TemplateOptions{}

func NewTemplateOptions(defaults *DefaultPassnoteOptions) *TemplateOptions {
	return &TemplateOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*TemplateOptions) Complete() error { return nil }

func (*TemplateOptions) Validate() error { return nil }

func (o *TemplateOptions) Run(ctx context.Context, _ ...string) error {
	infos, err := o.appOptions.App().GetTemplateList(ctx)
	if err != nil {
		return err
	}

	for _, info := range infos {
		names := make([]string, 0, len(info.Fields))
		for _, f := range info.Fields {
			names = append(names, f.Name)
		}

		o.Printf("%s\t%s\t[%s]\n", info.ID, info.Name, strings.Join(names, ", "))
	}

	return nil
}

func (o *TemplateOptions) runCreate(ctx context.Context) error {
	if len(o.name) == 0 {
		return errors.New("--name is required")
	}

	fields, err := parseTemplateFieldArgs(o.fieldArgs)
	if err != nil {
		return err
	}

	id, err := o.appOptions.App().CreateTemplate(ctx, o.name, fields)
	if err != nil {
		return err
	}

	o.Infof("%s\n", id)

	return nil
}

func (o *TemplateOptions) runShow(ctx context.Context, id string) error {
	info, err := o.appOptions.App().GetTemplate(ctx, id)
	if err != nil {
		return err
	}

	o.Printf("%s\n", info.Name)

	for _, f := range info.Fields {
		optional := ""
		if f.Optional {
			optional = " (optional)"
		}

		o.Printf("  %s\t%s%s\n", f.Name, f.Type, optional)
	}

	return nil
}

// NewCmdTemplate creates the template cobra command with its
// sub-commands.
func NewCmdTemplate(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewTemplateOptions(defaults)

	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Manage record templates",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a new template",
		Long: `Create a new record template.

Fields are given as name:type[:optional], e.g.:
    passnote template create --name Login --field username:text --field password:password`,
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(o.runCreate(cmd.Context()))
		},
	}

	create.Flags().StringVar(&o.name, "name", "", "template name")
	create.Flags().StringArrayVar(&o.fieldArgs, "field", nil, "field spec as name:type[:optional] (repeatable)")

	show := &cobra.Command{
		Use:   "show <template-id>",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(o.runShow(cmd.Context(), args[0]))
		},
	}

	remove := &cobra.Command{
		Use:     "remove <template-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a template not referenced by any live record",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(o.appOptions.App().DeleteTemplate(cmd.Context(), args[0]))
		},
	}

	cmd.AddCommand(create, show, remove)

	return cmd
}

// LabelOptions implements the label sub-commands.
type LabelOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions
}

var _ genericclioptions.CmdOptions = &LabelOptions{}

func NewLabelOptions(defaults *DefaultPassnoteOptions) *LabelOptions {
	return &LabelOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*LabelOptions) Complete() error { return nil }

func (*LabelOptions) Validate() error { return nil }

func (o *LabelOptions) Run(ctx context.Context, _ ...string) error {
	infos, err := o.appOptions.App().GetLabelList(ctx)
	if err != nil {
		return err
	}

	for _, info := range infos {
		o.Printf("%s\t%s\n", info.ID, info.Name)
	}

	return nil
}

// NewCmdLabel creates the label cobra command with its sub-commands.
func NewCmdLabel(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewLabelOptions(defaults)

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage record labels",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new label",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := o.appOptions.App().CreateLabel(cmd.Context(), args[0])
			if clierror.Check(err) == nil {
				o.Infof("%s\n", id)
			}
		},
	}

	rename := &cobra.Command{
		Use:   "rename <label-id> <name>",
		Short: "Rename a label",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(o.appOptions.App().UpdateLabel(cmd.Context(), args[0], args[1]))
		},
	}

	remove := &cobra.Command{
		Use:     "remove <label-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a label and unlink it from all records",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(o.appOptions.App().DeleteLabel(cmd.Context(), args[0]))
		},
	}

	cmd.AddCommand(create, rename, remove)

	return cmd
}
