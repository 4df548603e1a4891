package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/input"

	"github.com/spf13/cobra"
)

// ResetOptions wipes the vault and all persisted state.
type ResetOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	force bool
}

var _ genericclioptions.CmdOptions = &ResetOptions{}

func NewResetOptions(defaults *DefaultPassnoteOptions) *ResetOptions {
	return &ResetOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*ResetOptions) Complete() error { return nil }

func (*ResetOptions) Validate() error { return nil }

func (o *ResetOptions) Run(ctx context.Context, _ ...string) error {
	if !o.force {
		answer, err := input.PromptRead(o.ErrOut, o.In, "This permanently deletes the vault %q. Type 'yes' to continue: ", o.appOptions.DBPath)
		if err != nil {
			return fmt.Errorf("prompt confirmation: %w", err)
		}

		if answer != "yes" {
			return errors.New("reset aborted")
		}
	}

	if err := o.appOptions.App().Reset(ctx); err != nil {
		return err
	}

	o.Infof("passnote: vault wiped\n")

	return nil
}

// NewCmdReset creates the reset cobra command.
func NewCmdReset(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewResetOptions(defaults)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the vault and all persisted state",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().BoolVar(&o.force, "force", false, "skip the confirmation prompt")

	return cmd
}
