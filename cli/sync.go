package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/input"
	"github.com/passnote/passnote/remote"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/spf13/cobra"
)

// PushOptions pushes the local vault to the configured remote.
type PushOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions
}

var _ genericclioptions.CmdOptions = &PushOptions{}

func NewPushOptions(defaults *DefaultPassnoteOptions) *PushOptions {
	return &PushOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*PushOptions) Complete() error { return nil }

func (*PushOptions) Validate() error { return nil }

func (o *PushOptions) Run(ctx context.Context, _ ...string) error {
	app := o.appOptions.App()

	result := app.Push(ctx, "")

	if result.PasswordRequired {
		o.Errorf("The remote vault uses a different key configuration.\n")

		password, err := input.PromptPassword(o.ErrOut, int(o.In.Fd()))
		if err != nil {
			return fmt.Errorf("prompt password: %w", err)
		}

		result = app.Push(ctx, string(password))
	}

	if !result.Success {
		return errors.New(result.Error)
	}

	o.Infof("pushed %d records, resolved %d conflicts\n", result.RecordsPushed, result.ConflictsResolved)

	return nil
}

// NewCmdPush creates the push cobra command.
func NewCmdPush(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewPushOptions(defaults)

	return &cobra.Command{
		Use:   "push",
		Short: "Push the vault to the remote",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}
}

// PullOptions merges the remote vault into the local one.
type PullOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions
}

var _ genericclioptions.CmdOptions = &PullOptions{}

func NewPullOptions(defaults *DefaultPassnoteOptions) *PullOptions {
	return &PullOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*PullOptions) Complete() error { return nil }

func (*PullOptions) Validate() error { return nil }

func (o *PullOptions) Run(ctx context.Context, _ ...string) error {
	app := o.appOptions.App()

	result := app.Pull(ctx, "")

	if result.PasswordRequired {
		o.Errorf("The remote vault uses a different key configuration.\n")

		password, err := input.PromptPassword(o.ErrOut, int(o.In.Fd()))
		if err != nil {
			return fmt.Errorf("prompt password: %w", err)
		}

		result = app.Pull(ctx, string(password))
	}

	if !result.Success {
		return errors.New(result.Error)
	}

	if result.KDFUpdated {
		o.Errorf("Note: the remote uses a different KDF configuration; records were re-encrypted locally.\n")
	}

	if !result.VaultUpdated {
		o.Infof("already up to date\n")
		return nil
	}

	o.Infof("pulled %d records, resolved %d conflicts\n", result.RecordsPulled, result.ConflictsResolved)

	return nil
}

// NewCmdPull creates the pull cobra command.
func NewCmdPull(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewPullOptions(defaults)

	return &cobra.Command{
		Use:   "pull",
		Short: "Merge the remote vault into the local one",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}
}

// StatusOptions reports the sync state.
type StatusOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions
}

var _ genericclioptions.CmdOptions = &StatusOptions{}

func NewStatusOptions(defaults *DefaultPassnoteOptions) *StatusOptions {
	return &StatusOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*StatusOptions) Complete() error { return nil }

func (*StatusOptions) Validate() error { return nil }

func (o *StatusOptions) Run(ctx context.Context, _ ...string) error {
	status, err := o.appOptions.App().GetSyncStatus(ctx)
	if err != nil {
		return err
	}

	if !status.Configured {
		o.Infof("sync: not configured\n")
		return nil
	}

	o.Infof("sync: configured, remote path %q\n", status.RemotePath)
	o.Infof("sync versions: %d\n", status.SyncCount)

	if len(status.LastVersion) > 0 {
		o.Infof("last version: %s\n", status.LastVersion)
	}

	return nil
}

// NewCmdStatus creates the status cobra command.
func NewCmdStatus(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewStatusOptions(defaults)

	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync status",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}
}

// WebDAVOptions manages the stored WebDAV configuration.
type WebDAVOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	url       string
	username  string
	vaultPath string
}

var _ genericclioptions.CmdOptions = &WebDAVOptions{}

func NewWebDAVOptions(defaults *DefaultPassnoteOptions) *WebDAVOptions {
	return &WebDAVOptions{IOStreams: defaults.IOStreams, appOptions: defaults.appOptions}
}

func (*WebDAVOptions) Complete() error { return nil }

func (*WebDAVOptions) Validate() error { return nil }

// Run shows the stored configuration with the password redacted.
func (o *WebDAVOptions) Run(ctx context.Context, _ ...string) error {
	cfg, err := o.appOptions.App().GetWebDAVConfig(ctx)
	if err != nil {
		if errors.Is(err, vaulterrors.ErrWebDAVNotConfigured) {
			o.Infof("webdav: not configured\n")
			return nil
		}

		return err
	}

	o.Printf("url: %s\nusername: %s\nvault path: %s\n", cfg.URL, cfg.Username, cfg.Path())

	return nil
}

func (o *WebDAVOptions) runSet(ctx context.Context) error {
	if len(o.url) == 0 {
		return errors.New("--url is required")
	}

	password, err := input.PromptReadSecure(o.ErrOut, int(o.In.Fd()), "WebDAV password for %q: ", o.username)
	if err != nil {
		return fmt.Errorf("prompt webdav password: %w", err)
	}

	cfg := remote.Config{
		URL:       o.url,
		Username:  o.username,
		Password:  string(password),
		VaultPath: o.vaultPath,
	}

	app := o.appOptions.App()

	if err := app.TestWebDAVConnection(ctx, cfg); err != nil {
		return err
	}

	return app.ConfigureWebDAV(ctx, cfg)
}

func (o *WebDAVOptions) runTest(ctx context.Context) error {
	app := o.appOptions.App()

	cfg, err := app.GetWebDAVConfig(ctx)
	if err != nil {
		return err
	}

	if err := app.TestWebDAVConnection(ctx, cfg); err != nil {
		return err
	}

	o.Infof("webdav: connection ok\n")

	return nil
}

// NewCmdWebDAV creates the webdav cobra command with its sub-commands.
func NewCmdWebDAV(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewWebDAVOptions(defaults)

	cmd := &cobra.Command{
		Use:   "webdav",
		Short: "Manage the WebDAV remote configuration",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Configure the WebDAV remote",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(o.runSet(cmd.Context()))
		},
	}

	set.Flags().StringVar(&o.url, "url", "", "WebDAV server URL")
	set.Flags().StringVar(&o.username, "user", "", "WebDAV username")
	set.Flags().StringVar(&o.vaultPath, "vault-path", "", "remote vault blob path")

	test := &cobra.Command{
		Use:   "test",
		Short: "Test the stored WebDAV connection",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(o.runTest(cmd.Context()))
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear the stored WebDAV configuration",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(o.appOptions.App().ClearWebDAVConfig(cmd.Context()))
		},
	}

	cmd.AddCommand(set, test, clear)

	return cmd
}
