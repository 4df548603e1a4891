// Package cli implements the passnote command-line interface on top of
// the public facade.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/input"
	"github.com/passnote/passnote/passnote"
	"github.com/passnote/passnote/vaulterrors"

	"github.com/spf13/cobra"
)

const (
	// defaultDatabaseFilename is the default name for the vault database,
	// created under the user's home directory.
	defaultDatabaseFilename = ".passnote.db"

	defaultNamespace = "default"
)

var (
	// preRunSkipCommands lists command names that bypass the persistent
	// pre-run logic entirely.
	preRunSkipCommands = []string{"config", "generate", "validate", "version", "help", "completion"}

	// preRunPartialCommands lists commands that resolve the vault path
	// but skip unlocking (they create or inspect the vault themselves).
	preRunPartialCommands = []string{"init"}
)

// AppOptions holds the facade handle and its location settings shared by
// every command.
type AppOptions struct {
	DBPath    string
	Namespace string

	app *passnote.App
}

type AppOptionsOpts func(*AppOptions)

// NewAppOptions creates a new AppOptions with the provided
// configurations.
func NewAppOptions(opts ...AppOptionsOpts) *AppOptions {
	o := &AppOptions{}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Complete sets the default database path if not provided.
func (o *AppOptions) Complete() error {
	if len(o.DBPath) == 0 {
		p, err := defaultDatabasePath()
		if err != nil {
			return err
		}

		o.DBPath = p
	}

	if len(o.Namespace) == 0 {
		o.Namespace = defaultNamespace
	}

	return nil
}

// Open creates the facade handle without unlocking it.
func (o *AppOptions) Open() error {
	app, err := passnote.New(passnote.Config{DBPath: o.DBPath, Namespace: o.Namespace})
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

// Unlock authenticates against the stored vault, prompting for the
// master password on the given streams.
func (o *AppOptions) Unlock(ctx context.Context, io *genericclioptions.IOStreams) error {
	ok, err := o.app.IsInitialized(ctx)
	if err != nil {
		return err
	}

	if !ok {
		return vaulterrors.ErrNotInitialized
	}

	password, err := input.PromptPassword(io.ErrOut, int(io.In.Fd()))
	if err != nil {
		return fmt.Errorf("prompt password: %w", err)
	}

	if result := o.app.Authenticate(ctx, string(password)); !result.Success {
		return vaulterrors.ErrInvalidCredentials
	}

	return nil
}

// App returns the opened facade handle.
func (o *AppOptions) App() *passnote.App {
	return o.app
}

// Close releases the underlying persistence handle.
func (o *AppOptions) Close() error {
	if o.app == nil {
		return nil
	}

	return o.app.Close()
}

func defaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, defaultDatabaseFilename), nil
}

// DefaultPassnoteOptions carries the shared state of the command tree.
type DefaultPassnoteOptions struct {
	*genericclioptions.IOStreams

	appOptions    *AppOptions
	configOptions *ConfigOptions
}

// NewDefaultPassnoteOptions creates the shared options for the command
// tree.
func NewDefaultPassnoteOptions(iostreams *genericclioptions.IOStreams) *DefaultPassnoteOptions {
	return &DefaultPassnoteOptions{
		IOStreams:     iostreams,
		appOptions:    NewAppOptions(),
		configOptions: &ConfigOptions{},
	}
}

// run resolves the file config, opens the facade, and unlocks it unless
// the invoked command manages the vault lifecycle itself.
func (o *DefaultPassnoteOptions) run(ctx context.Context, cmdName string) error {
	if err := o.configOptions.Load(); err != nil {
		return err
	}

	if p := o.configOptions.resolved.DBPath; len(p) > 0 && len(o.appOptions.DBPath) == 0 {
		o.appOptions.DBPath = p
	}

	if ns := o.configOptions.resolved.Namespace; len(ns) > 0 && len(o.appOptions.Namespace) == 0 {
		o.appOptions.Namespace = ns
	}

	if err := o.appOptions.Complete(); err != nil {
		return err
	}

	if slices.Contains(preRunPartialCommands, cmdName) {
		return nil
	}

	if err := o.appOptions.Open(); err != nil {
		return err
	}

	return o.appOptions.Unlock(ctx, o.IOStreams)
}

// NewDefaultPassnoteCommand creates the `passnote` command with its
// sub-commands.
func NewDefaultPassnoteCommand(iostreams *genericclioptions.IOStreams, args []string) *cobra.Command {
	o := NewDefaultPassnoteOptions(iostreams)

	cmd := &cobra.Command{
		Use:   "passnote",
		Short: "Encrypted password vault with remote sync",
		Long: `passnote is an encrypted single-user password vault with
optional WebDAV synchronization.

Environment Variables:
    PASSNOTE_CONFIG_PATH: overrides the default config path: "~/.passnote.toml".`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if slices.Contains(preRunSkipCommands, cmd.Name()) {
				return
			}

			clierror.Check(o.run(cmd.Context(), cmd.Name()))
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			clierror.Check(o.appOptions.Close())
		},
	}

	cmd.SetArgs(args)
	cmd.SetIn(iostreams.In)
	cmd.SetOut(iostreams.Out)
	cmd.SetErr(iostreams.ErrOut)

	cmd.PersistentFlags().StringVarP(&o.appOptions.DBPath, "file", "f", "", "path to the vault database")
	cmd.PersistentFlags().StringVar(&o.appOptions.Namespace, "namespace", "", "vault namespace within the database")
	cmd.PersistentFlags().BoolVarP(&o.IOStreams.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		NewCmdInit(o),
		NewCmdList(o),
		NewCmdShow(o),
		NewCmdCreate(o),
		NewCmdUpdate(o),
		NewCmdRemove(o),
		NewCmdTemplate(o),
		NewCmdLabel(o),
		NewCmdWebDAV(o),
		NewCmdPush(o),
		NewCmdPull(o),
		NewCmdStatus(o),
		NewCmdRotate(o),
		NewCmdReset(o),
		NewCmdExport(o),
		NewCmdGenerate(o),
		NewCmdConfig(o),
		NewCmdVersion(o),
	)

	return cmd
}
