package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/input"
	"github.com/passnote/passnote/passnote"
	"github.com/passnote/passnote/remote"

	"github.com/spf13/cobra"
)

// InitOptions have the data required to create a new vault.
type InitOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	pullRemote bool
	webdavURL  string
	webdavUser string
	webdavPath string
}

var _ genericclioptions.CmdOptions = &InitOptions{}

// NewInitOptions initializes the options struct.
func NewInitOptions(defaults *DefaultPassnoteOptions) *InitOptions {
	return &InitOptions{
		IOStreams:  defaults.IOStreams,
		appOptions: defaults.appOptions,
	}
}

func (o *InitOptions) Complete() error {
	return o.appOptions.Complete()
}

func (o *InitOptions) Validate() error {
	if o.pullRemote && len(o.webdavURL) == 0 {
		return &ConfigError{Opt: "pull-remote", Err: errors.New("requires --webdav-url")}
	}

	return nil
}

func (o *InitOptions) Run(ctx context.Context, _ ...string) error {
	if _, err := os.Stat(o.appOptions.DBPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat vault database: %w", err)
	}

	config := passnote.Config{
		DBPath:          o.appOptions.DBPath,
		Namespace:       o.appOptions.Namespace,
		PullRemoteVault: o.pullRemote,
	}

	if len(o.webdavURL) > 0 {
		webdavPassword, err := input.PromptReadSecure(o.ErrOut, int(o.In.Fd()), "WebDAV password for %q: ", o.webdavUser)
		if err != nil {
			return fmt.Errorf("prompt webdav password: %w", err)
		}

		config.WebDAV = &remote.Config{
			URL:       o.webdavURL,
			Username:  o.webdavUser,
			Password:  string(webdavPassword),
			VaultPath: o.webdavPath,
		}
	}

	app, err := passnote.New(config)
	if err != nil {
		return err
	}

	o.appOptions.app = app

	ok, err := app.IsInitialized(ctx)
	if err != nil {
		return err
	}

	if ok {
		o.Infof("passnote: vault already initialized at %q\n", o.appOptions.DBPath)
		return nil
	}

	password, err := input.PromptNewPassword(o.ErrOut, int(o.In.Fd()))
	if err != nil {
		return err
	}

	if strength := app.CheckPasswordComplexity(string(password)); !strength.Acceptable {
		o.Errorf("%s\n", strings.Join(append(strength.Warning, strength.Suggestions...), "\n"))
		return errors.New("master password rejected")
	}

	if err := app.Initialize(ctx, string(password)); err != nil {
		return err
	}

	o.Infof("passnote: vault initialized at %q\n", o.appOptions.DBPath)

	return nil
}

// NewCmdInit creates the init cobra command.
func NewCmdInit(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewInitOptions(defaults)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new vault",
		Long: fmt.Sprintf(`Create a new encrypted vault.

With --pull-remote and a WebDAV configuration, an existing remote vault
is adopted instead of creating a fresh one.

If no --file path is provided, uses the default path (~/%s).`, defaultDatabaseFilename),
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().BoolVar(&o.pullRemote, "pull-remote", false, "adopt an existing remote vault if one exists")
	cmd.Flags().StringVar(&o.webdavURL, "webdav-url", "", "WebDAV server URL")
	cmd.Flags().StringVar(&o.webdavUser, "webdav-user", "", "WebDAV username")
	cmd.Flags().StringVar(&o.webdavPath, "webdav-vault-path", "", "remote vault blob path")

	return cmd
}
