package cli

import (
	"context"
	"encoding/json"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/genericclioptions"

	"github.com/spf13/cobra"
)

// ConfigCmdOptions implements the config command.
type ConfigCmdOptions struct {
	*genericclioptions.IOStreams

	configOptions *ConfigOptions
}

var _ genericclioptions.CmdOptions = &ConfigCmdOptions{}

func NewConfigCmdOptions(defaults *DefaultPassnoteOptions) *ConfigCmdOptions {
	return &ConfigCmdOptions{
		IOStreams:     defaults.IOStreams,
		configOptions: defaults.configOptions,
	}
}

func (o *ConfigCmdOptions) Complete() error {
	return o.configOptions.Load()
}

func (*ConfigCmdOptions) Validate() error { return nil }

// Run prints the parsed and resolved configuration as JSON.
func (o *ConfigCmdOptions) Run(_ context.Context, _ ...string) error {
	out := struct {
		Path     string         `json:"path"`
		Parsed   *FileConfig    `json:"parsed_config"`   //nolint:tagliatelle
		Resolved ResolvedConfig `json:"resolved_config"` //nolint:tagliatelle
	}{
		Path:     o.configOptions.parsed.path,
		Parsed:   o.configOptions.parsed,
		Resolved: o.configOptions.resolved,
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	o.Printf("%s\n", raw)

	return nil
}

// NewCmdConfig creates the config cobra command with its sub-commands.
func NewCmdConfig(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewConfigCmdOptions(defaults)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	cmd.PersistentFlags().StringVar(&o.configOptions.File, "config", "", "path to the config file")

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Print a commented configuration file template",
		Run: func(*cobra.Command, []string) {
			tpl, err := generateTemplate()
			if clierror.Check(err) == nil {
				o.Printf("%s", tpl)
			}
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Run: func(*cobra.Command, []string) {
			if clierror.Check(o.configOptions.Load()) == nil {
				o.Infof("config: ok\n")
			}
		},
	}

	cmd.AddCommand(generate, validate)

	return cmd
}
