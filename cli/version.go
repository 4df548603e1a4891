package cli

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time; the module build info is
// the fallback.
var version = ""

func resolveVersion() string {
	if len(version) > 0 {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok && len(info.Main.Version) > 0 {
		return info.Main.Version
	}

	return "(devel)"
}

// NewCmdVersion creates the version cobra command.
func NewCmdVersion(defaults *DefaultPassnoteOptions) *cobra.Command {
	io := defaults.IOStreams

	return &cobra.Command{
		Use:   "version",
		Short: "Print the passnote version",
		Run: func(*cobra.Command, []string) {
			io.Infof("passnote %s\n", resolveVersion())
		},
	}
}
