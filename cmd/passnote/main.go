package main

import (
	"os"

	"github.com/passnote/passnote/cli"
	"github.com/passnote/passnote/genericclioptions"
)

func main() {
	iostreams := genericclioptions.NewDefaultIOStreams()

	cmd := cli.NewDefaultPassnoteCommand(iostreams, os.Args[1:])
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
