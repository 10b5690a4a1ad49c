package commands

import (
	"fmt"

	"git.home.luguber.info/inful/protogen/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("protogen %s (commit %s, built %s)\n", version.String(), version.GitCommit, version.BuildTime)
	return nil
}
