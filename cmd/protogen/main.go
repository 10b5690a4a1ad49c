package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/protogen/cmd/protogen/commands"
	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("protogen"),
		kong.Description("Generate a nested Rust module tree from protobuf schemas and keep it in sync."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli); err != nil {
		derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
