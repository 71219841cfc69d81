package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/doccatalog/cmd/doccatalog/commands"
	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/doccatalog/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("doccatalog"),
		kong.Description("Aggregate documentation content from versioned git repositories into a classified catalog."),
		kong.Vars{"version": version.Version},
	)

	if err := ctx.Run(&commands.Global{}, &cli); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(fnderrors.ExitCode(err))
	}
}
