// Command wdlists is the command-line interface for the wdlists bot.
package main

import (
	"github.com/alecthomas/kong"
	"gitlab.com/tozd/go/cli"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists"
)

func main() {
	var config wdlists.Config
	cli.Run(&config, kong.Vars{}, func(ctx *kong.Context) errors.E {
		return errors.WithStack(ctx.Run(&config.Globals))
	})
}
