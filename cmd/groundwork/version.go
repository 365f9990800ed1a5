package main

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/groundwork/internal/app"
	"github.com/alexisbeaulieu97/groundwork/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func registerVersion(a *app.App) error {
	_, err := a.Commands().Register("version", "Display build information",
		func(_ context.Context, inv *commands.Invocation) error {
			fmt.Fprintf(inv.Out(), "groundwork %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
			return nil
		}, nil, a)
	return err
}
