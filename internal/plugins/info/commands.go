package info

import (
	"context"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/documents"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

const commandsOverview = `Commands overview
=================

Registered commands: {{ len .Commands }}
{{ range .Commands }}
{{ .Name }}
{{ repeat "-" (len .Name) }}
{{ .Description }}
Registered by: {{ .Owner }}
{{ end }}`

// CommandsInfo lists the registered commands.
type CommandsInfo struct {
	plugin.Base
}

// NewCommandsInfo is the factory of the gw_commands_info class.
func NewCommandsInfo(host plugin.Host, name string) (plugin.Plugin, error) {
	p := &CommandsInfo{}
	if err := p.Init(host, name, p); err != nil {
		return nil, err
	}
	return p, nil
}

// OnActivate registers command_list and the commands document.
func (p *CommandsInfo) OnActivate() error {
	_, err := commands.Of(&p.Base).Register("command_list", "List all commands", p.list,
		commands.Param{Name: "json", Kind: commands.FlagBool, Usage: "print JSON"})
	if err != nil {
		return err
	}
	_, err = documents.Of(&p.Base).Register("commands_overview", commandsOverview,
		"Gives an overview about all registered commands")
	return err
}

// OnDeactivate has nothing to release.
func (p *CommandsInfo) OnDeactivate() error { return nil }

func (p *CommandsInfo) list(_ context.Context, inv *commands.Invocation) error {
	overview := Snapshot(p.Host())
	out := inv.Out()
	if inv.Bool("json") {
		return writeJSON(out, overview.Commands)
	}

	heading(out, "Commands")
	rows := make([][]string, 0, len(overview.Commands))
	for _, command := range overview.Commands {
		rows = append(rows, []string{command.Name, command.Owner, muted(out, valueOrFallback(command.Description, "-"))})
	}
	return table(out, []string{"COMMAND", "PLUGIN", "DESCRIPTION"}, rows)
}
