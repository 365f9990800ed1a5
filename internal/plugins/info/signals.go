package info

import (
	"context"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/documents"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

const signalsOverview = `Signals overview
================

Registered signals: {{ len .Signals }}
{{ range .Signals }}
{{ .Name }}
{{ repeat "-" (len .Name) }}
{{ .Description }}
Registered by: {{ .Owner }}
{{ end }}`

const receiversOverview = `Receivers overview
==================

Connected receivers: {{ len .Receivers }}
{{ range .Receivers }}
{{ .Name }}
{{ repeat "-" (len .Name) }}
{{ .Description }}
Signal: {{ .Signal }}
Connected by: {{ .Owner }}
{{ end }}`

// SignalsInfo lists signals and receivers.
type SignalsInfo struct {
	plugin.Base
}

// NewSignalsInfo is the factory of the gw_signals_info class.
func NewSignalsInfo(host plugin.Host, name string) (plugin.Plugin, error) {
	p := &SignalsInfo{}
	if err := p.Init(host, name, p); err != nil {
		return nil, err
	}
	return p, nil
}

// OnActivate registers signal_list, receiver_list and their documents.
func (p *SignalsInfo) OnActivate() error {
	handle := commands.Of(&p.Base)
	if _, err := handle.Register("signal_list", "List of all signals", p.listSignals); err != nil {
		return err
	}
	if _, err := handle.Register("receiver_list", "List of all signal receivers", p.listReceivers); err != nil {
		return err
	}

	docs := documents.Of(&p.Base)
	if _, err := docs.Register("signals_overview", signalsOverview,
		"Gives an overview about all registered signals"); err != nil {
		return err
	}
	_, err := docs.Register("receivers_overview", receiversOverview,
		"Gives an overview about all connected receivers")
	return err
}

// OnDeactivate has nothing to release.
func (p *SignalsInfo) OnDeactivate() error { return nil }

func (p *SignalsInfo) listSignals(_ context.Context, inv *commands.Invocation) error {
	out := inv.Out()
	heading(out, "Signals")
	overview := Snapshot(p.Host())
	rows := make([][]string, 0, len(overview.Signals))
	for _, signal := range overview.Signals {
		rows = append(rows, []string{signal.Name, signal.Owner, muted(out, valueOrFallback(signal.Description, "-"))})
	}
	return table(out, []string{"SIGNAL", "OWNER", "DESCRIPTION"}, rows)
}

func (p *SignalsInfo) listReceivers(_ context.Context, inv *commands.Invocation) error {
	out := inv.Out()
	heading(out, "Receivers")
	overview := Snapshot(p.Host())
	rows := make([][]string, 0, len(overview.Receivers))
	for _, receiver := range overview.Receivers {
		rows = append(rows, []string{receiver.Name, receiver.Signal, receiver.Owner, muted(out, valueOrFallback(receiver.Description, "-"))})
	}
	return table(out, []string{"RECEIVER", "SIGNAL", "OWNER", "DESCRIPTION"}, rows)
}
