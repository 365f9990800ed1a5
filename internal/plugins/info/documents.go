package info

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/documents"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
	"github.com/alexisbeaulieu97/groundwork/internal/tui"
)

// MainDocument is shown first by the doc command.
const MainDocument = "main"

const documentsOverview = `Documents overview
==================

Registered documents: {{ len .Documents }}
{{ range .Documents }}
 * {{ .Name }}: {{ .Description }} ({{ .Owner }}){{ end }}
`

// DocumentsInfo lists and renders documents.
type DocumentsInfo struct {
	plugin.Base
}

// NewDocumentsInfo is the factory of the gw_documents_info class.
func NewDocumentsInfo(host plugin.Host, name string) (plugin.Plugin, error) {
	p := &DocumentsInfo{}
	if err := p.Init(host, name, p); err != nil {
		return nil, err
	}
	return p, nil
}

// OnActivate registers doc_list, doc and the documents overview.
func (p *DocumentsInfo) OnActivate() error {
	handle := commands.Of(&p.Base)
	if _, err := handle.Register("doc_list", "List all documents", p.list); err != nil {
		return err
	}
	_, err := handle.Register("doc", "Shows the documentation", p.show,
		commands.Param{Name: "name", Kind: commands.Argument, Usage: "document to show, all when omitted"},
		commands.Param{Name: "interactive", Shorthand: "i", Kind: commands.FlagBool, Usage: "page through documents on a terminal"})
	if err != nil {
		return err
	}
	_, err = documents.Of(&p.Base).Register("documents_overview", documentsOverview,
		"Gives an overview about all registered documents")
	return err
}

// OnDeactivate has nothing to release.
func (p *DocumentsInfo) OnDeactivate() error { return nil }

func (p *DocumentsInfo) list(_ context.Context, inv *commands.Invocation) error {
	out := inv.Out()
	heading(out, "Documents")
	overview := Snapshot(p.Host())
	rows := make([][]string, 0, len(overview.Documents))
	for _, document := range overview.Documents {
		rows = append(rows, []string{document.Name, document.Owner, muted(out, valueOrFallback(document.Description, "-"))})
	}
	return table(out, []string{"DOCUMENT", "PLUGIN", "DESCRIPTION"}, rows)
}

// show renders one document, or every document with main first. On a
// terminal --interactive opens a pager instead.
func (p *DocumentsInfo) show(ctx context.Context, inv *commands.Invocation) error {
	registry := documents.For(p.Host())
	names := registry.Names(nil)
	if name := inv.Arg("name"); name != "" {
		names = []string{name}
	} else {
		names = mainFirst(names)
	}

	pages, err := p.pages(ctx, names)
	if err != nil {
		return err
	}

	out := inv.Out()
	if inv.Bool("interactive") && styled(out) {
		return tui.Run(ctx, pages, os.Stdin, out)
	}
	for i, page := range pages {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, page.Body)
		rule := strings.Repeat("-", len(page.Footer))
		fmt.Fprintln(out, muted(out, rule))
		fmt.Fprintln(out, muted(out, page.Footer))
		fmt.Fprintln(out, muted(out, rule))
	}
	return nil
}

func (p *DocumentsInfo) pages(ctx context.Context, names []string) ([]tui.Page, error) {
	registry := documents.For(p.Host())
	overview := Snapshot(p.Host())
	pages := make([]tui.Page, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		document, ok := registry.Get(name, nil)
		if !ok {
			return nil, documents.ErrUnknownDocument{Name: name}
		}
		content, err := document.Render(overview)
		if err != nil {
			return nil, err
		}
		pages = append(pages, tui.Page{
			Title:  document.Name,
			Body:   strings.TrimRight(content, "\n"),
			Footer: fmt.Sprintf("This document is registered by '%s' under the name '%s'", ownerName(document.Owner()), document.Name),
		})
	}
	return pages, nil
}

func mainFirst(names []string) []string {
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		if name == MainDocument {
			ordered = append([]string{name}, ordered...)
			continue
		}
		ordered = append(ordered, name)
	}
	return ordered
}
