// Package documents lets plugins publish text documents, such as usage notes
// or overviews, which are rendered with text/template on request.
package documents

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
)

// ErrDocumentExists is returned when a document name is already taken.
type ErrDocumentExists struct {
	Name  string
	Owner string
}

func (e ErrDocumentExists) Error() string {
	return fmt.Sprintf("document %s already registered by %s", e.Name, e.Owner)
}

// ErrUnknownDocument is returned when rendering a document that does not exist.
type ErrUnknownDocument struct {
	Name string
}

func (e ErrUnknownDocument) Error() string {
	return fmt.Sprintf("document %s not found", e.Name)
}

// Document is a named template registered by a plugin.
type Document struct {
	Name        string
	Content     string
	Description string

	owner    registry.Owner
	template *template.Template
}

// Owner returns whoever registered the document.
func (d *Document) Owner() registry.Owner {
	return d.owner
}

// Render executes the document with data.
func (d *Document) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := d.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render document %s: %w", d.Name, err)
	}
	return buf.String(), nil
}

// Registry holds the documents of an application.
type Registry struct {
	documents *registry.Store[*Document]
	funcs     template.FuncMap
	log       *logger.Logger
}

// NewRegistry creates an empty document registry.
func NewRegistry(log *logger.Logger) *Registry {
	log.Debug("application documents initialised")
	return &Registry{
		documents: registry.NewStore[*Document]("document"),
		funcs: template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"join":  strings.Join,
			"title": title,
			"repeat": func(s string, n int) string {
				return strings.Repeat(s, n)
			},
		},
		log: log,
	}
}

// Register parses content as a template and stores it under name.
func (r *Registry) Register(name, content string, owner registry.Owner, description string) (*Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("document name must not be empty")
	}
	if owner == nil {
		return nil, fmt.Errorf("document %s requires an owner", name)
	}

	tmpl, err := template.New(name).Funcs(r.funcs).Option("missingkey=zero").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", name, err)
	}

	document := &Document{
		Name:        name,
		Content:     content,
		Description: description,
		owner:       owner,
		template:    tmpl,
	}
	if err := r.documents.Add(name, document); err != nil {
		var exists registry.ErrExists
		if errors.As(err, &exists) {
			return nil, ErrDocumentExists{Name: name, Owner: exists.Owner}
		}
		return nil, err
	}

	r.log.Debug(fmt.Sprintf("document registered: %s", name))
	return document, nil
}

// Unregister removes a document. Unknown names are only logged.
func (r *Registry) Unregister(name string) {
	if _, ok := r.documents.Remove(name); !ok {
		r.log.Warn(fmt.Sprintf("can not unregister document %s", name))
		return
	}
	r.log.Debug(fmt.Sprintf("document %s got unregistered", name))
}

// Get returns a document, restricted to owner when owner is non-nil.
func (r *Registry) Get(name string, owner registry.Owner) (*Document, bool) {
	return r.documents.Get(name, owner)
}

// List returns all documents, or those of owner when owner is non-nil.
func (r *Registry) List(owner registry.Owner) map[string]*Document {
	return r.documents.List(owner)
}

// Names returns the sorted document names of owner (all when nil).
func (r *Registry) Names(owner registry.Owner) []string {
	return r.documents.Names(owner)
}

// Render executes the named document with data.
func (r *Registry) Render(name string, data any) (string, error) {
	document, ok := r.documents.Get(name, nil)
	if !ok {
		return "", ErrUnknownDocument{Name: name}
	}
	return document.Render(data)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
