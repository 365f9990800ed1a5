package recipes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/groundwork/internal/config"
	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

// ErrRecipeExists is returned when a recipe name is already taken.
type ErrRecipeExists struct {
	Name  string
	Owner string
}

func (e ErrRecipeExists) Error() string {
	return fmt.Sprintf("recipe %s was already registered by %s", e.Name, e.Owner)
}

// ErrRecipeMissing is returned when building an unknown recipe.
type ErrRecipeMissing struct {
	Name string
}

func (e ErrRecipeMissing) Error() string {
	return fmt.Sprintf("recipe %s unknown", e.Name)
}

// ErrWrongPlugin is returned when a plugin builds a recipe it does not own.
type ErrWrongPlugin struct {
	Name   string
	Plugin string
}

func (e ErrWrongPlugin) Error() string {
	return fmt.Sprintf("recipe %s does not belong to %s; build it through the application registry", e.Name, e.Plugin)
}

// ErrInvalidPath is returned for recipe paths that are neither absolute nor
// git URLs.
type ErrInvalidPath struct {
	Name string
	Path string
}

func (e ErrInvalidPath) Error() string {
	return fmt.Sprintf("path of recipe %s must be absolute or a git URL, got %q", e.Name, e.Path)
}

// Registry holds the recipes of an application.
type Registry struct {
	recipes *registry.Store[*Recipe]
	log     *logger.Logger
}

// NewRegistry creates an empty recipe registry.
func NewRegistry(log *logger.Logger) *Registry {
	log.Debug("application recipes initialised")
	return &Registry{
		recipes: registry.NewStore[*Recipe]("recipe"),
		log:     log,
	}
}

// Register adds a recipe whose template lives at path, an absolute
// directory or a git URL.
func (r *Registry) Register(name, path string, owner registry.Owner, description, finalWords string) (*Recipe, error) {
	if !filepath.IsAbs(path) && !config.IsGitURL(path) {
		return nil, ErrInvalidPath{Name: name, Path: path}
	}
	return r.add(&Recipe{
		Name:        name,
		Path:        path,
		Description: description,
		FinalWords:  finalWords,
		owner:       owner,
	})
}

// RegisterFS adds a recipe whose template is the root of fsys.
func (r *Registry) RegisterFS(name string, fsys fs.FS, owner registry.Owner, description, finalWords string) (*Recipe, error) {
	if fsys == nil {
		return nil, fmt.Errorf("recipe %s has no file system", name)
	}
	return r.add(&Recipe{
		Name:        name,
		Path:        fmt.Sprintf("embedded:%s", name),
		Description: description,
		FinalWords:  finalWords,
		fsys:        fsys,
		owner:       owner,
	})
}

func (r *Registry) add(recipe *Recipe) (*Recipe, error) {
	if strings.TrimSpace(recipe.Name) == "" {
		return nil, fmt.Errorf("recipe name must not be empty")
	}
	if recipe.owner == nil {
		return nil, fmt.Errorf("recipe %s requires an owner", recipe.Name)
	}
	if err := r.recipes.Add(recipe.Name, recipe); err != nil {
		var exists registry.ErrExists
		if errors.As(err, &exists) {
			return nil, ErrRecipeExists{Name: recipe.Name, Owner: exists.Owner}
		}
		return nil, err
	}
	r.log.Debug(fmt.Sprintf("recipe %s registered by %s", recipe.Name, recipe.owner.Name()))
	return recipe, nil
}

// Unregister removes a recipe. Unknown names are only logged.
func (r *Registry) Unregister(name string) {
	if _, ok := r.recipes.Remove(name); !ok {
		r.log.Warn(fmt.Sprintf("can not unregister recipe %s", name))
		return
	}
	r.log.Debug(fmt.Sprintf("recipe %s got unregistered", name))
}

// Get returns a recipe, restricted to owner when owner is non-nil.
func (r *Registry) Get(name string, owner registry.Owner) (*Recipe, bool) {
	return r.recipes.Get(name, owner)
}

// List returns all recipes, or those of owner when owner is non-nil.
func (r *Registry) List(owner registry.Owner) map[string]*Recipe {
	return r.recipes.List(owner)
}

// Names returns the sorted recipe names of owner (all when nil).
func (r *Registry) Names(owner registry.Owner) []string {
	return r.recipes.Names(owner)
}

// Build renders the recipe into opts.OutputDir and returns the location of
// the result. A non-nil owner must match the recipe's owner.
func (r *Registry) Build(ctx context.Context, name string, owner registry.Owner, opts BuildOptions) (string, error) {
	recipe, ok := r.recipes.Get(name, nil)
	if !ok {
		return "", ErrRecipeMissing{Name: name}
	}
	if owner != nil && recipe.Owner() != owner {
		return "", ErrWrongPlugin{Name: name, Plugin: owner.Name()}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r.log.Debug(fmt.Sprintf("building recipe %s from %s", name, recipe.Path))
	target, err := recipe.build(ctx, opts)
	if err != nil {
		return "", gwerrors.NewRecipeError(name, err)
	}
	r.log.Info(fmt.Sprintf("recipe %s built at %s", name, target))
	return target, nil
}
