// Package recipebuilder provides the plugin that lists and builds recipes
// and ships the gw_package recipe.
package recipebuilder

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
	"github.com/alexisbeaulieu97/groundwork/internal/recipes"
)

// ClassName is the class the builder is registered under.
const ClassName = "gw_recipes_builder"

// PackageRecipe scaffolds a new Go module with a first plugin.
const PackageRecipe = "gw_package"

//go:embed templates
var templates embed.FS

// Builder exposes the recipe registry on the command line.
type Builder struct {
	plugin.Base
}

// New is the factory of the gw_recipes_builder class.
func New(host plugin.Host, name string) (plugin.Plugin, error) {
	b := &Builder{}
	if err := b.Init(host, name, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Class returns the builder's plugin class.
func Class() plugin.Class {
	return plugin.Class{Name: ClassName, New: New}
}

// OnActivate registers recipe_list, recipe_build and the gw_package recipe.
func (b *Builder) OnActivate() error {
	handle := commands.Of(&b.Base)
	if _, err := handle.Register("recipe_list", "Lists all recipes", b.list); err != nil {
		return err
	}
	_, err := handle.Register("recipe_build", "Builds a given recipe", b.build,
		commands.Param{Name: "recipe", Kind: commands.Argument, Required: true, Usage: "recipe to build"},
		commands.Param{Name: "output", Shorthand: "o", Kind: commands.FlagString, Usage: "output directory (default: working directory)"},
		commands.Param{Name: "var", Kind: commands.FlagStrings, Usage: "template variable as key=value, repeatable"},
		commands.Param{Name: "overwrite", Kind: commands.FlagBool, Usage: "overwrite existing files"},
		commands.Param{Name: "dry-run", Kind: commands.FlagBool, Usage: "show what would be written"},
	)
	if err != nil {
		return err
	}

	tree, err := fs.Sub(templates, "templates/"+PackageRecipe)
	if err != nil {
		return err
	}
	_, err = recipes.Of(&b.Base).RegisterFS(PackageRecipe, tree,
		"Creates a Go module containing a groundwork application and plugin",
		"Your package is ready. Run 'go test ./...' inside it to get started.")
	return err
}

// OnDeactivate has nothing to release.
func (b *Builder) OnDeactivate() error { return nil }

func (b *Builder) list(_ context.Context, inv *commands.Invocation) error {
	registry := recipes.For(b.Host())
	fmt.Fprintln(inv.Out(), "Recipes:")
	for _, name := range registry.Names(nil) {
		recipe, ok := registry.Get(name, nil)
		if !ok {
			continue
		}
		fmt.Fprintf(inv.Out(), "  %s by plugin '%s' - %s\n", recipe.Name, recipe.Owner().Name(), recipe.Description)
	}
	return nil
}

func (b *Builder) build(ctx context.Context, inv *commands.Invocation) error {
	vars, err := parseVars(inv.Strings("var"))
	if err != nil {
		return err
	}

	output := inv.String("output")
	if output == "" {
		if output, err = os.Getwd(); err != nil {
			return err
		}
	}

	target, err := recipes.For(b.Host()).Build(ctx, inv.Arg("recipe"), nil, recipes.BuildOptions{
		OutputDir: output,
		Vars:      vars,
		Overwrite: inv.Bool("overwrite"),
		DryRun:    inv.Bool("dry-run"),
		Out:       inv.Out(),
	})
	if err != nil {
		return err
	}
	if inv.Bool("dry-run") {
		return nil
	}
	fmt.Fprintf(inv.Out(), "Recipe built at %s\n", target)
	return nil
}

func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}
