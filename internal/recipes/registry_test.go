package recipes_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin/plugintest"
	"github.com/alexisbeaulieu97/groundwork/internal/recipes"
	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

func packageTemplate() fstest.MapFS {
	return fstest.MapFS{
		"recipe.yaml": {Data: []byte("project_name: demo\nauthor: nobody\n")},
		"{{ .project_name }}/README.md": {
			Data: []byte("# {{ .project_name }}\nby {{ .author }}\n"),
		},
		"{{ .project_name }}/cmd/{{ .project_name }}/main.go.tmpl": {
			Data: []byte("package main\n"),
		},
		"{{ .project_name }}/logo.bin": {Data: []byte{0xff, 0xfe, '{', '{'}},
	}
}

func TestBuildEmbeddedRecipe(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "scaffolder", nil)
	handle := recipes.Of(&owner.Base)

	_, err := handle.RegisterFS("go_package", packageTemplate(), "Go package", "Happy hacking!")
	require.NoError(t, err)

	var out bytes.Buffer
	outputDir := t.TempDir()
	target, err := handle.Build(context.Background(), "go_package", recipes.BuildOptions{
		OutputDir: outputDir,
		Vars:      map[string]any{"project_name": "rocket"},
		Out:       &out,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outputDir, "rocket"), target)

	readme, err := os.ReadFile(filepath.Join(target, "README.md"))
	require.NoError(t, err)
	require.Equal(t, "# rocket\nby nobody\n", string(readme))
	require.FileExists(t, filepath.Join(target, "cmd", "rocket", "main.go"))

	logo, err := os.ReadFile(filepath.Join(target, "logo.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xfe, '{', '{'}, logo)
	require.NoFileExists(t, filepath.Join(outputDir, "recipe.yaml"))
	require.Contains(t, out.String(), "Happy hacking!")

	_, err = handle.Build(context.Background(), "go_package", recipes.BuildOptions{
		OutputDir: outputDir,
		Vars:      map[string]any{"project_name": "rocket"},
	})
	require.ErrorIs(t, err, recipes.ErrTargetExists)

	_, err = handle.Build(context.Background(), "go_package", recipes.BuildOptions{
		OutputDir: outputDir,
		Vars:      map[string]any{"project_name": "rocket", "author": "ada"},
		Overwrite: true,
	})
	require.NoError(t, err)
	readme, err = os.ReadFile(filepath.Join(target, "README.md"))
	require.NoError(t, err)
	require.Equal(t, "# rocket\nby ada\n", string(readme))
}

func TestDryRunPreviewsWithoutWriting(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "scaffolder", nil)
	handle := recipes.Of(&owner.Base)
	_, err := handle.RegisterFS("go_package", packageTemplate(), "Go package", "Happy hacking!")
	require.NoError(t, err)

	outputDir := t.TempDir()
	project := filepath.Join(outputDir, "rocket")
	require.NoError(t, os.MkdirAll(project, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "README.md"), []byte("# rocket\nby bob\n"), 0o644))

	var out bytes.Buffer
	_, err = handle.Build(context.Background(), "go_package", recipes.BuildOptions{
		OutputDir: outputDir,
		Vars:      map[string]any{"project_name": "rocket"},
		DryRun:    true,
		Out:       &out,
	})
	require.NoError(t, err)

	preview := out.String()
	require.Contains(t, preview, "change    "+filepath.Join("rocket", "README.md")+" (+1 -1)")
	require.Contains(t, preview, "-by bob\n")
	require.Contains(t, preview, "+by nobody\n")
	require.Contains(t, preview, "create    "+filepath.Join("rocket", "cmd", "rocket", "main.go"))
	require.NotContains(t, preview, "Happy hacking!")

	readme, err := os.ReadFile(filepath.Join(project, "README.md"))
	require.NoError(t, err)
	require.Equal(t, "# rocket\nby bob\n", string(readme))
	require.NoDirExists(t, filepath.Join(project, "cmd"))
}

func TestBuildLocalRecipe(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "scaffolder", nil)

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "{{ .name }}.txt"), []byte("hello {{ .name }}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(source, "static.txt"), []byte("static"), 0o644))

	_, err := recipes.Of(&owner.Base).Register("notes", source, "Notes", "")
	require.NoError(t, err)

	outputDir := t.TempDir()
	target, err := recipes.For(host).Build(context.Background(), "notes", nil, recipes.BuildOptions{
		OutputDir: outputDir,
		Vars:      map[string]any{"name": "world"},
	})
	require.NoError(t, err)
	require.Equal(t, outputDir, target, "several top-level entries")

	content, err := os.ReadFile(filepath.Join(outputDir, "world.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(content))

	info, err := os.Stat(filepath.Join(outputDir, "world.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestBuildFailures(t *testing.T) {
	host := plugintest.NewHost(t)
	alpha := plugintest.NewPlugin(t, host, "alpha", nil)
	beta := plugintest.NewPlugin(t, host, "beta", nil)

	_, err := recipes.Of(&alpha.Base).RegisterFS("needs_vars", fstest.MapFS{
		"{{ .missing }}.txt": {Data: []byte("x")},
	}, "", "")
	require.NoError(t, err)

	_, err = recipes.Of(&beta.Base).Build(context.Background(), "needs_vars", recipes.BuildOptions{OutputDir: t.TempDir()})
	var wrong recipes.ErrWrongPlugin
	require.ErrorAs(t, err, &wrong)
	require.Equal(t, "beta", wrong.Plugin)

	_, err = recipes.For(host).Build(context.Background(), "ghost", nil, recipes.BuildOptions{})
	require.ErrorAs(t, err, new(recipes.ErrRecipeMissing))

	_, err = recipes.Of(&alpha.Base).Build(context.Background(), "needs_vars", recipes.BuildOptions{OutputDir: t.TempDir()})
	var recipeErr *gwerrors.RecipeError
	require.ErrorAs(t, err, &recipeErr)
	require.Equal(t, "needs_vars", recipeErr.Recipe)
}

func TestRegisterRecipeValidation(t *testing.T) {
	host := plugintest.NewHost(t)
	alpha := plugintest.NewPlugin(t, host, "alpha", nil)
	beta := plugintest.NewPlugin(t, host, "beta", nil)

	_, err := recipes.Of(&alpha.Base).Register("relative", "recipes/pkg", "", "")
	require.ErrorAs(t, err, new(recipes.ErrInvalidPath))

	recipe, err := recipes.Of(&alpha.Base).Register("remote", "https://github.com/example/template.git", "", "")
	require.NoError(t, err)
	require.True(t, recipe.Remote())

	_, err = recipes.Of(&beta.Base).Register("remote", t.TempDir(), "", "")
	var exists recipes.ErrRecipeExists
	require.ErrorAs(t, err, &exists)
	require.Equal(t, "alpha", exists.Owner)
}

func TestDeactivationRemovesRecipes(t *testing.T) {
	host := plugintest.NewHost(t)
	plugintest.NewPlugin(t, host, "scaffolder", func(p *plugintest.Plugin) error {
		_, err := recipes.Of(&p.Base).RegisterFS("pkg", packageTemplate(), "", "")
		return err
	})

	require.NoError(t, host.Plugins().Activate("scaffolder"))
	require.Equal(t, []string{"pkg"}, recipes.For(host).Names(nil))
	require.NoError(t, host.Plugins().Deactivate("scaffolder"))
	require.Empty(t, recipes.For(host).Names(nil))
}
