// Package recipes scaffolds directories and files from template trees that
// plugins register.
package recipes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"unicode/utf8"

	git "github.com/go-git/go-git/v5"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/groundwork/internal/config"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
	"github.com/alexisbeaulieu97/groundwork/pkg/diff"
)

// VarsFile holds the default variables of a recipe, at the template root.
const VarsFile = "recipe.yaml"

// TemplateSuffix is removed from file names when a recipe is built, so
// templates can ship files such as go.mod without the Go tool reading them.
const TemplateSuffix = ".tmpl"

// ErrTargetExists is returned when a build would overwrite existing files.
var ErrTargetExists = errors.New("target already exists")

// Recipe is a template tree. Its source is a local directory, a git
// repository or an fs.FS.
type Recipe struct {
	Name        string
	Path        string
	Description string
	FinalWords  string

	fsys  fs.FS
	owner registry.Owner
}

// Owner returns whoever registered the recipe.
func (r *Recipe) Owner() registry.Owner {
	return r.owner
}

// Remote reports whether the recipe is fetched with git.
func (r *Recipe) Remote() bool {
	return r.fsys == nil && config.IsGitURL(r.Path) && !filepath.IsAbs(r.Path)
}

// BuildOptions controls where and how a recipe is built.
type BuildOptions struct {
	// OutputDir defaults to the working directory.
	OutputDir string
	// Vars override the defaults from recipe.yaml.
	Vars map[string]any
	// Overwrite allows writing into existing files.
	Overwrite bool
	// DryRun reports what would be written to Out without touching the
	// output directory. Existing files are shown as unified diffs.
	DryRun bool
	// Out receives the final words. Nothing is printed when nil.
	Out io.Writer
}

// open returns the template tree and a cleanup function.
func (r *Recipe) open(ctx context.Context) (fs.FS, func(), error) {
	if r.fsys != nil {
		return r.fsys, func() {}, nil
	}
	if !r.Remote() {
		return os.DirFS(r.Path), func() {}, nil
	}

	dir, err := os.MkdirTemp("", "groundwork-recipe-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create clone directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   r.Path,
		Depth: 1,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("clone %s: %w", r.Path, err)
	}
	return os.DirFS(dir), cleanup, nil
}

// build renders the recipe into opts.OutputDir and returns the created
// location: the single top-level entry, or the output directory when the
// template has several.
func (r *Recipe) build(ctx context.Context, opts BuildOptions) (string, error) {
	outputDir := opts.OutputDir
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		outputDir = cwd
	}

	fsys, cleanup, err := r.open(ctx)
	if err != nil {
		return "", err
	}
	defer cleanup()

	vars, err := loadVars(fsys)
	if err != nil {
		return "", err
	}
	for key, value := range opts.Vars {
		vars[key] = value
	}

	files, err := plan(fsys, vars)
	if err != nil {
		return "", err
	}
	if opts.DryRun {
		return outputDir, preview(fsys, files, outputDir, vars, opts.Out)
	}
	if !opts.Overwrite {
		for _, file := range files {
			if file.dir {
				continue
			}
			target := filepath.Join(outputDir, file.target)
			if _, err := os.Stat(target); err == nil {
				return "", fmt.Errorf("%s: %w", target, ErrTargetExists)
			}
		}
	}

	tops := make(map[string]struct{})
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tops[strings.SplitN(file.target, string(filepath.Separator), 2)[0]] = struct{}{}
		if err := file.write(fsys, outputDir, vars); err != nil {
			return "", err
		}
	}

	if opts.Out != nil && r.FinalWords != "" {
		fmt.Fprintf(opts.Out, "\n%s\n", r.FinalWords)
	}

	if len(tops) == 1 {
		for top := range tops {
			return filepath.Join(outputDir, top), nil
		}
	}
	return outputDir, nil
}

func loadVars(fsys fs.FS) (map[string]any, error) {
	vars := make(map[string]any)
	content, err := fs.ReadFile(fsys, VarsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return vars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", VarsFile, err)
	}
	if err := yaml.Unmarshal(content, &vars); err != nil {
		return nil, fmt.Errorf("parse %s: %w", VarsFile, err)
	}
	if vars == nil {
		vars = make(map[string]any)
	}
	return vars, nil
}

type plannedFile struct {
	source string
	target string
	dir    bool
	mode   fs.FileMode
}

// plan walks the template tree and renders every path.
func plan(fsys fs.FS, vars map[string]any) ([]plannedFile, error) {
	var files []plannedFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return fs.SkipDir
		}
		if p == VarsFile {
			return nil
		}

		target, err := renderPath(p, vars)
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Base(target) != TemplateSuffix {
			target = strings.TrimSuffix(target, TemplateSuffix)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, plannedFile{
			source: p,
			target: target,
			dir:    d.IsDir(),
			mode:   info.Mode().Perm(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func renderPath(p string, vars map[string]any) (string, error) {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		rendered, err := render(p, segment, vars)
		if err != nil {
			return "", err
		}
		if rendered == "" || rendered == "." || rendered == ".." || strings.ContainsAny(rendered, `/\`) {
			return "", fmt.Errorf("path %s renders to invalid name %q", p, rendered)
		}
		segments[i] = rendered
	}
	return filepath.FromSlash(path.Join(segments...)), nil
}

func (f plannedFile) content(fsys fs.FS, vars map[string]any) ([]byte, error) {
	content, err := fs.ReadFile(fsys, f.source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.source, err)
	}
	if !utf8.Valid(content) {
		return content, nil
	}
	rendered, err := render(f.source, string(content), vars)
	if err != nil {
		return nil, err
	}
	return []byte(rendered), nil
}

func (f plannedFile) write(fsys fs.FS, outputDir string, vars map[string]any) error {
	target := filepath.Join(outputDir, f.target)
	if f.dir {
		return os.MkdirAll(target, 0o755)
	}

	content, err := f.content(fsys, vars)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	mode := f.mode
	if mode == 0 {
		mode = 0o644
	}
	return os.WriteFile(target, content, mode)
}

// preview renders every file and reports it as created, changed or
// unchanged. Changed files are followed by their diff.
func preview(fsys fs.FS, files []plannedFile, outputDir string, vars map[string]any, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	for _, file := range files {
		if file.dir {
			continue
		}
		content, err := file.content(fsys, vars)
		if err != nil {
			return err
		}

		target := filepath.Join(outputDir, file.target)
		existing, err := os.ReadFile(target)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(out, "create    %s\n", file.target)
		case err != nil:
			return err
		case bytes.Equal(existing, content):
			fmt.Fprintf(out, "unchanged %s\n", file.target)
		case !utf8.Valid(existing) || !utf8.Valid(content):
			fmt.Fprintf(out, "change    %s (binary)\n", file.target)
		default:
			inserted, deleted := diff.Stats(existing, content)
			fmt.Fprintf(out, "change    %s (+%d -%d)\n", file.target, inserted, deleted)
			fmt.Fprint(out, diff.Unified(existing, content, target, file.target+" (recipe)"))
		}
	}
	return nil
}

func render(name, text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
