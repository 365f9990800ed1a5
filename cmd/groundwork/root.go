package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alexisbeaulieu97/groundwork/internal/app"
	"github.com/alexisbeaulieu97/groundwork/internal/config"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

// run assembles the application from args, runs the requested command and
// returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := execute(ctx, args, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	flags, err := parseRootFlags(args)
	if err != nil {
		return err
	}

	catalog := builtinCatalog()
	opts := app.Options{
		ConfigFiles: flags.configs,
		Sources:     []plugin.Source{catalog},
		Catalog:     catalog,
		LogWriter:   stderr,
	}
	if flags.strict != "" {
		policy, ok := plugin.ParsePolicy(flags.strict)
		if !ok {
			return fmt.Errorf("invalid --strict value %q, expected strict or lenient", flags.strict)
		}
		opts.Policy = policy
	}
	if flags.verbose {
		opts.LogLevel = "debug"
	}

	a, err := app.New(opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Shutdown())
	}()

	names := flags.plugins
	if len(names) == 0 {
		names = a.Settings().Strings(config.KeyPlugins)
	}
	if len(names) == 0 {
		names = builtinNames()
	}
	if err := a.Activate(names...); err != nil {
		return err
	}

	if err := registerVersion(a); err != nil {
		return err
	}
	registry := a.Commands()
	if err := registry.Globals(globalParams...); err != nil {
		return err
	}
	registry.SetOutput(stdout, stderr)
	return registry.Start(ctx, args)
}
