package main

import (
	"io"

	"github.com/spf13/pflag"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
)

type rootFlags struct {
	configs []string
	strict  string
	verbose bool
	plugins []string
}

// globalParams mirror parseRootFlags so every command accepts them.
var globalParams = []commands.Param{
	{Name: "config", Shorthand: "c", Kind: commands.FlagStrings, Usage: "configuration file (YAML or HCL), repeatable"},
	{Name: "strict", Kind: commands.FlagString, Usage: "failure policy: strict or lenient"},
	{Name: "verbose", Shorthand: "v", Kind: commands.FlagBool, Usage: "enable debug logging"},
	{Name: "plugins", Shorthand: "p", Kind: commands.FlagStrings, Usage: "plugins to activate (default: PLUGINS or all built-in plugins)"},
}

// parseRootFlags reads the flags needed to assemble the application. Every
// other argument is left for the command registry.
func parseRootFlags(args []string) (*rootFlags, error) {
	flags := &rootFlags{}
	fs := pflag.NewFlagSet("groundwork", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	fs.StringSliceVarP(&flags.configs, "config", "c", nil, "")
	fs.StringVar(&flags.strict, "strict", "", "")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "")
	fs.StringSliceVarP(&flags.plugins, "plugins", "p", nil, "")
	fs.BoolP("help", "h", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}
