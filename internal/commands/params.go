package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Kind selects how a Param is exposed on the command line.
type Kind int

const (
	// FlagString is a --name=value flag.
	FlagString Kind = iota
	// FlagBool is a --name switch.
	FlagBool
	// FlagInt is a --name=N flag.
	FlagInt
	// FlagStrings is a repeatable --name=a,b flag.
	FlagStrings
	// Argument is a positional argument, in declaration order.
	Argument
)

// Param declares an option or argument of a command.
type Param struct {
	Name      string
	Shorthand string
	Usage     string
	Default   any
	Kind      Kind
	Required  bool
}

func bindParams(flags *pflag.FlagSet, params []Param) ([]Param, error) {
	var positional []Param

	for _, param := range params {
		if strings.TrimSpace(param.Name) == "" {
			return nil, fmt.Errorf("parameter without name")
		}

		switch param.Kind {
		case Argument:
			positional = append(positional, param)
			continue
		case FlagString:
			value, ok := defaultOf(param, "")
			if !ok {
				return nil, fmt.Errorf("parameter %s expects a string default", param.Name)
			}
			flags.StringP(param.Name, param.Shorthand, value, param.Usage)
		case FlagBool:
			value, ok := defaultOf(param, false)
			if !ok {
				return nil, fmt.Errorf("parameter %s expects a bool default", param.Name)
			}
			flags.BoolP(param.Name, param.Shorthand, value, param.Usage)
		case FlagInt:
			value, ok := defaultOf(param, 0)
			if !ok {
				return nil, fmt.Errorf("parameter %s expects an int default", param.Name)
			}
			flags.IntP(param.Name, param.Shorthand, value, param.Usage)
		case FlagStrings:
			value, ok := defaultOf[[]string](param, nil)
			if !ok {
				return nil, fmt.Errorf("parameter %s expects a []string default", param.Name)
			}
			flags.StringSliceP(param.Name, param.Shorthand, value, param.Usage)
		default:
			return nil, fmt.Errorf("parameter %s has unknown kind %d", param.Name, param.Kind)
		}

		if param.Required {
			if err := cobra.MarkFlagRequired(flags, param.Name); err != nil {
				return nil, err
			}
		}
	}
	return positional, nil
}

func defaultOf[T any](param Param, zero T) (T, bool) {
	if param.Default == nil {
		return zero, true
	}
	value, ok := param.Default.(T)
	return value, ok
}

func positionalArgs(positional []Param) cobra.PositionalArgs {
	required := 0
	for _, param := range positional {
		if param.Required {
			required++
		}
	}
	return cobra.RangeArgs(required, len(positional))
}

func usage(command *Command) string {
	parts := []string{command.Name}
	for _, param := range command.Params {
		if param.Kind != Argument {
			continue
		}
		if param.Required {
			parts = append(parts, strings.ToUpper(param.Name))
		} else {
			parts = append(parts, "["+strings.ToUpper(param.Name)+"]")
		}
	}
	return strings.Join(parts, " ")
}

// Invocation gives a running command access to its parameters and output.
type Invocation struct {
	Command *Command
	Args    []string

	flags  *pflag.FlagSet
	named  map[string]string
	out    io.Writer
	errOut io.Writer
}

func newInvocation(command *Command, cmd *cobra.Command, positional []Param, args []string) *Invocation {
	named := make(map[string]string, len(positional))
	for i, param := range positional {
		if i < len(args) {
			named[param.Name] = args[i]
		} else if value, ok := param.Default.(string); ok {
			named[param.Name] = value
		}
	}

	return &Invocation{
		Command: command,
		Args:    args,
		flags:   cmd.Flags(),
		named:   named,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}
}

// String returns the value of a string flag.
func (i *Invocation) String(name string) string {
	value, _ := i.flags.GetString(name)
	return value
}

// Bool returns the value of a bool flag.
func (i *Invocation) Bool(name string) bool {
	value, _ := i.flags.GetBool(name)
	return value
}

// Int returns the value of an int flag.
func (i *Invocation) Int(name string) int {
	value, _ := i.flags.GetInt(name)
	return value
}

// Strings returns the values of a repeatable string flag.
func (i *Invocation) Strings(name string) []string {
	values, _ := i.flags.GetStringSlice(name)
	return values
}

// Changed reports whether the flag was set on the command line.
func (i *Invocation) Changed(name string) bool {
	return i.flags.Changed(name)
}

// Arg returns a positional argument by name.
func (i *Invocation) Arg(name string) string {
	return i.named[name]
}

// Out is where the command writes its output.
func (i *Invocation) Out() io.Writer {
	return i.out
}

// ErrOut is where the command writes diagnostics.
func (i *Invocation) ErrOut() io.Writer {
	return i.errOut
}
