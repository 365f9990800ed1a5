package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

// ErrCommandExists is returned when a command name is already taken.
type ErrCommandExists struct {
	Name  string
	Owner string
}

func (e ErrCommandExists) Error() string {
	return fmt.Sprintf("command %s already registered by %s", e.Name, e.Owner)
}

// Func is invoked when a command runs.
type Func func(ctx context.Context, inv *Invocation) error

// Command is a registered command line command.
type Command struct {
	Name        string
	Description string
	Params      []Param
	Function    Func

	owner registry.Owner
}

// Owner returns whoever registered the command.
func (c *Command) Owner() registry.Owner {
	return c.owner
}

// Registry holds the commands of an application. Every Start mounts them
// on a fresh cobra root.
type Registry struct {
	use      string
	short    string
	commands *registry.Store[*Command]
	log      *logger.Logger

	mu      sync.Mutex
	globals []Param
	out     io.Writer
	errOut  io.Writer
}

// NewRegistry creates a registry whose root command is named use.
func NewRegistry(use, short string, log *logger.Logger) *Registry {
	log.Debug("application commands initialised")
	return &Registry{
		use:      use,
		short:    short,
		commands: registry.NewStore[*Command]("command"),
		log:      log,
	}
}

// Register adds a command owned by owner.
func (r *Registry) Register(name, description string, fn Func, params []Param, owner registry.Owner) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("command %s has no function", name)
	}
	if owner == nil {
		return nil, fmt.Errorf("command %s requires an owner", name)
	}

	command := &Command{
		Name:        name,
		Description: description,
		Params:      params,
		Function:    fn,
		owner:       owner,
	}
	if _, err := newCobraCommand(command); err != nil {
		return nil, err
	}

	if err := r.commands.Add(name, command); err != nil {
		var exists registry.ErrExists
		if errors.As(err, &exists) {
			return nil, ErrCommandExists{Name: name, Owner: exists.Owner}
		}
		return nil, err
	}

	r.log.Debug(fmt.Sprintf("command registered: %s", name))
	return command, nil
}

// Unregister removes a command. Unknown names are only logged.
func (r *Registry) Unregister(name string) {
	if _, ok := r.commands.Remove(name); !ok {
		r.log.Warn(fmt.Sprintf("can not unregister command %s", name))
		return
	}
	r.log.Debug(fmt.Sprintf("command %s got unregistered", name))
}

// Get returns a command, restricted to owner when owner is non-nil.
func (r *Registry) Get(name string, owner registry.Owner) (*Command, bool) {
	return r.commands.Get(name, owner)
}

// List returns all commands, or those of owner when owner is non-nil.
func (r *Registry) List(owner registry.Owner) map[string]*Command {
	return r.commands.List(owner)
}

// Names returns the sorted command names of owner (all when nil).
func (r *Registry) Names(owner registry.Owner) []string {
	return r.commands.Names(owner)
}

// SetOutput redirects command output and errors.
func (r *Registry) SetOutput(out, errOut io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = out
	r.errOut = errOut
}

// Globals declares flags accepted by every command. Their values are read
// by whoever assembled the application, before Start.
func (r *Registry) Globals(params ...Param) error {
	positional, err := bindParams(pflag.NewFlagSet(r.use, pflag.ContinueOnError), params)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("global parameter %s must be a flag", positional[0].Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals = append(r.globals, params...)
	return nil
}

// Start parses args and runs the matching command.
func (r *Registry) Start(ctx context.Context, args []string) error {
	root, err := r.root()
	if err != nil {
		return err
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (r *Registry) root() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           r.use,
		Short:         r.short,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	r.mu.Lock()
	globals := r.globals
	if r.out != nil {
		root.SetOut(r.out)
	}
	if r.errOut != nil {
		root.SetErr(r.errOut)
	}
	r.mu.Unlock()

	if _, err := bindParams(root.PersistentFlags(), globals); err != nil {
		return nil, err
	}

	for _, command := range r.commands.List(nil) {
		cmd, err := newCobraCommand(command)
		if err != nil {
			return nil, err
		}
		root.AddCommand(cmd)
	}
	return root, nil
}

func newCobraCommand(command *Command) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   usage(command),
		Short: command.Description,
	}

	positional, err := bindParams(cmd.Flags(), command.Params)
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", command.Name, err)
	}
	cmd.Args = positionalArgs(positional)

	cmd.RunE = func(c *cobra.Command, args []string) error {
		inv := newInvocation(command, c, positional, args)
		if err := command.Function(c.Context(), inv); err != nil {
			return gwerrors.NewCommandError(command.Name, err)
		}
		return nil
	}
	return cmd, nil
}
