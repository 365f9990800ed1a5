package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin/plugintest"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

func run(t *testing.T, reg *commands.Registry, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	reg.SetOutput(&out, &out)
	err := reg.Start(context.Background(), args)
	return out.String(), err
}

func TestPluginCommandLifecycle(t *testing.T) {
	host := plugintest.NewHost(t)
	p := plugintest.NewPlugin(t, host, "pinger", func(p *plugintest.Plugin) error {
		if _, err := p.Signals().Register("ping", "sent by ping_cmd"); err != nil {
			return err
		}
		_, err := commands.Of(&p.Base).Register("ping_cmd", "Sends a ping", func(ctx context.Context, inv *commands.Invocation) error {
			results, err := p.Signals().Send("ping", signals.Payload{"times": inv.Int("times")})
			if err != nil {
				return err
			}
			fmt.Fprintf(inv.Out(), "ping delivered to %d receivers", len(results))
			return nil
		}, commands.Param{Name: "times", Kind: commands.FlagInt, Default: 1, Usage: "number of pings"})
		return err
	})
	listener := plugintest.NewPlugin(t, host, "listener", nil)
	_, err := listener.Signals().Connect("ping_listener", "ping", func(signals.Owner, signals.Payload) (any, error) {
		return "pong", nil
	}, "", nil)
	require.NoError(t, err)

	require.NoError(t, host.Plugins().Activate("pinger"))
	registry := commands.For(host)

	out, err := run(t, registry, "ping_cmd", "--times", "3")
	require.NoError(t, err)
	require.Equal(t, "ping delivered to 1 receivers", out)

	cmd, ok := commands.Of(&p.Base).Get("ping_cmd")
	require.True(t, ok)
	require.Same(t, p, cmd.Owner())
	_, ok = host.Signals().GetReceiver("pinger_command_deactivation", nil)
	require.True(t, ok)

	require.NoError(t, host.Plugins().Deactivate("pinger"))
	require.Empty(t, registry.List(nil))
	_, ok = host.Signals().Get("ping", nil)
	require.False(t, ok)
	_, err = run(t, registry, "ping_cmd")
	require.Error(t, err)

	// reactivation reconnects the cleanup receiver
	require.NoError(t, host.Plugins().Activate("pinger"))
	require.Len(t, registry.List(nil), 1)
	require.NoError(t, host.Plugins().Deactivate("pinger"))
	require.Empty(t, registry.List(nil))
}

func TestFailingDeactivationReceiverDoesNotBlockCleanup(t *testing.T) {
	host := plugintest.NewHost(t)
	auditor := plugintest.NewPlugin(t, host, "auditor", nil)
	_, err := auditor.Signals().Connect("audit", signals.PluginDeactivatePost, func(signals.Owner, signals.Payload) (any, error) {
		return nil, errors.New("audit log unavailable")
	}, "", nil)
	require.NoError(t, err)

	noop := func(context.Context, *commands.Invocation) error { return nil }
	plugintest.NewPlugin(t, host, "pinger", func(p *plugintest.Plugin) error {
		_, err := commands.Of(&p.Base).Register("ping_cmd", "", noop)
		return err
	})
	require.NoError(t, host.Plugins().Activate("pinger"))

	err = host.Plugins().Deactivate("pinger")
	require.ErrorContains(t, err, "audit log unavailable")
	active, _ := host.Plugins().IsActive("pinger")
	require.False(t, active)
	require.Empty(t, commands.For(host).List(nil))

	require.NoError(t, host.Plugins().Activate("pinger"))
	require.Len(t, commands.For(host).List(nil), 1)
}

func TestFailedActivationReleasesRegistrations(t *testing.T) {
	host := plugintest.NewHost(t)
	noop := func(context.Context, *commands.Invocation) error { return nil }
	attempts := 0
	plugintest.NewPlugin(t, host, "flaky", func(p *plugintest.Plugin) error {
		attempts++
		if _, err := p.Signals().Register("flaky_ready", ""); err != nil {
			return err
		}
		if _, err := commands.Of(&p.Base).Register("flaky_cmd", "", noop); err != nil {
			return err
		}
		if attempts == 1 {
			return errors.New("not ready yet")
		}
		return nil
	})

	require.Error(t, host.Plugins().Activate("flaky"))
	require.Empty(t, commands.For(host).List(nil))
	_, ok := host.Signals().Get("flaky_ready", nil)
	require.False(t, ok)

	require.NoError(t, host.Plugins().Activate("flaky"))
	active, _ := host.Plugins().IsActive("flaky")
	require.True(t, active)
	_, ok = commands.For(host).Get("flaky_cmd", nil)
	require.True(t, ok)
}

func TestRegisterRejectsDuplicateCommand(t *testing.T) {
	host := plugintest.NewHost(t)
	alpha := plugintest.NewPlugin(t, host, "alpha", nil)
	beta := plugintest.NewPlugin(t, host, "beta", nil)
	noop := func(context.Context, *commands.Invocation) error { return nil }

	_, err := commands.Of(&alpha.Base).Register("shared", "", noop)
	require.NoError(t, err)
	_, err = commands.Of(&beta.Base).Register("shared", "", noop)
	var exists commands.ErrCommandExists
	require.ErrorAs(t, err, &exists)
	require.Equal(t, "alpha", exists.Owner)

	_, ok := commands.Of(&beta.Base).Get("shared")
	require.False(t, ok)
	require.Len(t, commands.Of(&alpha.Base).List(), 1)
}

func TestParamsMapToFlagsAndArguments(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "owner", nil)

	var got []any
	_, err := commands.Of(&owner.Base).Register("greet", "Greets someone", func(_ context.Context, inv *commands.Invocation) error {
		got = []any{inv.Arg("name"), inv.Arg("title"), inv.String("greeting"), inv.Bool("shout"), inv.Changed("greeting")}
		return nil
	},
		commands.Param{Name: "name", Kind: commands.Argument, Required: true},
		commands.Param{Name: "title", Kind: commands.Argument, Default: "friend"},
		commands.Param{Name: "greeting", Shorthand: "g", Kind: commands.FlagString, Default: "hello"},
		commands.Param{Name: "shout", Kind: commands.FlagBool},
	)
	require.NoError(t, err)
	registry := commands.For(host)

	_, err = run(t, registry, "greet", "ada", "-g", "hi", "--shout")
	require.NoError(t, err)
	require.Equal(t, []any{"ada", "friend", "hi", true, true}, got)

	_, err = run(t, registry, "greet")
	require.Error(t, err, "missing required argument")

	_, err = run(t, registry, "greet", "a", "b", "c")
	require.Error(t, err, "too many arguments")
}

func TestRegisterRejectsInvalidParams(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "owner", nil)
	noop := func(context.Context, *commands.Invocation) error { return nil }

	_, err := commands.Of(&owner.Base).Register("bad_default", "", noop, commands.Param{Name: "n", Kind: commands.FlagInt, Default: "ten"})
	require.Error(t, err)
	_, err = commands.Of(&owner.Base).Register("nameless", "", noop, commands.Param{Kind: commands.FlagBool})
	require.Error(t, err)
	_, err = commands.Of(&owner.Base).Register("no_function", "", nil)
	require.Error(t, err)
	require.Empty(t, commands.For(host).List(nil))
}

func TestCommandFailureIsWrapped(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "owner", nil)
	boom := errors.New("boom")

	_, err := commands.Of(&owner.Base).Register("explode", "", func(context.Context, *commands.Invocation) error { return boom })
	require.NoError(t, err)

	_, err = run(t, commands.For(host), "explode")
	var commandErr *gwerrors.CommandError
	require.ErrorAs(t, err, &commandErr)
	require.Equal(t, "explode", commandErr.Command)
	require.ErrorIs(t, err, boom)
}

func TestUnregisterUnknownCommandIsLenient(t *testing.T) {
	host := plugintest.NewHost(t)
	require.NotPanics(t, func() { commands.For(host).Unregister("ghost") })
}

func TestFlagsResetBetweenRuns(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "owner", nil)

	var seen [][]string
	_, err := commands.Of(&owner.Base).Register("tag", "", func(_ context.Context, inv *commands.Invocation) error {
		seen = append(seen, inv.Strings("label"))
		return nil
	}, commands.Param{Name: "label", Kind: commands.FlagStrings})
	require.NoError(t, err)
	registry := commands.For(host)

	_, err = run(t, registry, "tag", "--label", "a", "--label", "b")
	require.NoError(t, err)
	_, err = run(t, registry, "tag")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a", "b"}, {}}, seen)
}

func TestGlobalFlagsAreAccepted(t *testing.T) {
	host := plugintest.NewHost(t)
	owner := plugintest.NewPlugin(t, host, "owner", nil)
	registry := commands.For(host)

	require.NoError(t, registry.Globals(commands.Param{Name: "verbose", Shorthand: "v", Kind: commands.FlagBool}))
	require.Error(t, registry.Globals(commands.Param{Name: "file", Kind: commands.Argument}))

	var verbose bool
	_, err := commands.Of(&owner.Base).Register("status", "", func(_ context.Context, inv *commands.Invocation) error {
		verbose = inv.Bool("verbose")
		return nil
	})
	require.NoError(t, err)

	_, err = run(t, registry, "-v", "status")
	require.NoError(t, err)
	require.True(t, verbose)
}
