package sharedobjects_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin/plugintest"
	"github.com/alexisbeaulieu97/groundwork/internal/sharedobjects"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
)

type counter struct{ hits int }

func TestAccessAcrossPlugins(t *testing.T) {
	host := plugintest.NewHost(t)
	publisher := plugintest.NewPlugin(t, host, "publisher", nil)
	consumer := plugintest.NewPlugin(t, host, "consumer", nil)

	shared := &counter{}
	_, err := sharedobjects.Of(&publisher.Base).Register("hits", "request counter", shared)
	require.NoError(t, err)

	obj, err := sharedobjects.Of(&consumer.Base).Access("hits")
	require.NoError(t, err)
	require.Same(t, shared, obj)

	typed, err := sharedobjects.AccessAs[*counter](sharedobjects.For(host), "hits")
	require.NoError(t, err)
	typed.hits++
	require.Equal(t, 1, shared.hits)

	_, err = sharedobjects.AccessAs[string](sharedobjects.For(host), "hits")
	require.Error(t, err)

	_, ok := sharedobjects.Of(&consumer.Base).Get("hits")
	require.False(t, ok)
	require.Empty(t, sharedobjects.Of(&consumer.Base).List())
}

func TestAccessUnknownObject(t *testing.T) {
	host := plugintest.NewHost(t)

	_, err := sharedobjects.For(host).Access("ghost")
	var missing sharedobjects.ErrNotRegistered
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "ghost", missing.Name)
}

func TestRegisterDuplicateObject(t *testing.T) {
	host := plugintest.NewHost(t)
	alpha := plugintest.NewPlugin(t, host, "alpha", nil)
	beta := plugintest.NewPlugin(t, host, "beta", nil)

	_, err := sharedobjects.Of(&alpha.Base).Register("cfg", "", 1)
	require.NoError(t, err)
	_, err = sharedobjects.Of(&beta.Base).Register("cfg", "", 2)
	require.ErrorAs(t, err, new(sharedobjects.ErrObjectExists))

	value, err := sharedobjects.For(host).Access("cfg")
	require.NoError(t, err)
	require.Equal(t, 1, value)
}

func TestDeactivationRemovesSharedObjects(t *testing.T) {
	host := plugintest.NewHost(t)
	publisher := plugintest.NewPlugin(t, host, "publisher", func(p *plugintest.Plugin) error {
		_, err := sharedobjects.Of(&p.Base).Register("token", "", "secret")
		return err
	})

	require.NoError(t, host.Plugins().Activate("publisher"))
	require.Equal(t, []string{"token"}, sharedobjects.For(host).Names(nil))

	require.NoError(t, host.Plugins().Deactivate("publisher"))
	_, err := sharedobjects.For(host).Access("token")
	require.Error(t, err)
	require.Empty(t, sharedobjects.Of(&publisher.Base).List())
}

func TestSharedObjectsRemovedWhenAnotherReceiverFails(t *testing.T) {
	host := plugintest.NewHost(t)
	watcher := plugintest.NewPlugin(t, host, "watcher", nil)
	_, err := watcher.Signals().Connect("watch_shutdown", signals.PluginDeactivatePost, func(signals.Owner, signals.Payload) (any, error) {
		return nil, errors.New("watcher down")
	}, "", nil)
	require.NoError(t, err)

	plugintest.NewPlugin(t, host, "publisher", func(p *plugintest.Plugin) error {
		_, err := sharedobjects.Of(&p.Base).Register("token", "", "secret")
		return err
	})
	require.NoError(t, host.Plugins().Activate("publisher"))

	require.ErrorContains(t, host.Plugins().Deactivate("publisher"), "watcher down")
	require.Empty(t, sharedobjects.For(host).Names(nil))
	require.NoError(t, host.Plugins().Activate("publisher"))
	require.Equal(t, []string{"token"}, sharedobjects.For(host).Names(nil))
}
