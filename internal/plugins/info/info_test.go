package info_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/groundwork/internal/app"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
	"github.com/alexisbeaulieu97/groundwork/internal/plugins/info"
)

func newInfoApp(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(app.Options{
		Classes:   info.Classes(),
		Policy:    plugin.PolicyStrict,
		LogWriter: &bytes.Buffer{},
	})
	require.NoError(t, err)
	require.NoError(t, a.Activate(
		info.PluginsInfoClass,
		info.SignalsInfoClass,
		info.CommandsInfoClass,
		info.DocumentsInfoClass,
	))
	return a
}

func runCommand(t *testing.T, a *app.App, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	a.Commands().SetOutput(&out, &out)
	require.NoError(t, a.Commands().Start(context.Background(), args))
	return out.String()
}

func TestPluginList(t *testing.T) {
	a := newInfoApp(t)

	out := runCommand(t, a, "plugin_list")
	require.Contains(t, out, "Plugins of NoName App")
	require.Regexp(t, `gw_plugins_info\s+gw_plugins_info\s+active\s+built in`, out)

	var payload struct {
		Plugins []info.PluginView `json:"plugins"`
		Classes []info.ClassView  `json:"classes"`
	}
	require.NoError(t, json.Unmarshal([]byte(runCommand(t, a, "plugin_list", "--json")), &payload))
	require.Len(t, payload.Plugins, 4)
	require.Len(t, payload.Classes, 4)
	require.Equal(t, "active", payload.Plugins[0].State)
}

func TestSignalAndReceiverLists(t *testing.T) {
	a := newInfoApp(t)

	signals := runCommand(t, a, "signal_list")
	require.Contains(t, signals, "plugin_activate_pre")
	require.Contains(t, signals, "NoName App")

	receivers := runCommand(t, a, "receiver_list")
	require.Contains(t, receivers, "gw_commands_info_command_deactivation")
	require.Contains(t, receivers, "groundwork_trace_plugin_deactivate_post")
}

func TestCommandList(t *testing.T) {
	a := newInfoApp(t)

	var listed []info.CommandView
	require.NoError(t, json.Unmarshal([]byte(runCommand(t, a, "command_list", "--json")), &listed))

	names := make([]string, 0, len(listed))
	for _, command := range listed {
		names = append(names, command.Name)
	}
	require.Equal(t, []string{"command_list", "doc", "doc_list", "plugin_list", "receiver_list", "signal_list"}, names)
}

func TestDocumentViewer(t *testing.T) {
	a := newInfoApp(t)

	list := runCommand(t, a, "doc_list")
	for _, name := range []string{"plugins_overview", "plugins_classes", "signals_overview", "receivers_overview", "commands_overview", "documents_overview"} {
		require.Contains(t, list, name)
	}

	overview := runCommand(t, a, "doc", "plugins_overview")
	require.Contains(t, overview, "Registered plugins: 4")
	require.Contains(t, overview, "gw_documents_info\n-----------------\nClass: gw_documents_info\nState: active")
	require.Contains(t, overview, "registered by 'gw_plugins_info' under the name 'plugins_overview'")

	_, err := a.Documents().Register("main", "Welcome to {{ .App }}", a, "Start page")
	require.NoError(t, err)
	all := runCommand(t, a, "doc")
	require.Regexp(t, `^Welcome to NoName App\n`, all)
	require.Contains(t, all, "Receivers overview")
	require.Equal(t, all, runCommand(t, a, "doc", "-i"), "no pager without a terminal")

	a.Commands().SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, a.Commands().Start(context.Background(), []string{"doc", "ghost"}))
}

func TestDeactivationRemovesInfoSurfaces(t *testing.T) {
	a := newInfoApp(t)

	require.NoError(t, a.Deactivate(info.DocumentsInfoClass))
	_, ok := a.Commands().Get("doc", nil)
	require.False(t, ok)
	_, ok = a.Documents().Get("documents_overview", nil)
	require.False(t, ok)
	_, ok = a.Commands().Get("plugin_list", nil)
	require.True(t, ok)
}
