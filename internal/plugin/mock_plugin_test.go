package plugin

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
)

type testHost struct {
	mu       sync.Mutex
	strict   bool
	bus      *signals.Bus
	manager  *Manager
	attached map[any]any
}

func newTestHost(t *testing.T, strict bool) *testHost {
	t.Helper()
	host := &testHost{strict: strict, bus: signals.NewBus(nil), attached: make(map[any]any)}
	host.manager = NewManager(host)
	for _, name := range []string{
		signals.PluginActivatePre,
		signals.PluginActivatePost,
		signals.PluginDeactivatePre,
		signals.PluginDeactivatePost,
	} {
		_, err := host.bus.Register(name, host, "")
		require.NoError(t, err)
	}
	return host
}

func (h *testHost) Name() string           { return "test app" }
func (h *testHost) Path() string           { return "" }
func (h *testHost) Strict() bool           { return h.strict }
func (h *testHost) Logger() *logger.Logger { return logger.Nop() }
func (h *testHost) Signals() *signals.Bus  { return h.bus }
func (h *testHost) Plugins() *Manager      { return h.manager }
func (h *testHost) Attach(key any, create func() any) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if value, ok := h.attached[key]; ok {
		return value
	}
	value := create()
	h.attached[key] = value
	return value
}

// recorder collects lifecycle events across plugins of one test.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type mockPlugin struct {
	Base
	rec           *recorder
	activateErr   error
	deactivateErr error
	panicOnStart  bool
}

func (p *mockPlugin) OnActivate() error {
	if p.panicOnStart {
		panic("boom")
	}
	if p.rec != nil {
		p.rec.add("activate:" + p.Name())
	}
	return p.activateErr
}

func (p *mockPlugin) OnDeactivate() error {
	if p.rec != nil {
		p.rec.add("deactivate:" + p.Name())
	}
	return p.deactivateErr
}

// mockClass returns a class whose instances need the given plugins.
func mockClass(name string, rec *recorder, needs ...string) Class {
	return Class{
		Name: name,
		New: func(host Host, instance string) (Plugin, error) {
			p := &mockPlugin{rec: rec}
			if err := p.Init(host, instance, p); err != nil {
				return nil, err
			}
			p.Needs(needs...)
			return p, nil
		},
	}
}

func failingClass(name string, err error) Class {
	return Class{
		Name: name,
		New: func(host Host, instance string) (Plugin, error) {
			p := &mockPlugin{activateErr: err}
			return p, p.Init(host, instance, p)
		},
	}
}

// uninitialisedPlugin forgets to call Base.Init.
type uninitialisedPlugin struct {
	Base
}

var errBoom = errors.New("boom")
