package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
)

const traceLimit = 256

// LifecycleEvent is one observed plugin lifecycle signal.
type LifecycleEvent struct {
	Signal string
	Plugin string
	At     time.Time
}

// Tracer logs plugin lifecycle signals and keeps the most recent ones.
type Tracer struct {
	log *logger.Logger

	mu     sync.RWMutex
	events []LifecycleEvent
}

// NewTracer creates a tracer writing to log.
func NewTracer(log *logger.Logger) *Tracer {
	return &Tracer{log: log}
}

// Connect subscribes the tracer to the lifecycle signals on bus.
func (t *Tracer) Connect(bus *signals.Bus, owner signals.Owner) error {
	for _, signal := range lifecycleSignals {
		name := fmt.Sprintf("groundwork_trace_%s", signal.name)
		if _, err := bus.Connect(name, signal.name, t.record(signal.name), owner, "Logs "+signal.name, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracer) record(signal string) signals.Func {
	return func(sender signals.Owner, _ signals.Payload) (any, error) {
		event := LifecycleEvent{Signal: signal, At: time.Now()}
		if sender != nil {
			event.Plugin = sender.Name()
		}

		t.mu.Lock()
		t.events = append(t.events, event)
		if len(t.events) > traceLimit {
			t.events = t.events[len(t.events)-traceLimit:]
		}
		t.mu.Unlock()

		t.log.WithFields(map[string]any{
			"event_type": signal,
			"plugin":     event.Plugin,
		}).Debug("plugin lifecycle event")
		return nil, nil
	}
}

// Events returns the recorded events, oldest first. A non-empty plugin
// restricts the result to that plugin.
func (t *Tracer) Events(plugin string) []LifecycleEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()

	events := make([]LifecycleEvent, 0, len(t.events))
	for _, event := range t.events {
		if plugin != "" && event.Plugin != plugin {
			continue
		}
		events = append(events, event)
	}
	return events
}
