package signals

import (
	"errors"
	"fmt"
)

// Handle gives a plugin access to the bus in its own context: everything it
// registers is owned by the plugin and lookups only see the plugin's entries.
type Handle struct {
	bus   *Bus
	owner Owner
}

// NewHandle binds a handle to owner.
func NewHandle(bus *Bus, owner Owner) *Handle {
	return &Handle{bus: bus, owner: owner}
}

// Bus returns the application bus behind the handle.
func (h *Handle) Bus() *Bus {
	return h.bus
}

// Register creates a signal owned by the plugin.
func (h *Handle) Register(name, description string) (*Signal, error) {
	return h.bus.Register(name, h.owner, description)
}

// Unregister removes a signal.
func (h *Handle) Unregister(name string) {
	h.bus.Unregister(name)
}

// Connect subscribes fn to signal on behalf of the plugin.
func (h *Handle) Connect(receiver, signal string, fn Func, description string, sender Owner) (*Receiver, error) {
	return h.bus.Connect(receiver, signal, fn, h.owner, description, sender)
}

// Disconnect removes a receiver. The receiver must exist.
func (h *Handle) Disconnect(receiver string) error {
	return h.bus.Disconnect(receiver)
}

// Send emits signal with the plugin as sender.
func (h *Handle) Send(signal string, payload Payload) ([]Result, error) {
	return h.bus.Send(signal, h.owner, payload)
}

// Get returns a signal registered by the plugin.
func (h *Handle) Get(name string) (*Signal, bool) {
	return h.bus.Get(name, h.owner)
}

// Signals returns the signals registered by the plugin.
func (h *Handle) Signals() map[string]*Signal {
	return h.bus.Signals(h.owner)
}

// GetReceiver returns a receiver connected by the plugin.
func (h *Handle) GetReceiver(name string) (*Receiver, bool) {
	return h.bus.GetReceiver(name, h.owner)
}

// Receivers returns the receivers connected by the plugin.
func (h *Handle) Receivers() map[string]*Receiver {
	return h.bus.Receivers(h.owner)
}

// Teardown disconnects every receiver and unregisters every signal the
// plugin owns.
func (h *Handle) Teardown() error {
	var errs []error
	for _, name := range h.bus.ReceiverNames(h.owner) {
		if err := h.bus.Disconnect(name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range h.bus.SignalNames(h.owner) {
		h.bus.Unregister(name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("teardown signals of %s: %w", h.owner.Name(), errors.Join(errs...))
	}
	return nil
}
