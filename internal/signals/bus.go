package signals

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
)

// Lifecycle signals registered by every application.
const (
	PluginActivatePre    = "plugin_activate_pre"
	PluginActivatePost   = "plugin_activate_post"
	PluginDeactivatePre  = "plugin_deactivate_pre"
	PluginDeactivatePost = "plugin_deactivate_post"
)

// Bus keeps the signals and receivers of one application.
type Bus struct {
	namespace *Namespace
	signals   *registry.Store[*Signal]
	receivers *registry.Store[*Receiver]
	log       *logger.Logger
}

// NewBus creates a bus with its own namespace.
func NewBus(log *logger.Logger) *Bus {
	bus := &Bus{
		namespace: NewNamespace(),
		signals:   registry.NewStore[*Signal]("signal"),
		receivers: registry.NewStore[*Receiver]("receiver"),
		log:       log,
	}
	bus.log.Debug(fmt.Sprintf("signal namespace %s initialised", bus.namespace.ID()))
	return bus
}

// Namespace returns the namespace all signals of this bus are bound to.
func (b *Bus) Namespace() *Namespace {
	return b.namespace
}

// Register creates a new signal. Signal names are unique within the bus,
// regardless of owner.
func (b *Bus) Register(name string, owner Owner, description string) (*Signal, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("signal name must not be empty")
	}
	if owner == nil {
		return nil, fmt.Errorf("signal '%s' requires an owner", name)
	}

	signal := &Signal{Name: name, Description: description, owner: owner, namespace: b.namespace}
	if err := b.signals.Add(name, signal); err != nil {
		var exists registry.ErrExists
		if errors.As(err, &exists) {
			return nil, ErrSignalExists{Name: name, Owner: exists.Owner}
		}
		return nil, err
	}

	b.log.Debug(fmt.Sprintf("signal %s registered by %s", name, owner.Name()))
	return signal, nil
}

// Unregister removes a signal. Unknown names are only logged.
func (b *Bus) Unregister(name string) {
	if _, ok := b.signals.Remove(name); !ok {
		b.log.Debug(fmt.Sprintf("signal %s does not exist and could not be unregistered", name))
		return
	}
	b.log.Debug(fmt.Sprintf("signal %s unregistered", name))
}

// Connect subscribes fn to the signal name. The signal does not need to be
// registered yet. A non-nil sender restricts delivery to sends from it.
func (b *Bus) Connect(name, signal string, fn Func, owner Owner, description string, sender Owner) (*Receiver, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("receiver name must not be empty")
	}
	if strings.TrimSpace(signal) == "" {
		return nil, fmt.Errorf("receiver '%s' requires a signal name", name)
	}
	if fn == nil {
		return nil, fmt.Errorf("receiver '%s' for signal '%s' has no function", name, signal)
	}
	if owner == nil {
		return nil, fmt.Errorf("receiver '%s' requires an owner", name)
	}

	receiver := &Receiver{
		Name:        name,
		Signal:      signal,
		Function:    fn,
		Description: description,
		Sender:      sender,
		owner:       owner,
		namespace:   b.namespace,
	}
	if err := b.receivers.Add(name, receiver); err != nil {
		var exists registry.ErrExists
		if errors.As(err, &exists) {
			return nil, ErrReceiverExists{Name: name, Owner: exists.Owner}
		}
		return nil, err
	}
	receiver.namespace.connect(receiver)

	b.log.Debug(fmt.Sprintf("receiver %s connected to signal %s", name, signal))
	return receiver, nil
}

// Disconnect removes a receiver. Unlike Unregister, an unknown name is an error.
func (b *Bus) Disconnect(name string) error {
	receiver, ok := b.receivers.Remove(name)
	if !ok {
		return ErrUnknownReceiver{Name: name}
	}
	receiver.namespace.disconnect(receiver)
	b.log.Debug(fmt.Sprintf("receiver %s disconnected", name))
	return nil
}

// Send delivers the signal synchronously to every connected receiver and
// returns their results. Delivery order is not guaranteed.
func (b *Bus) Send(name string, sender Owner, payload Payload) ([]Result, error) {
	signal, ok := b.signals.Get(name, nil)
	if !ok {
		return nil, ErrUnknownSignal{Name: name}
	}
	if payload == nil {
		payload = Payload{}
	}
	b.log.Debug(fmt.Sprintf("sending signal %s for %s", name, ownerName(sender)))
	return signal.send(sender, payload)
}

// Broadcast is Send for teardown signals: a failing receiver does not stop
// delivery to the others. Receiver failures are returned joined.
func (b *Bus) Broadcast(name string, sender Owner, payload Payload) ([]Result, error) {
	signal, ok := b.signals.Get(name, nil)
	if !ok {
		return nil, ErrUnknownSignal{Name: name}
	}
	if payload == nil {
		payload = Payload{}
	}
	b.log.Debug(fmt.Sprintf("broadcasting signal %s for %s", name, ownerName(sender)))
	return signal.namespace.deliverAll(signal.Name, sender, payload)
}

// Get returns a signal, restricted to owner when owner is non-nil.
func (b *Bus) Get(name string, owner Owner) (*Signal, bool) {
	return b.signals.Get(name, owner)
}

// Signals returns all signals, or those of owner when owner is non-nil.
func (b *Bus) Signals(owner Owner) map[string]*Signal {
	return b.signals.List(owner)
}

// SignalNames returns the sorted signal names of owner (all when nil).
func (b *Bus) SignalNames(owner Owner) []string {
	return b.signals.Names(owner)
}

// GetReceiver returns a receiver, restricted to owner when owner is non-nil.
func (b *Bus) GetReceiver(name string, owner Owner) (*Receiver, bool) {
	return b.receivers.Get(name, owner)
}

// Receivers returns all receivers, or those of owner when owner is non-nil.
func (b *Bus) Receivers(owner Owner) map[string]*Receiver {
	return b.receivers.List(owner)
}

// ReceiverNames returns the sorted receiver names of owner (all when nil).
func (b *Bus) ReceiverNames(owner Owner) []string {
	return b.receivers.Names(owner)
}

func ownerName(owner Owner) string {
	if owner == nil {
		return "<none>"
	}
	return owner.Name()
}
