package signals

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/groundwork/internal/registry"
)

// Owner registers signals and receivers and is the sender of a signal.
type Owner = registry.Owner

// Payload carries the keyword data of a send.
type Payload map[string]any

// Func is the function a receiver runs when its signal is sent. sender is
// the originating plugin (or the application for lifecycle signals).
type Func func(sender Owner, payload Payload) (any, error)

// Result pairs a receiver with the value its function returned.
type Result struct {
	Receiver *Receiver
	Value    any
}

// Namespace is the delivery table of one bus. Signals and receivers are bound
// to the namespace they were created with, so two applications never see each
// other's traffic even when their signal names collide.
type Namespace struct {
	id       string
	mu       sync.RWMutex
	channels map[string][]*Receiver
}

// NewNamespace creates an empty, uniquely identified namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		id:       uuid.NewString(),
		channels: make(map[string][]*Receiver),
	}
}

// ID returns the namespace identity.
func (n *Namespace) ID() string {
	return n.id
}

func (n *Namespace) connect(r *Receiver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels[r.Signal] = append(n.channels[r.Signal], r)
}

func (n *Namespace) disconnect(r *Receiver) {
	n.mu.Lock()
	defer n.mu.Unlock()

	connected := n.channels[r.Signal]
	for i, candidate := range connected {
		if candidate == r {
			n.channels[r.Signal] = append(connected[:i:i], connected[i+1:]...)
			break
		}
	}
	if len(n.channels[r.Signal]) == 0 {
		delete(n.channels, r.Signal)
	}
}

// deliver runs every receiver connected to signal whose sender filter
// matches. Receivers run outside the lock so they may use the bus.
func (n *Namespace) deliver(signal string, sender Owner, payload Payload) ([]Result, error) {
	n.mu.RLock()
	targets := append([]*Receiver(nil), n.channels[signal]...)
	n.mu.RUnlock()

	results := make([]Result, 0, len(targets))
	for _, receiver := range targets {
		if receiver.Sender != nil && receiver.Sender != sender {
			continue
		}
		value, err := receiver.Function(sender, payload)
		if err != nil {
			return results, &ReceiverError{Signal: signal, Receiver: receiver.Name, Err: err}
		}
		results = append(results, Result{Receiver: receiver, Value: value})
	}
	return results, nil
}

// deliverAll is deliver without the early return: every matching receiver
// runs and the failures are joined.
func (n *Namespace) deliverAll(signal string, sender Owner, payload Payload) ([]Result, error) {
	n.mu.RLock()
	targets := append([]*Receiver(nil), n.channels[signal]...)
	n.mu.RUnlock()

	results := make([]Result, 0, len(targets))
	var errs []error
	for _, receiver := range targets {
		if receiver.Sender != nil && receiver.Sender != sender {
			continue
		}
		value, err := receiver.Function(sender, payload)
		if err != nil {
			errs = append(errs, &ReceiverError{Signal: signal, Receiver: receiver.Name, Err: err})
			continue
		}
		results = append(results, Result{Receiver: receiver, Value: value})
	}
	return results, errors.Join(errs...)
}

// Signal is a named broadcast channel registered by one owner.
type Signal struct {
	Name        string
	Description string
	owner       Owner
	namespace   *Namespace
}

// Owner returns the plugin (or application) that registered the signal.
func (s *Signal) Owner() Owner {
	return s.owner
}

func (s *Signal) send(sender Owner, payload Payload) ([]Result, error) {
	return s.namespace.deliver(s.Name, sender, payload)
}

// Receiver is a named subscription of a function to a signal name.
type Receiver struct {
	Name        string
	Signal      string
	Function    Func
	Description string
	// Sender restricts delivery to sends originating from this owner.
	Sender    Owner
	owner     Owner
	namespace *Namespace
}

// Owner returns the plugin that connected the receiver.
func (r *Receiver) Owner() Owner {
	return r.owner
}
