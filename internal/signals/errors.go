package signals

import "fmt"

// ErrUnknownSignal is returned when sending on a name that was never registered.
type ErrUnknownSignal struct {
	Name string
}

func (e ErrUnknownSignal) Error() string {
	return fmt.Sprintf("unknown signal '%s'\nHint: register the signal before sending it", e.Name)
}

// ErrSignalExists is returned when a signal name is registered twice.
type ErrSignalExists struct {
	Name  string
	Owner string
}

func (e ErrSignalExists) Error() string {
	return fmt.Sprintf("signal '%s' was already registered by %s", e.Name, e.Owner)
}

// ErrReceiverExists is returned when a receiver name is connected twice.
type ErrReceiverExists struct {
	Name  string
	Owner string
}

func (e ErrReceiverExists) Error() string {
	return fmt.Sprintf("receiver '%s' was already registered by %s", e.Name, e.Owner)
}

// ErrUnknownReceiver is returned when disconnecting a receiver that does not exist.
type ErrUnknownReceiver struct {
	Name string
}

func (e ErrUnknownReceiver) Error() string {
	return fmt.Sprintf("no receiver '%s' was registered", e.Name)
}

// ReceiverError wraps a failure returned by a receiver function during Send.
type ReceiverError struct {
	Signal   string
	Receiver string
	Err      error
}

func (e *ReceiverError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("receiver '%s' failed handling signal '%s': %v", e.Receiver, e.Signal, e.Err)
}

// Unwrap exposes the receiver's error.
func (e *ReceiverError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
