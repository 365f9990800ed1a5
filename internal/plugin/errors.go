package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument reports a programmer error in the arguments of a public
// call, such as an empty plugin name. It is fatal regardless of policy.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrPluginNotFound is returned when neither an instance nor a class is known under a name.
type ErrPluginNotFound struct {
	Name string
}

func (e ErrPluginNotFound) Error() string {
	return fmt.Sprintf("plugin '%s' not found\nHint: register the plugin class before activating it", e.Name)
}

// ErrCircularDependency is returned by the dependency graph when a cycle exists.
type ErrCircularDependency struct {
	Cycle []string
}

func (e ErrCircularDependency) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected\nHint: review needed plugins to remove cycles"
	}

	sequence := append(append([]string{}, e.Cycle...), e.Cycle[0])
	return fmt.Sprintf(
		"circular dependency detected: %s\nHint: break the cycle by removing one of the needed plugins",
		strings.Join(sequence, " -> "),
	)
}

// ErrDependencyLoop is raised in strict mode when activation re-enters a
// plugin that is still resolving its needed plugins.
type ErrDependencyLoop struct {
	Plugin string
	Chain  []string
}

func (e ErrDependencyLoop) Error() string {
	chain := append(append([]string{}, e.Chain...), e.Plugin)
	return fmt.Sprintf("dependency loop detected while activating '%s': %s", e.Plugin, strings.Join(chain, " -> "))
}

// ErrMissingDependency is returned when a needed plugin has neither an instance nor a class.
type ErrMissingDependency struct {
	Plugin     string
	Dependency string
}

func (e ErrMissingDependency) Error() string {
	return fmt.Sprintf(
		"plugin '%s' needs plugin '%s' which is not registered\nHint: register the needed plugin class before activation",
		e.Plugin,
		e.Dependency,
	)
}

// ErrAttributeMissing is returned when a plugin is initialised without a required attribute.
type ErrAttributeMissing struct {
	Attribute string
}

func (e ErrAttributeMissing) Error() string {
	return fmt.Sprintf("%s attribute not set for plugin, initialisation stops here", e.Attribute)
}

// ErrBaseNotInitialised is returned when a constructed plugin never ran Base.Init.
type ErrBaseNotInitialised struct {
	Plugin string
	Type   string
}

func (e ErrBaseNotInitialised) Error() string {
	return fmt.Sprintf(
		"plugin '%s' (%s) was constructed without Base.Init\nHint: call Base.Init(host, name, self) in the plugin constructor",
		e.Plugin,
		e.Type,
	)
}

// ErrAlreadyActive is returned in strict mode when an active plugin is activated again.
type ErrAlreadyActive struct {
	Plugin string
}

func (e ErrAlreadyActive) Error() string {
	return fmt.Sprintf("plugin '%s' is already active", e.Plugin)
}

// ErrInvalidClass is returned when something offered as a plugin class does not
// satisfy the plugin contract.
type ErrInvalidClass struct {
	Name   string
	Reason string
}

func (e ErrInvalidClass) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid plugin class: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plugin class '%s': %s", e.Name, e.Reason)
}

// RegistrationError reports a duplicate plugin class or instance name.
type RegistrationError struct {
	Name string
	Kind string
}

func (e *RegistrationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin %s '%s' already registered", e.Kind, e.Name)
}

// NotInitialisableError wraps a failure while constructing a plugin.
type NotInitialisableError struct {
	Name  string
	Class string
	Err   error
}

func (e *NotInitialisableError) Error() string {
	if e == nil {
		return ""
	}
	if e.Class != "" && e.Class != e.Name {
		return fmt.Sprintf("plugin '%s' (class %s) could not be initialised: %v", e.Name, e.Class, e.Err)
	}
	return fmt.Sprintf("plugin '%s' could not be initialised: %v", e.Name, e.Err)
}

// Unwrap exposes the construction failure.
func (e *NotInitialisableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NotActivatableError wraps any failure raised while activating a plugin.
type NotActivatableError struct {
	Name string
	Err  error
}

func (e *NotActivatableError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin '%s' could not be activated: %v", e.Name, e.Err)
}

// Unwrap exposes the activation failure.
func (e *NotActivatableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NotDeactivatableError wraps any failure raised while deactivating a plugin.
type NotDeactivatableError struct {
	Name string
	Err  error
}

func (e *NotDeactivatableError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin '%s' could not be deactivated: %v", e.Name, e.Err)
}

// Unwrap exposes the deactivation failure.
func (e *NotDeactivatableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// isFatal reports errors that abort a batch regardless of policy.
func isFatal(err error) bool {
	if errors.Is(err, ErrInvalidArgument) {
		return true
	}
	var notInitialised ErrBaseNotInitialised
	return errors.As(err, &notInitialised)
}
