package plugin

// State is the lifecycle state of a plugin instance.
type State int

const (
	// StateUninitialised means Base.Init has not run.
	StateUninitialised State = iota
	// StateInitialised means the plugin is constructed and never activated.
	StateInitialised
	// StateActive means activation completed.
	StateActive
	// StateInactive means the plugin was deactivated and may be activated again.
	StateInactive
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialised:
		return "uninitialised"
	case StateInitialised:
		return "initialised"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	default:
		return "unknown"
	}
}
