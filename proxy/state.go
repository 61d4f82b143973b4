package proxy

// State tracks how much of an entity has been materialized. Transitions only move forward.
type State int

const (
	// Uninitialized entities only know their identifier.
	Uninitialized State = iota

	// PartiallyInitialized entities hold locally written attributes, the rest is pending.
	PartiallyInitialized

	// Initialized entities have every attribute available without a fetch.
	Initialized
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case PartiallyInitialized:
		return "partially-initialized"
	case Initialized:
		return "initialized"
	default:
		return "unknown"
	}
}
