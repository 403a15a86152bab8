package orchestrator

// SlotState is the lifecycle state of one task slot.
type SlotState string

const (
	StatePending   SlotState = "pending"
	StateRunning   SlotState = "running"
	StateSucceeded SlotState = "succeeded"
	StateFailed    SlotState = "failed"
	StateAbandoned SlotState = "abandoned"
)

// Terminal reports whether no further transition can happen.
func (s SlotState) Terminal() bool {
	return s == StateSucceeded || s == StateAbandoned
}

// Presence tells why a kind is or is not in the aggregated analyses.
type Presence string

const (
	PresenceSucceeded    Presence = "succeeded"
	PresenceAbandoned    Presence = "abandoned"
	PresenceNotScheduled Presence = "not_scheduled"
)
