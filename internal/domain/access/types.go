package access

// State is what the product may do with a workspace given its billing
// status.
type State string

const (
	StatePending   State = "pending"
	StateFull      State = "full"
	StateSuspended State = "suspended"
	StateLocked    State = "locked"
)
