package domain

// InsertResult reports how a write was handled. Queued is true when the write
// was deferred to the local log instead of reaching the remote store.
type InsertResult struct {
	Queued bool `json:"queued"`
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	// Attempted is the number of operations a replay was tried for.
	Attempted int `json:"attempted"`
	// Replayed is the number of operations written and removed from the log.
	Replayed int `json:"replayed"`
	// Dropped is the number of operations removed after a permanent failure.
	Dropped int `json:"dropped"`
	// DeadLettered counts operations moved to the dead letter table, whether
	// dropped or given up on after too many retries.
	DeadLettered int `json:"dead_lettered"`
	// Blocked is true when the pass stopped at a transient failure.
	Blocked bool `json:"blocked"`
}

// QueueStats reports queue depth.
type QueueStats struct {
	Pending     int64 `json:"pending"`
	DeadLetters int64 `json:"dead_letters"`
}
