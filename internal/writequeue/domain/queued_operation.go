package domain

import "time"

// OperationType identifies the kind of deferred write.
type OperationType string

// OperationTypeInsert is the only operation the queue records.
const OperationTypeInsert OperationType = "insert"

// QueuedOperation is one deferred write stored in the local durable log.
type QueuedOperation struct {
	// ID is assigned by the log on enqueue and defines replay order.
	ID int64
	// Type is always OperationTypeInsert.
	Type OperationType
	// Table is the remote table the rows are written to.
	Table string
	// Payload is the encoded snapshot of the rows taken at enqueue time.
	Payload string
	// CreatedAt is set by the log on enqueue.
	CreatedAt time.Time
	// RetryCount is the number of transient replay failures so far.
	RetryCount int
}
