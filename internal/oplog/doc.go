// Package oplog makes availability mutations interruption-safe.
//
// Every mutation writes a durable intent record to NATS KV before
// touching availability, then resolves the record to completed or
// failed. Records still pending from a prior process lifetime mark
// interrupted operations; DetectInterruptions reconciles each one
// against persisted truth and converges it to a terminal state.
//
// Mutations on the same week are serialized: bulk operations take the
// week exclusively, individual operations share the week but serialize
// per player.
package oplog
