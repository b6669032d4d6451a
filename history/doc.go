// Package history provides types.PairingHistory implementations.
//
// Memory keeps counts in-process and suits tests and single-process
// leagues. KV persists counts to a NATS JetStream KeyValue bucket so
// counts survive restarts and are shared across processes.
//
// Both implementations record idempotently per (schedule ID, pair): a
// re-delivered or retried recording of the same foursome for the same
// schedule never double-counts.
package history
