// Package testing provides test scaffolding: an embedded NATS server
// with JetStream, KV bucket helpers, and a testing.T-backed logger.
//
// It is imported by _test.go files across the module and by downstream
// consumers testing against the scheduler.
package testing
