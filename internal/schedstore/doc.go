// Package schedstore persists week schedules in NATS JetStream KV and
// coordinates access to them with advisory, TTL-based locks.
//
// Three buckets are involved: one for schedule documents, one for lock
// leases, and one for per-week status records. Lock installation uses
// the KV Create operation, so at most one valid lease per week can
// exist, and expired leases are purged lazily on the next acquire.
package schedstore
