// Package pool implements the fixed-size worker pool that runs grouping
// tasks in parallel.
//
// Workers communicate by message passing with value semantics: task
// inputs are copied on submission and results are returned by value, so
// no player or foursome data is ever shared mutably across workers.
// Each worker is verified with a liveness probe before it joins the
// idle ring; a crashed worker fails its in-flight task, is evicted from
// the registry, and is replaced asynchronously while the rest of the
// pool keeps serving.
package pool
