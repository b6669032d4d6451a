// Package engine implements the assignment engine: it partitions
// available players by time preference, balances Either players across
// the two windows, groups each window into foursomes via a pluggable
// strategy, and validates assembled schedules.
package engine
