// Package types defines the shared value types, small interfaces, and
// sentinel errors used across the scheduler library.
//
// Keeping these in a leaf package lets internal components and public
// strategies share them without import cycles.
package types
