// Package source provides player/availability providers for the scheduler.
//
// Static serves a fixed roster from memory. Production deployments
// implement types.PlayerSource and types.AvailabilityStore over their
// own persistence instead.
package source
