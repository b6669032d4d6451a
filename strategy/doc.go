// Package strategy provides grouping strategies that partition one time
// window's player list into foursomes.
//
// Two strategies are included:
//   - PairingAware: greedy heuristic that minimizes repeated pairings by
//     consulting pairing history (recommended)
//   - Sequential: input-order groups of four (baseline, no history needed)
//
// Custom strategies implement types.GroupingStrategy.
package strategy
