// Package analysis summarizes exported sweep results.
//
//   - [ByBodies]: per body count run counts and timing spread
//   - [FitScaling]: power-law fit of execution time against body count
//
// # Scaling
//
// A direct pairwise simulation should show an exponent near 2, a
// Barnes-Hut one something closer to 1:
//
//	fit, err := analysis.FitScaling(records)
//	if err == nil && fit.Exponent > 1.8 {
//	    // quadratic in N
//	}
package analysis
