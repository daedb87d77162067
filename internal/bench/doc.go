// Package bench defines the values that flow through a benchmark sweep.
//
//   - [Params]: inputs for one invocation of the simulation binary
//   - [Record]: the measured outcome of one invocation
//   - [Status]: how an invocation ended
//
// The error kinds a sweep step can end in live here as well, so every stage
// of the pipeline classifies failures the same way.
package bench
