// Package output materializes resolved secrets into their destinations.
//
// Each Method selects one Sink. Sinks share a FlushContext that carries the
// in-memory property map, the process environment setter, trust store
// parameters and the directory relative output paths are resolved against.
package output
