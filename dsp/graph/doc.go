// Package graph wires DSP units, control inputs and output sinks into a
// fixed signal graph and runs it block by block.
//
// A graph is described once, either through a [Builder] or a YAML
// [Description] resolved against a [Registry], then compiled into an
// immutable execution plan: units run in topological order with ties
// broken by declaration order. After [Graph.Prepare] the topology and the
// processing configuration never change.
//
// Endpoints in connections are written as "unit.port" where port is a port
// name or index, or as a bare name for control inputs and output sinks. A
// bare unit id used as a source selects the unit's first output.
//
// [Graph.Process] runs one block: it drains every control input, advances
// smoothing, ticks each unit once per frame in order and appends one sample
// per frame to every sink. It never allocates or blocks and does not log.
package graph
