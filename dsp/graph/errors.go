package graph

import "errors"

var (
	// ErrCycle is returned when connections form a loop.
	ErrCycle = errors.New("graph: contains cycle")
	// ErrDanglingConnection is returned when a connection names a missing
	// node or port, or an output sink has no source.
	ErrDanglingConnection = errors.New("graph: dangling connection")
	// ErrDuplicateNode is returned when two nodes share a name.
	ErrDuplicateNode = errors.New("graph: duplicate node")
	// ErrPortConflict is returned when an input port or sink has more than one source.
	ErrPortConflict = errors.New("graph: port driven twice")
	// ErrUnknownUnit is returned when a description names an unregistered unit type.
	ErrUnknownUnit = errors.New("graph: unknown unit type")
	// ErrBuilderConsumed is returned when a Builder is used after Build.
	ErrBuilderConsumed = errors.New("graph: builder already consumed")
	// ErrAlreadyPrepared is returned by a second Prepare call.
	ErrAlreadyPrepared = errors.New("graph: already prepared")
	// ErrNotPrepared is returned when processing starts before Prepare.
	ErrNotPrepared = errors.New("graph: not prepared")
	// ErrUnderflow is returned when a sink is pulled while empty.
	ErrUnderflow = errors.New("graph: sink underflow")
	// ErrSinkOverrun is returned by Process when a sink still held samples
	// from the previous block. The stale samples are dropped.
	ErrSinkOverrun = errors.New("graph: sink overrun")
)
