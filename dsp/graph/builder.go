package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

const defaultGain = 1.0

type options struct {
	logger *slog.Logger
	gain   float64
}

// Option configures a graph at build time.
type Option func(*options)

// WithLogger sets the logger used while building and preparing. Process
// never logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGain sets the master gain applied by Render.
func WithGain(g float64) Option {
	return func(o *options) {
		o.gain = g
	}
}

type nodeKind int

const (
	kindInput nodeKind = iota + 1
	kindUnit
	kindSink
)

func (k nodeKind) String() string {
	switch k {
	case kindInput:
		return "input"
	case kindUnit:
		return "unit"
	case kindSink:
		return "output"
	default:
		return "node"
	}
}

type nodeRef struct {
	kind  nodeKind
	index int
}

type unitDecl struct {
	id   string
	unit Unit
}

// endpoint is a resolved connection end.
type endpoint struct {
	nodeRef
	port int
}

// Builder collects a graph declaration. It is consumed by the first Build.
// Declaration errors are recorded and reported by Build.
type Builder struct {
	opts options

	inputs  []*param.Input
	units   []unitDecl
	outputs []string
	conns   []ConnectionDesc
	names   map[string]nodeRef

	err      error
	consumed bool
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		opts:  options{logger: slog.New(slog.DiscardHandler), gain: defaultGain},
		names: make(map[string]nodeRef),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&b.opts)
		}
	}
	return b
}

// Input declares a control input.
func (b *Builder) Input(spec param.Spec) *Builder {
	if !b.declare(spec.Name, kindInput, len(b.inputs)) {
		return b
	}

	in, err := param.New(spec)
	if err != nil {
		b.fail(fmt.Errorf("graph: %w", err))
		return b
	}

	b.inputs = append(b.inputs, in)
	return b
}

// Unit declares a unit instance under id.
func (b *Builder) Unit(id string, u Unit) *Builder {
	if u == nil {
		b.fail(fmt.Errorf("graph: unit %q is nil", id))
		return b
	}

	if b.declare(id, kindUnit, len(b.units)) {
		b.units = append(b.units, unitDecl{id: id, unit: u})
	}
	return b
}

// Output declares an output sink.
func (b *Builder) Output(name string) *Builder {
	if b.declare(name, kindSink, len(b.outputs)) {
		b.outputs = append(b.outputs, name)
	}
	return b
}

// Connect declares an edge. Endpoints are resolved by Build, so nodes may be
// declared in any order.
func (b *Builder) Connect(from, to string) *Builder {
	if b.consumed {
		b.fail(ErrBuilderConsumed)
		return b
	}
	b.conns = append(b.conns, ConnectionDesc{From: from, To: to})
	return b
}

func (b *Builder) declare(name string, kind nodeKind, index int) bool {
	switch {
	case b.consumed:
		b.fail(ErrBuilderConsumed)
		return false
	case name == "" || strings.Contains(name, "."):
		b.fail(fmt.Errorf("graph: %s name must be non-empty and contain no '.': %q", kind, name))
		return false
	}

	if prev, ok := b.names[name]; ok {
		b.fail(fmt.Errorf("%w: %q declared as %s and %s", ErrDuplicateNode, name, prev.kind, kind))
		return false
	}

	b.names[name] = nodeRef{kind: kind, index: index}
	return true
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the declaration and compiles the execution plan.
func (b *Builder) Build() (*Graph, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true

	if b.err != nil {
		return nil, b.err
	}

	if len(b.outputs) == 0 {
		return nil, errors.New("graph: no outputs declared")
	}

	g := &Graph{
		log:        b.opts.logger,
		gain:       b.opts.gain,
		inputs:     make(map[string]*param.Input, len(b.inputs)),
		sinkByName: make(map[string]*Sink, len(b.outputs)),
	}

	g.controls = make([]control, len(b.inputs))
	for i, in := range b.inputs {
		g.controls[i] = control{in: in, trigger: in.Spec().Kind == param.Trigger}
		g.inputs[in.Name()] = in
	}

	g.sinks = make([]*Sink, len(b.outputs))
	for i, name := range b.outputs {
		g.sinks[i] = &Sink{name: name}
		g.sinkByName[name] = g.sinks[i]
	}

	// fanouts per unit, and unit-to-unit adjacency for ordering.
	fanouts := make([][]fanout, len(b.units))
	succ := make([][]int, len(b.units))
	indegree := make([]int, len(b.units))
	driven := make(map[endpoint]string, len(b.conns))

	for _, c := range b.conns {
		src, err := b.resolve(c.From, true)
		if err != nil {
			return nil, fmt.Errorf("%w (%s -> %s)", err, c.From, c.To)
		}

		dst, err := b.resolve(c.To, false)
		if err != nil {
			return nil, fmt.Errorf("%w (%s -> %s)", err, c.From, c.To)
		}

		if prev, ok := driven[dst]; ok {
			return nil, fmt.Errorf("%w: %s is fed by %s and %s", ErrPortConflict, c.To, prev, c.From)
		}
		driven[dst] = c.From

		switch {
		case dst.kind == kindSink:
			g.sinks[dst.index].src = b.sinkSource(src)
		case src.kind == kindInput:
			g.controls[src.index].targets = append(g.controls[src.index].targets,
				portRef{unit: b.units[dst.index].unit, port: dst.port})
		default:
			if src.index == dst.index {
				return nil, fmt.Errorf("%w: %s feeds itself", ErrCycle, b.units[src.index].id)
			}
			fanouts[src.index] = append(fanouts[src.index], fanout{
				out: src.port,
				dst: portRef{unit: b.units[dst.index].unit, port: dst.port},
			})
			succ[src.index] = append(succ[src.index], dst.index)
			indegree[dst.index]++
		}
	}

	for _, s := range g.sinks {
		if !s.src.valid() {
			return nil, fmt.Errorf("%w: output %q has no source", ErrDanglingConnection, s.name)
		}
	}

	order, err := b.sortUnits(succ, indegree)
	if err != nil {
		return nil, err
	}

	g.nodes = make([]node, len(order))
	g.order = make([]string, len(order))
	for i, idx := range order {
		g.nodes[i] = node{id: b.units[idx].id, unit: b.units[idx].unit, fanout: fanouts[idx]}
		g.order[i] = b.units[idx].id
	}

	g.log.Debug("graph built",
		"inputs", len(g.controls),
		"units", len(g.nodes),
		"outputs", len(g.sinks),
		"connections", len(b.conns),
		"order", g.order)

	return g, nil
}

// sortUnits is Kahn's algorithm; among ready units the earliest declared runs first.
func (b *Builder) sortUnits(succ [][]int, indegree []int) ([]int, error) {
	ready := make([]int, 0, len(indegree))
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(indegree))
	for len(ready) > 0 {
		idx := ready[0]
		ready = ready[1:]
		order = append(order, idx)

		for _, next := range succ[idx] {
			indegree[next]--
			if indegree[next] == 0 {
				pos, _ := slices.BinarySearch(ready, next)
				ready = slices.Insert(ready, pos, next)
			}
		}
	}

	if len(order) != len(indegree) {
		var stuck []string
		for i, d := range indegree {
			if d > 0 {
				stuck = append(stuck, b.units[i].id)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}

	return order, nil
}

// resolve parses "unit.port" or a bare node name.
func (b *Builder) resolve(s string, source bool) (endpoint, error) {
	name, port, hasPort := strings.Cut(s, ".")

	ref, ok := b.names[name]
	if !ok {
		return endpoint{}, fmt.Errorf("%w: unknown node %q", ErrDanglingConnection, name)
	}

	switch ref.kind {
	case kindInput:
		if !source || hasPort {
			return endpoint{}, fmt.Errorf("%w: input %q can only be a bare source", ErrDanglingConnection, name)
		}
		return endpoint{nodeRef: ref}, nil
	case kindSink:
		if source || hasPort {
			return endpoint{}, fmt.Errorf("%w: output %q can only be a bare destination", ErrDanglingConnection, name)
		}
		return endpoint{nodeRef: ref}, nil
	}

	u := b.units[ref.index].unit
	ports := u.Inputs()
	if source {
		ports = u.Outputs()
	}

	if !hasPort {
		if !source || len(ports) == 0 {
			return endpoint{}, fmt.Errorf("%w: unit %q needs an explicit port", ErrDanglingConnection, name)
		}
		return endpoint{nodeRef: ref}, nil
	}

	idx := slices.Index(ports, port)
	if idx < 0 {
		n, err := strconv.Atoi(port)
		if err != nil || n < 0 || n >= len(ports) {
			return endpoint{}, fmt.Errorf("%w: unit %q has no port %q", ErrDanglingConnection, name, port)
		}
		idx = n
	}

	return endpoint{nodeRef: ref, port: idx}, nil
}

func (b *Builder) sinkSource(src endpoint) sinkSource {
	if src.kind == kindInput {
		return sinkSource{input: b.inputs[src.index]}
	}
	return sinkSource{unit: b.units[src.index].unit, port: src.port}
}
