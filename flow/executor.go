// Package flow implements the heart of gflow: static column-schema
// propagation across a graph, the run-time execution walk, node invocation
// with partition-parallel offloading, and output-contract validation.
//
// Both walks are single-threaded, synchronous, depth-first recursions over
// the same node state. An Executor supports at most one in-flight walk at a
// time.
package flow

import (
	"fmt"
	"strconv"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/graph"
	"github.com/go-gflow/gflow/logging"
	"github.com/go-gflow/gflow/stats"
	uuid "github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// Options configure an Executor
type Options struct {
	Logger          *zerolog.Logger      // structured logger; defaults to a console writer on stderr at Info
	Stats           *stats.RunStatistics // run statistics sink; defaults to a fresh RunStatistics
	ParallelPersist int64                // max partitions materialized concurrently by Persist/Collect helpers
}

// CloneOptions makes a copy of an Options
func CloneOptions(opts *Options) *Options {
	return &Options{
		Logger:          opts.Logger,
		Stats:           opts.Stats,
		ParallelPersist: opts.ParallelPersist,
	}
}

func ensureDefaultOptionsValues(opts *Options) {
	if opts.Logger == nil {
		logger := logging.CreateDefaultLogger()
		opts.Logger = &logger
	}
	if opts.Stats == nil {
		opts.Stats = stats.CreateRunStatistics()
	}
	if opts.ParallelPersist == 0 {
		opts.ParallelPersist = 4
	}
}

// nodeState is the transient per-node walk state, keyed by input port.
// It lives in the Executor so node objects stay read-only during a walk.
type nodeState struct {
	inputDS   map[string]gflow.Dataset
	inputCols map[string]gflow.ColumnSchema
	outCols   map[string]gflow.ColumnSchema // per output port, for ported nodes
	outFlat   gflow.ColumnSchema            // single flat schema, for positional nodes
}

// Executor runs a Graph: it propagates column schemas ahead of any data
// movement, then walks the graph in dependency order, invoking each node
// and validating its output against the propagated contract
type Executor struct {
	id      string
	graph   *graph.Graph
	opts    *Options
	log     zerolog.Logger
	state   map[string]*nodeState
	running bool
}

// CreateExecutor produces an Executor for a Graph
func CreateExecutor(g *graph.Graph, opts *Options) (*Executor, error) {
	if g == nil {
		return nil, fmt.Errorf("Executor requires a Graph")
	}
	if opts == nil {
		opts = &Options{}
	}
	opts = CloneOptions(opts)
	ensureDefaultOptionsValues(opts)
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %v", err)
	}
	return &Executor{
		id:    id.String(),
		graph: g,
		opts:  opts,
		log:   opts.Logger.With().Str("run", id.String()).Logger(),
		state: make(map[string]*nodeState),
	}, nil
}

// ID returns the unique identity of this Executor's run
func (x *Executor) ID() string {
	return x.id
}

// Stats returns the RunStatistics this Executor records into
func (x *Executor) Stats() *stats.RunStatistics {
	return x.opts.Stats
}

func (x *Executor) getState(uid string) *nodeState {
	st, ok := x.state[uid]
	if !ok {
		st = &nodeState{
			inputDS:   make(map[string]gflow.Dataset),
			inputCols: make(map[string]gflow.ColumnSchema),
		}
		x.state[uid] = st
	}
	return st
}

func (x *Executor) resetSchemaState() {
	for _, st := range x.state {
		st.inputCols = make(map[string]gflow.ColumnSchema)
		st.outCols = nil
		st.outFlat = nil
	}
}

func (x *Executor) resetDataState() {
	for _, st := range x.state {
		st.inputDS = make(map[string]gflow.Dataset)
	}
}

// PropagateSchemas runs the static schema pre-pass from every root,
// computing and validating each node's output columns. It may be called
// independently of Run for inspection; Run performs it again itself.
func (x *Executor) PropagateSchemas() error {
	if x.running {
		return fmt.Errorf("Executor walk already in flight")
	}
	x.running = true
	defer func() { x.running = false }()
	return x.propagateAll()
}

// Run propagates schemas, then walks the graph from every root, invoking
// each node once its inputs are ready and routing outputs to its children.
// It returns the datasets collected for the declared graph outputs, keyed
// by output reference.
func (x *Executor) Run() (map[string]gflow.Dataset, error) {
	if x.running {
		return nil, fmt.Errorf("Executor walk already in flight")
	}
	x.running = true
	defer func() { x.running = false }()

	x.opts.Stats.Start()
	x.log.Debug().Msg("propagating column schemas")
	if err := x.propagateAll(); err != nil {
		return nil, err
	}
	x.resetDataState()
	x.log.Debug().Msg("starting execution walk")
	for _, root := range x.graph.Roots() {
		if err := x.walk(root); err != nil {
			return nil, err
		}
	}
	x.opts.Stats.Finish()
	return x.collectResults(), nil
}

func (x *Executor) collectResults() map[string]gflow.Dataset {
	results := make(map[string]gflow.Dataset)
	collectorUID := x.graph.CollectorUID()
	if len(collectorUID) == 0 {
		return results
	}
	st := x.getState(collectorUID)
	for i, ref := range x.graph.OutputRefs() {
		if ds, ok := st.inputDS[strconv.Itoa(i)]; ok {
			results[ref] = ds
		}
	}
	return results
}

// cloneSchemas deep-copies a port-keyed schema map so callers cannot mutate
// propagated state through an accessor
func cloneSchemas(perPort map[string]gflow.ColumnSchema) map[string]gflow.ColumnSchema {
	if perPort == nil {
		return nil
	}
	res := make(map[string]gflow.ColumnSchema, len(perPort))
	for port, cols := range perPort {
		res[port] = cols.Clone()
	}
	return res
}

// OutputColumns returns the propagated output schema of a node: per-port
// schemas for ported nodes, a single flat schema for positional ones. Both
// are copies detached from the Executor's state. PropagateSchemas (or Run)
// must have completed first.
func (x *Executor) OutputColumns(uid string) (map[string]gflow.ColumnSchema, gflow.ColumnSchema, error) {
	node := x.graph.Node(uid)
	if node == nil {
		return nil, nil, fmt.Errorf("Unknown node \"%s\"", uid)
	}
	st := x.getState(uid)
	if st.outCols == nil && st.outFlat == nil {
		return nil, nil, fmt.Errorf("No propagated schema for node \"%s\"", uid)
	}
	var flat gflow.ColumnSchema
	if st.outFlat != nil {
		flat = st.outFlat.Clone()
	}
	return cloneSchemas(st.outCols), flat, nil
}

// InputColumns returns the propagated inbound schemas of a node, keyed by
// input port, as copies detached from the Executor's state
func (x *Executor) InputColumns(uid string) (map[string]gflow.ColumnSchema, error) {
	if x.graph.Node(uid) == nil {
		return nil, fmt.Errorf("Unknown node \"%s\"", uid)
	}
	return cloneSchemas(x.getState(uid).inputCols), nil
}
