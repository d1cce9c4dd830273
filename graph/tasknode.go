package graph

import (
	"fmt"

	"github.com/go-gflow/gflow"
)

// PortedProcessFunc is the transform of a ported TaskNode
type PortedProcessFunc func(inputs map[string]gflow.Dataset) (map[string]gflow.Dataset, error)

// PositionalProcessFunc is the transform of a positional TaskNode
type PositionalProcessFunc func(inputs []gflow.Dataset) (gflow.Dataset, error)

// TaskNodeConfig configures a TaskNode. Exactly one of Process and
// PositionalProcess must be supplied; it decides whether the node is ported
// or positional.
type TaskNodeConfig struct {
	UID               string
	Conf              gflow.Conf
	InputPorts        []gflow.PortSpec
	OutputPorts       []gflow.PortSpec
	Columns           gflow.ColumnSetup
	Flags             gflow.ExecFlags
	Preloaded         gflow.Dataset // static value used instead of the cache when Load is set
	Cache             gflow.Cache   // backing cache for Load/Save, optional
	Process           PortedProcessFunc
	PositionalProcess PositionalProcessFunc
}

// taskNode carries the state shared by both TaskNode flavours
type taskNode struct {
	conf *TaskNodeConfig
}

// UID returns the unique identity of this node within its graph
func (n *taskNode) UID() string {
	return n.conf.UID
}

// Conf returns the configuration of this node
func (n *taskNode) Conf() gflow.Conf {
	return n.conf.Conf
}

// InputPorts enumerates input ports in declaration order
func (n *taskNode) InputPorts() []gflow.PortSpec {
	return n.conf.InputPorts
}

// OutputPorts enumerates output ports in declaration order
func (n *taskNode) OutputPorts() []gflow.PortSpec {
	return n.conf.OutputPorts
}

// ColumnSetup returns the column-schema operations of this node
func (n *taskNode) ColumnSetup() gflow.ColumnSetup {
	return n.conf.Columns
}

// Flags returns the execution flags of this node
func (n *taskNode) Flags() gflow.ExecFlags {
	return n.conf.Flags
}

// Preloaded returns the pre-supplied static value of this node, or nil
func (n *taskNode) Preloaded() gflow.Dataset {
	return n.conf.Preloaded
}

// LoadCache fetches this node's output from its bound cache
func (n *taskNode) LoadCache() (gflow.Dataset, error) {
	if n.conf.Cache == nil {
		return nil, fmt.Errorf("No cache bound for node \"%s\"", n.conf.UID)
	}
	return n.conf.Cache.Load(n.conf.UID)
}

// SaveCache writes this node's output to its bound cache
func (n *taskNode) SaveCache(value gflow.Dataset) error {
	if n.conf.Cache == nil {
		return fmt.Errorf("No cache bound for node \"%s\"", n.conf.UID)
	}
	return n.conf.Cache.Save(n.conf.UID, value)
}

// TaskNode is the standard ported Node implementation
type TaskNode struct {
	taskNode
	process PortedProcessFunc
}

// UsesPorts returns true: a TaskNode declares named ports
func (n *TaskNode) UsesPorts() bool {
	return true
}

// Process runs this node's transform over port-keyed inputs
func (n *TaskNode) Process(inputs map[string]gflow.Dataset) (map[string]gflow.Dataset, error) {
	return n.process(inputs)
}

// PositionalTaskNode is the standard positional (legacy) Node implementation
type PositionalTaskNode struct {
	taskNode
	process PositionalProcessFunc
}

// UsesPorts returns false: a PositionalTaskNode uses enumerated slots
func (n *PositionalTaskNode) UsesPorts() bool {
	return false
}

// Process runs this node's transform over ordered inputs
func (n *PositionalTaskNode) Process(inputs []gflow.Dataset) (gflow.Dataset, error) {
	return n.process(inputs)
}

// CreateTaskNode produces a TaskNode or PositionalTaskNode from a
// TaskNodeConfig, depending on which process function is supplied
func CreateTaskNode(conf *TaskNodeConfig) (gflow.Node, error) {
	if len(conf.UID) == 0 {
		return nil, fmt.Errorf("TaskNodeConfig.UID must be set")
	}
	if conf.Process != nil && conf.PositionalProcess != nil {
		return nil, fmt.Errorf("Node \"%s\" must not supply both Process and PositionalProcess", conf.UID)
	}
	if conf.Process != nil {
		return &TaskNode{taskNode: taskNode{conf: conf}, process: conf.Process}, nil
	}
	if conf.PositionalProcess != nil {
		return &PositionalTaskNode{taskNode: taskNode{conf: conf}, process: conf.PositionalProcess}, nil
	}
	return nil, fmt.Errorf("Node \"%s\" must supply either Process or PositionalProcess", conf.UID)
}
