package gflow

// Conf is the string-keyed configuration of a Node. Values referenced by
// @-prefixed column-operation entries are resolved against it. Conf is
// read-only during a graph walk.
type Conf map[string]interface{}

// GetString fetches a string value from this Conf, returning false if the
// key is absent or the value is not a string
func (c Conf) GetString(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetStrings fetches a sequence of strings from this Conf, returning false
// if the key is absent or the value is not a sequence of strings
func (c Conf) GetStrings(key string) ([]string, bool) {
	v, ok := c[key]
	if !ok {
		return nil, false
	}
	switch seq := v.(type) {
	case []string:
		return seq, true
	case []interface{}:
		res := make([]string, 0, len(seq))
		for _, item := range seq {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			res = append(res, s)
		}
		return res, true
	default:
		return nil, false
	}
}

// PortSpec describes one named input or output slot on a ported Node
type PortSpec struct {
	Name     string  // name of the port
	Types    KindSet // DatasetKinds this port is allowed to carry; empty means undeclared
	Optional bool    // iff true, a node may omit this output port from its result
}

// ExecFlags are the execution flags of a Node
type ExecFlags struct {
	Load           bool // bypass process, using a preloaded value or the cache
	Save           bool // pass the node's output to its cache after validation
	DelayedProcess bool // request partition-parallel execution when inputs allow it
	Profile        bool // time the process call and log its runtime
	ClearInput     bool // discard buffered input datasets once consumed
}

// ColumnOps is one column-schema operation (required, addition, deletion,
// retention or rename), declared either flat for positional nodes or per
// port for ported nodes
type ColumnOps struct {
	Flat  ColumnSchema            // operation entries for a positional node
	Ports map[string]ColumnSchema // operation entries keyed by port name
}

// ForPort returns the operation entries for a named port, or nil if none
// are declared
func (o ColumnOps) ForPort(port string) ColumnSchema {
	if o.Ports == nil {
		return nil
	}
	return o.Ports[port]
}

// IsEmpty returns true iff this ColumnOps declares no entries at all
func (o ColumnOps) IsEmpty() bool {
	if len(o.Flat) > 0 {
		return false
	}
	for _, cols := range o.Ports {
		if len(cols) > 0 {
			return false
		}
	}
	return true
}

// ColumnSetup bundles the five column-schema operations of a Node. Retention
// is a pointer because a configured-but-empty retention is meaningful: it
// replaces the output schema with the empty set.
type ColumnSetup struct {
	Required  ColumnOps
	Addition  ColumnOps
	Deletion  ColumnOps
	Retention *ColumnOps
	Rename    ColumnOps
}

// A Node is one transform step in a graph. Implementations additionally
// satisfy either PortedNode or PositionalNode, per UsesPorts.
type Node interface {
	UID() string               // UID returns the unique identity of this Node within its graph
	Conf() Conf                // Conf returns the configuration of this Node
	UsesPorts() bool           // UsesPorts returns true iff this Node declares named ports
	InputPorts() []PortSpec    // InputPorts enumerates input ports in declaration order
	OutputPorts() []PortSpec   // OutputPorts enumerates output ports in declaration order
	ColumnSetup() ColumnSetup  // ColumnSetup returns the column-schema operations of this Node
	Flags() ExecFlags          // Flags returns the execution flags of this Node
	Preloaded() Dataset        // Preloaded returns a pre-supplied static value used when Load is set, or nil
	LoadCache() (Dataset, error) // LoadCache fetches this Node's output from an external cache
	SaveCache(value Dataset) error // SaveCache writes this Node's output to an external cache
}

// PortedNode is a Node whose transform consumes and produces port-keyed
// Datasets
type PortedNode interface {
	Node
	Process(inputs map[string]Dataset) (map[string]Dataset, error)
}

// PositionalNode is a legacy Node whose transform consumes an ordered list
// of Datasets and produces a single Dataset
type PositionalNode interface {
	Node
	Process(inputs []Dataset) (Dataset, error)
}

// An Edge is a directed link carrying data and schema from one Node's
// output port to another Node's input port. FromPort is empty for
// positional sources and for ported-to-positional flatten handoffs. ToPort
// is always set once a graph is built; positional targets receive
// enumerated port names ("0", "1", ...).
type Edge struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

// Cache persists node outputs between runs, keyed by node UID. Concrete
// implementations live in the cache package.
type Cache interface {
	Load(key string) (Dataset, error)
	Save(key string, value Dataset) error
}
