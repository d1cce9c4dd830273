package errors

import (
	"fmt"
)

// SchemaError occurs when a required column is missing from an inbound
// schema, or when a deletion names a column absent from the output schema
type SchemaError struct {
	Node     string // uid of the node whose column setup failed
	Port     string // port being validated, empty for positional nodes
	Column   string // column which was missing
	Upstream string // uid(s) of the node(s) which supplied the inbound schema
	Deletion bool   // true iff the failure was a deletion of an absent column
}

// Error returns a textual representation of this SchemaError
func (e SchemaError) Error() string {
	if e.Deletion {
		if len(e.Port) > 0 {
			return fmt.Sprintf("Unable to delete column \"%s\" for node \"%s\" port \"%s\": column does not exist in the output schema", e.Column, e.Node, e.Port)
		}
		return fmt.Sprintf("Unable to delete column \"%s\" for node \"%s\": column does not exist in the output schema", e.Column, e.Node)
	}
	msg := fmt.Sprintf("Incoming columns not valid: error for node \"%s\", missing required column \"%s\".", e.Node, e.Column)
	if len(e.Upstream) > 0 {
		dst := e.Node
		if len(e.Port) > 0 {
			dst = fmt.Sprintf("%s.%s", e.Node, e.Port)
		}
		msg = fmt.Sprintf("%s Incoming columns from \"%s\" do not match columns setup for \"%s\".", msg, e.Upstream, dst)
	}
	return msg
}

// RenameError occurs when a rename source column is absent from the computed
// output schema
type RenameError struct {
	Node   string // uid of the node whose rename failed
	Port   string // port being renamed, empty for positional nodes
	Column string // rename source column which was missing
}

// Error returns a textual representation of this RenameError
func (e RenameError) Error() string {
	return fmt.Sprintf("Not valid replacement column: error for node \"%s\", missing required column \"%s\"", e.Node, e.Column)
}

// ConfigKeyError occurs when an @-prefixed column-operation entry references
// a configuration key which is absent or has an unusable value
type ConfigKeyError struct {
	Node string // uid of the node whose configuration was consulted
	Key  string // configuration key which could not be resolved
}

// Error returns a textual representation of this ConfigKeyError
func (e ConfigKeyError) Error() string {
	if len(e.Node) > 0 {
		return fmt.Sprintf("Unable to resolve configuration key \"%s\" for node \"%s\"", e.Key, e.Node)
	}
	return fmt.Sprintf("Unable to resolve configuration key \"%s\"", e.Key)
}

// OutputContractError occurs when a produced value violates its node's
// output contract: wrong runtime kind, wrong column count, missing expected
// column, or column type mismatch
type OutputContractError struct {
	Node   string // uid of the node which produced the value
	Port   string // output port the value was produced for, empty for positional nodes
	Reason error  // underlying finding(s)
}

// Error returns a textual representation of this OutputContractError
func (e OutputContractError) Error() string {
	if len(e.Port) > 0 {
		return fmt.Sprintf("Output not valid for node \"%s\" port \"%s\": %v", e.Node, e.Port, e.Reason)
	}
	return fmt.Sprintf("Output not valid for node \"%s\": %v", e.Node, e.Reason)
}

// Unwrap returns the underlying finding(s) of this OutputContractError
func (e OutputContractError) Unwrap() error {
	return e.Reason
}

// EmptyOutputError occurs when a node produces an empty table for a
// non-optional port, or no output at all without being the graph's terminal
// collector
type EmptyOutputError struct {
	Node string // uid of the node which produced nothing
	Port string // output port which was empty, if any
}

// Error returns a textual representation of this EmptyOutputError
func (e EmptyOutputError) Error() string {
	if len(e.Port) > 0 {
		return fmt.Sprintf("Node \"%s\" produced empty output for port \"%s\"", e.Node, e.Port)
	}
	return fmt.Sprintf("Node \"%s\" produced empty output", e.Node)
}

// MissingOutputPortError occurs when an edge's declared source port is
// absent from the produced output mapping
type MissingOutputPortError struct {
	Node        string // uid of the node which failed to produce the port
	Port        string // output port which was missing
	Target      string // uid of the downstream node which required the port
	GraphOutput bool   // true iff the port was required as a declared graph output
}

// Error returns a textual representation of this MissingOutputPortError
func (e MissingOutputPortError) Error() string {
	reason := fmt.Sprintf("is required as input to node \"%s\"", e.Target)
	if e.GraphOutput {
		reason = "is listed in the graph outputs"
	}
	return fmt.Sprintf("Missing output port \"%s\" from node \"%s\". This output %s.", e.Port, e.Node, reason)
}

// PartitionMismatchError occurs when distributed inputs to the same node
// carry differing partition counts
type PartitionMismatchError struct {
	Node string // uid of the node whose inputs disagreed
	Port string // input port whose partition count diverged
	Have int    // partition count of the diverging input
	Want int    // partition count of the other inputs
}

// Error returns a textual representation of this PartitionMismatchError
func (e PartitionMismatchError) Error() string {
	return fmt.Sprintf("Partitions mismatch: node \"%s\" input \"%s\" has %d partitions and other inputs have %d partitions", e.Node, e.Port, e.Have, e.Want)
}

// CacheMissError occurs when a cache lookup finds no entry for a key
type CacheMissError struct {
	Key string // cache key which was absent
}

// Error returns a textual representation of this CacheMissError
func (e CacheMissError) Error() string {
	return fmt.Sprintf("No cached value for key \"%s\"", e.Key)
}
