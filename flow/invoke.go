package flow

import (
	"fmt"
	"time"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/dataset"
	"github.com/go-gflow/gflow/errors"
	"github.com/go-gflow/gflow/graph"
)

// invokeOutput is the result of one node invocation: port-keyed datasets for
// ported nodes, a single dataset for positional ones
type invokeOutput struct {
	ports map[string]gflow.Dataset
	value gflow.Dataset
}

// shallowCopy copies a dataset's structure without copying its data, so a
// downstream transform cannot mutate a dataset shared by sibling consumers
func shallowCopy(ds gflow.Dataset) gflow.Dataset {
	switch v := ds.(type) {
	case *dataset.Table:
		return v.ShallowCopy()
	case *dataset.Distributed:
		return v.ShallowCopy()
	default:
		return ds
	}
}

// invoke orchestrates one node's execution: load bypass (a preloaded value
// short-circuits the transform whether or not the load flag is set, like the
// scheduler's readiness bypass), input copying, direct vs. partitioned
// dispatch, nil checks, output validation and cache write-back
func (x *Executor) invoke(node gflow.Node, st *nodeState) (*invokeOutput, error) {
	uid := node.UID()
	flags := node.Flags()
	output := &invokeOutput{}

	if loaded := node.Preloaded(); flags.Load || loaded != nil {
		if loaded == nil {
			var err error
			loaded, err = node.LoadCache()
			if err != nil {
				return nil, err
			}
		}
		if err := x.assignLoaded(node, output, loaded); err != nil {
			return nil, err
		}
	} else if err := x.dispatch(node, st, output); err != nil {
		return nil, err
	}

	if output.ports == nil && output.value == nil {
		if x.graph.Kind(uid) != graph.OutputNode {
			return nil, errors.EmptyOutputError{Node: uid}
		}
	} else if err := x.validateOutput(node, st, output); err != nil {
		return nil, err
	}

	if flags.Save {
		if err := node.SaveCache(x.saveValue(node, output)); err != nil {
			return nil, err
		}
	}
	return output, nil
}

// assignLoaded shapes a cache-loaded or preloaded dataset to the node's port
// mode. A ported node with one output port wraps the value under that port;
// with several ports, a Group is unzipped across them in declaration order.
func (x *Executor) assignLoaded(node gflow.Node, output *invokeOutput, loaded gflow.Dataset) error {
	if !node.UsesPorts() {
		output.value = loaded
		return nil
	}
	oports := node.OutputPorts()
	if len(oports) == 1 {
		output.ports = map[string]gflow.Dataset{oports[0].Name: loaded}
		return nil
	}
	group, ok := loaded.(*dataset.Group)
	if !ok || len(group.Items()) != len(oports) {
		return fmt.Errorf("Loaded value for node \"%s\" must be a group with one dataset per output port", node.UID())
	}
	output.ports = make(map[string]gflow.Dataset, len(oports))
	for i, oport := range oports {
		output.ports[oport.Name] = group.Items()[i]
	}
	return nil
}

// saveValue shapes a node's invocation result for its cache hook, the
// inverse of assignLoaded
func (x *Executor) saveValue(node gflow.Node, output *invokeOutput) gflow.Dataset {
	if !node.UsesPorts() {
		return output.value
	}
	oports := node.OutputPorts()
	if len(oports) == 1 {
		return output.ports[oports[0].Name]
	}
	items := make([]gflow.Dataset, 0, len(oports))
	for _, oport := range oports {
		if ds, ok := output.ports[oport.Name]; ok {
			items = append(items, ds)
		}
	}
	return dataset.CreateGroup(items...)
}

// dispatch copies the node's inputs and calls its transform, directly or via
// the partitioned execution path when requested and possible
func (x *Executor) dispatch(node gflow.Node, st *nodeState, output *invokeOutput) error {
	flags := node.Flags()
	x.opts.Stats.StartNode()
	defer x.opts.Stats.EndNode(node.UID())

	if ported, ok := node.(gflow.PortedNode); ok {
		inputs := make(map[string]gflow.Dataset, len(st.inputDS))
		for iport, ds := range st.inputDS {
			inputs[iport] = shallowCopy(ds)
		}
		if flags.DelayedProcess && x.lazyPrereqsMet(node, inputs) {
			ports, err := x.invokePartitioned(ported, inputs)
			if err != nil {
				return err
			}
			output.ports = ports
			return nil
		}
		ports, err := x.portedProcessFor(ported)(inputs)
		if err != nil {
			return err
		}
		output.ports = ports
		return nil
	}

	positional, ok := node.(gflow.PositionalNode)
	if !ok {
		return fmt.Errorf("Node \"%s\" implements neither PortedNode nor PositionalNode", node.UID())
	}
	inbound := x.graph.Inbound(node.UID())
	inputs := make([]gflow.Dataset, len(inbound))
	for i, e := range inbound {
		inputs[i] = shallowCopy(st.inputDS[e.ToPort])
	}
	if flags.DelayedProcess && len(inputs) > 0 {
		if first, ok := inputs[0].(*dataset.Distributed); ok {
			value, err := x.invokePositionalPartitioned(positional, first, inputs[1:])
			if err != nil {
				return err
			}
			output.value = value
			return nil
		}
	}
	value, err := x.positionalProcessFor(positional)(inputs)
	if err != nil {
		return err
	}
	output.value = value
	return nil
}

// portedProcessFor composes a ported node's transform with the profiling
// wrapper when the node requests it. The wrapper reports elapsed time
// without altering the result.
func (x *Executor) portedProcessFor(node gflow.PortedNode) graph.PortedProcessFunc {
	if !node.Flags().Profile {
		return node.Process
	}
	uid := node.UID()
	return func(inputs map[string]gflow.Dataset) (map[string]gflow.Dataset, error) {
		start := time.Now()
		outputs, err := node.Process(inputs)
		x.log.Info().Str("node", uid).Dur("process_time", time.Since(start)).Msg("process finished")
		return outputs, err
	}
}

// positionalProcessFor is portedProcessFor for positional nodes
func (x *Executor) positionalProcessFor(node gflow.PositionalNode) graph.PositionalProcessFunc {
	if !node.Flags().Profile {
		return node.Process
	}
	uid := node.UID()
	return func(inputs []gflow.Dataset) (gflow.Dataset, error) {
		start := time.Now()
		output, err := node.Process(inputs)
		x.log.Info().Str("node", uid).Dur("process_time", time.Since(start)).Msg("process finished")
		return output, err
	}
}
