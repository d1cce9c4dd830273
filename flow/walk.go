package flow

import (
	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/dataset"
	"github.com/go-gflow/gflow/errors"
	"github.com/go-gflow/gflow/graph"
)

// walk performs the run-time data walk from one node: invoke it once every
// inbound port has a dataset (or the node bypasses readiness via Load),
// route its outputs to its children, and recurse
func (x *Executor) walk(uid string) error {
	node := x.graph.Node(uid)
	st := x.getState(uid)
	flags := node.Flags()

	if !flags.Load && node.Preloaded() == nil {
		for _, e := range x.graph.Inbound(uid) {
			if _, ok := st.inputDS[e.ToPort]; !ok {
				// resumed later, when the last needed predecessor pushes its data
				return nil
			}
		}
	}

	output, err := x.invoke(node, st)
	if err != nil {
		return err
	}

	if flags.ClearInput {
		st.inputDS = make(map[string]gflow.Dataset)
	}

	for _, e := range x.graph.Outbound(uid) {
		ds, err := x.selectOutput(node, output, e)
		if err != nil {
			return err
		}
		child := x.getState(e.To)
		child.inputDS[e.ToPort] = ds
		if err := x.walk(e.To); err != nil {
			return err
		}
	}
	return nil
}

// selectOutput picks the dataset an edge carries out of a node's invocation
// result. An edge naming a source port selects it directly; an edge without
// one either passes a positional node's single result through, or flattens a
// ported node's results for a positional target: a lone produced port is
// unwrapped, multiple ports become an ordered Group of shallow copies in
// port-declaration order.
func (x *Executor) selectOutput(node gflow.Node, output *invokeOutput, e gflow.Edge) (gflow.Dataset, error) {
	if len(e.FromPort) > 0 {
		ds, ok := output.ports[e.FromPort]
		if !ok {
			return nil, errors.MissingOutputPortError{
				Node:        node.UID(),
				Port:        e.FromPort,
				Target:      e.To,
				GraphOutput: x.graph.Kind(e.To) == graph.OutputNode,
			}
		}
		return ds, nil
	}
	if node.UsesPorts() && !x.graph.Node(e.To).UsesPorts() {
		produced := make([]gflow.Dataset, 0, len(output.ports))
		for _, oport := range node.OutputPorts() {
			if ds, ok := output.ports[oport.Name]; ok {
				produced = append(produced, ds)
			}
		}
		if len(produced) == 1 {
			return produced[0], nil
		}
		copies := make([]gflow.Dataset, len(produced))
		for i, ds := range produced {
			copies[i] = shallowCopy(ds)
		}
		return dataset.CreateGroup(copies...), nil
	}
	return output.value, nil
}
