package flow

import (
	"fmt"
	"time"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/dataset"
	"github.com/go-gflow/gflow/errors"
)

// lazyPrereqsMet decides whether a ported node's delayed_process request can
// be honoured: every input must be distributed, and every declared output
// port must allow a tabular result. Failures never abort the run; they
// downgrade to eager execution with a warning.
func (x *Executor) lazyPrereqsMet(node gflow.Node, inputs map[string]gflow.Dataset) bool {
	useDelayed := false
	for _, ds := range inputs {
		if ds.Kind() == gflow.DistributedDataset {
			useDelayed = true
			break
		}
	}
	if !useDelayed {
		return false
	}
	for _, iport := range node.InputPorts() {
		ds, ok := inputs[iport.Name]
		if !ok {
			continue
		}
		if ds.Kind() != gflow.DistributedDataset {
			x.log.Warn().
				Str("node", node.UID()).
				Str("port", iport.Name).
				Msgf("input is of kind %q and it should be distributed; ignoring delayed_process setting", ds.Kind())
			useDelayed = false
		}
	}
	if !useDelayed {
		return false
	}
	for _, oport := range node.OutputPorts() {
		if !oport.Types.Contains(gflow.TableDataset) && !oport.Types.Contains(gflow.DistributedDataset) {
			x.log.Warn().
				Str("node", node.UID()).
				Str("port", oport.Name).
				Msg("output port does not allow a tabular kind; ignoring delayed_process setting")
			useDelayed = false
		}
	}
	return useDelayed
}

// invokePartitioned executes a ported node's transform partition by
// partition. All inputs are decomposed into partitions; a count mismatch is
// fatal before any transform call is scheduled. Partition i of every input
// is bundled, the transform runs exactly once per bundle, and each declared
// output port's slice of the per-partition result (an empty table if
// absent) is collected into a fresh Distributed in partition order.
func (x *Executor) invokePartitioned(node gflow.PortedNode, inputs map[string]gflow.Dataset) (map[string]gflow.Dataset, error) {
	uid := node.UID()
	numPartitions := -1
	parts := make(map[string][]*dataset.Partition, len(inputs))
	for _, iport := range node.InputPorts() {
		ds, ok := inputs[iport.Name]
		if !ok {
			continue
		}
		distributed := ds.(*dataset.Distributed)
		ps := distributed.Partitions()
		if numPartitions < 0 {
			numPartitions = len(ps)
		} else if len(ps) != numPartitions {
			return nil, errors.PartitionMismatchError{Node: uid, Port: iport.Name, Have: len(ps), Want: numPartitions}
		}
		parts[iport.Name] = ps
	}
	if numPartitions < 0 {
		numPartitions = 0
	}

	process := x.portedProcessFor(node)
	collected := make(map[string][]*dataset.Partition, len(node.OutputPorts()))
	for i := 0; i < numPartitions; i++ {
		bundle := make(map[string]gflow.Dataset, len(parts))
		for iport, ps := range parts {
			table, err := ps[i].Table()
			if err != nil {
				return nil, err
			}
			bundle[iport] = table
		}
		// materialized immediately so the transform runs exactly once per
		// partition, no matter how many output ports reference the result
		result, err := process(bundle)
		if err != nil {
			return nil, err
		}
		for _, oport := range node.OutputPorts() {
			table, err := extractPortTable(uid, oport.Name, result)
			if err != nil {
				return nil, err
			}
			collected[oport.Name] = append(collected[oport.Name], dataset.PartitionOf(table))
		}
	}
	x.opts.Stats.AddPartitions(numPartitions)

	outputs := make(map[string]gflow.Dataset, len(node.OutputPorts()))
	for _, oport := range node.OutputPorts() {
		outputs[oport.Name] = dataset.CreateDistributed(collected[oport.Name]...)
	}
	return outputs, nil
}

// extractPortTable pulls one output port's value out of a per-partition
// result, defaulting to an empty table when absent and shallow-copying
// tables so partition consumers never share mutable column lists
func extractPortTable(uid string, port string, result map[string]gflow.Dataset) (*dataset.Table, error) {
	ds, ok := result[port]
	if !ok || ds == nil {
		return dataset.CreateTable(), nil
	}
	table, ok := ds.(*dataset.Table)
	if !ok {
		return nil, fmt.Errorf("Node \"%s\" output port \"%s\" produced a partition value of kind \"%s\", expected a table", uid, port, ds.Kind())
	}
	return table.ShallowCopy(), nil
}

// invokePositionalPartitioned handles delayed_process for positional nodes:
// only the first input is decomposed per partition, every partition is
// paired with the remaining inputs unchanged, and the per-partition results
// reassemble into a Distributed of lazy futures
func (x *Executor) invokePositionalPartitioned(node gflow.PositionalNode, first *dataset.Distributed, rest []gflow.Dataset) (gflow.Dataset, error) {
	uid := node.UID()
	process := x.positionalProcessFor(node)
	parts := first.Partitions()
	outParts := make([]*dataset.Partition, len(parts))
	for i, p := range parts {
		p := p
		outParts[i] = dataset.DeferredPartition(func() (*dataset.Table, error) {
			table, err := p.Table()
			if err != nil {
				return nil, err
			}
			inputs := append([]gflow.Dataset{table}, rest...)
			start := time.Now()
			result, err := process(inputs)
			// the transform runs at materialization, after dispatch has
			// already recorded its runtime, so count it in separately
			x.opts.Stats.AddNodeRuntime(uid, time.Since(start))
			if err != nil {
				return nil, err
			}
			resultTable, ok := result.(*dataset.Table)
			if !ok {
				return nil, fmt.Errorf("Node \"%s\" produced a partition value of kind \"%s\", expected a table", uid, result.Kind())
			}
			return resultTable, nil
		})
	}
	x.opts.Stats.AddPartitions(len(parts))
	return dataset.CreateDistributed(outParts...), nil
}
