package flow

import (
	"fmt"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/errors"
	"github.com/hashicorp/go-multierror"
)

func isTabularKind(kind gflow.DatasetKind) bool {
	return kind == gflow.TableDataset || kind == gflow.DistributedDataset
}

// validateOutput checks a node's invocation result against its declared
// port contract and its propagated output schema
func (x *Executor) validateOutput(node gflow.Node, st *nodeState, output *invokeOutput) error {
	uid := node.UID()
	if !node.UsesPorts() {
		if output.value == nil {
			return nil
		}
		tabular, ok := output.value.(gflow.Tabular)
		if !ok || !isTabularKind(output.value.Kind()) {
			return nil
		}
		numRows, err := tabular.Len()
		if err != nil {
			return err
		}
		if numRows == 0 {
			return errors.EmptyOutputError{Node: uid}
		}
		return x.validateTable(uid, "", tabular, st.outFlat)
	}

	delayed := node.Flags().DelayedProcess
	for _, oport := range node.OutputPorts() {
		value, ok := output.ports[oport.Name]
		if !ok {
			if oport.Optional {
				continue
			}
			return errors.OutputContractError{
				Node:   uid,
				Port:   oport.Name,
				Reason: fmt.Errorf("no value produced for required port"),
			}
		}
		if len(oport.Types) > 0 {
			allowed := oport.Types
			if delayed && allowed.Contains(gflow.TableDataset) {
				// partitioned execution turns tables into distributed tables
				allowed = allowed.With(gflow.DistributedDataset)
			}
			if !allowed.Contains(value.Kind()) {
				return errors.OutputContractError{
					Node:   uid,
					Port:   oport.Name,
					Reason: fmt.Errorf("produced kind \"%s\" is not in the allowed set %v", value.Kind(), allowed),
				}
			}
		}
		tabular, isTabular := value.(gflow.Tabular)
		if !isTabular || !isTabularKind(value.Kind()) {
			continue
		}
		numRows, err := tabular.Len()
		if err != nil {
			return err
		}
		if numRows == 0 {
			if oport.Optional {
				continue
			}
			return errors.EmptyOutputError{Node: uid, Port: oport.Name}
		}
		if err := x.validateTable(uid, oport.Name, tabular, st.outCols[oport.Name]); err != nil {
			return err
		}
	}
	return nil
}

// validateTable checks a produced tabular value against its expected column
// schema: exact column count, every expected column present, and column
// types within their equivalence classes. Findings are logged and
// aggregated into one OutputContractError.
func (x *Executor) validateTable(uid string, port string, tabular gflow.Tabular, expected gflow.ColumnSchema) error {
	names, err := tabular.ColumnNames()
	if err != nil {
		return err
	}
	if len(names) != len(expected) {
		x.log.Error().
			Str("node", uid).
			Msgf("expect %d columns, only see %d columns", len(expected), len(names))
		return errors.OutputContractError{
			Node:   uid,
			Port:   port,
			Reason: fmt.Errorf("expected %d columns, produced %d", len(expected), len(names)),
		}
	}
	produced := make(map[string]bool, len(names))
	for _, name := range names {
		produced[name] = true
	}
	var findings *multierror.Error
	for colName, colType := range expected {
		if !produced[colName] {
			x.log.Error().
				Str("node", uid).
				Str("column", colName).
				Msg("column is missing from the output")
			findings = multierror.Append(findings, fmt.Errorf("column \"%s\" is missing from the output", colName))
			continue
		}
		if colType == gflow.AnyType {
			continue
		}
		dtype, err := tabular.DType(colName)
		if err != nil {
			return err
		}
		if !gflow.TypeTagsMatch(colType, dtype) {
			x.log.Error().
				Str("node", uid).
				Str("column", colName).
				Msgf("column type \"%s\" does not match expected type \"%s\"", dtype, colType)
			findings = multierror.Append(findings, fmt.Errorf("column \"%s\" type \"%s\" does not match expected type \"%s\"", colName, dtype, colType))
		}
	}
	if err := findings.ErrorOrNil(); err != nil {
		return errors.OutputContractError{Node: uid, Port: port, Reason: err}
	}
	return nil
}
