package flow

import (
	"strings"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/errors"
	"github.com/go-gflow/gflow/schema"
)

// propagateAll resets schema state and runs the propagation walk from every
// root. Propagation is idempotent and order-independent: a node re-computes
// only once every inbound port's schema is known, and intermediate visits
// are no-ops.
func (x *Executor) propagateAll() error {
	x.resetSchemaState()
	for _, root := range x.graph.Roots() {
		if err := x.propagate(root); err != nil {
			return err
		}
	}
	return nil
}

// refString names the upstream source of an edge for error messages
func refString(e gflow.Edge) string {
	if len(e.FromPort) > 0 {
		return e.From + "." + e.FromPort
	}
	return e.From
}

func (x *Executor) propagate(uid string) error {
	node := x.graph.Node(uid)
	st := x.getState(uid)
	inbound := x.graph.Inbound(uid)
	for _, e := range inbound {
		if _, ok := st.inputCols[e.ToPort]; !ok {
			// resumed later, when the last needed predecessor pushes its schema
			return nil
		}
	}

	setup := node.ColumnSetup()
	conf := node.Conf()

	var flatInput gflow.ColumnSchema
	if !node.UsesPorts() {
		flatInput = gflow.FlattenSchemas(st.inputCols)
	}

	// validate required columns against the inbound schemas
	if node.UsesPorts() {
		for _, e := range inbound {
			required := setup.Required.ForPort(e.ToPort)
			if len(required) == 0 {
				continue
			}
			translated, err := schema.Translate(required, conf, uid)
			if err != nil {
				return err
			}
			if err := x.validateRequired(node, e.ToPort, st.inputCols[e.ToPort], translated, refString(e)); err != nil {
				return err
			}
		}
	} else if len(setup.Required.Flat) > 0 {
		translated, err := schema.Translate(setup.Required.Flat, conf, uid)
		if err != nil {
			return err
		}
		upstream := make([]string, len(inbound))
		for i, e := range inbound {
			upstream[i] = refString(e)
		}
		if err := x.validateRequired(node, "", flatInput, translated, strings.Join(upstream, ", ")); err != nil {
			return err
		}
	}

	// seed the output schemas
	if node.UsesPorts() {
		st.outCols = make(map[string]gflow.ColumnSchema)
		for _, oport := range node.OutputPorts() {
			// the required entries keyed by this output port's name seed it
			translated, err := schema.Translate(setup.Required.ForPort(oport.Name), conf, uid)
			if err != nil {
				return err
			}
			st.outCols[oport.Name] = translated
		}
	} else {
		// positional nodes pass their flattened input columns through
		st.outFlat = flatInput.Clone()
	}

	if err := x.applyColumnOps(node, st); err != nil {
		return err
	}

	// push schemas downstream and recurse
	for _, e := range x.graph.Outbound(uid) {
		var outSchema gflow.ColumnSchema
		if len(e.FromPort) > 0 {
			outSchema = st.outCols[e.FromPort]
		} else if node.UsesPorts() {
			// flatten across all output ports for a positional target
			outSchema = make(gflow.ColumnSchema)
			for _, oport := range node.OutputPorts() {
				outSchema.Merge(st.outCols[oport.Name])
			}
		} else {
			outSchema = st.outFlat
		}
		child := x.getState(e.To)
		child.inputCols[e.ToPort] = outSchema.Clone()
		if err := x.propagate(e.To); err != nil {
			return err
		}
	}
	return nil
}

// validateRequired checks one translated required-column map against an
// inbound schema. A missing column is fatal; a type mismatch outside the
// date equivalence class is reported and execution continues.
func (x *Executor) validateRequired(node gflow.Node, port string, incoming gflow.ColumnSchema, required gflow.ColumnSchema, upstream string) error {
	for colName, colType := range required {
		incomingType, ok := incoming[colName]
		if !ok {
			return errors.SchemaError{Node: node.UID(), Port: port, Column: colName, Upstream: upstream}
		}
		if colType == incomingType {
			continue
		}
		if colType == gflow.DateType && gflow.IsDateTypeTag(incomingType) {
			continue
		}
		x.log.Warn().
			Str("node", node.UID()).
			Str("column", colName).
			Msgf("required column type %q mismatches incoming type %q", colType, incomingType)
	}
	return nil
}

// applyColumnOps applies addition, deletion, retention and rename, in that
// order, to the seeded output schemas. Retention replaces the whole schema
// after addition/deletion have run, so it discards prior additions unless
// the retained set re-declares them.
func (x *Executor) applyColumnOps(node gflow.Node, st *nodeState) error {
	uid := node.UID()
	conf := node.Conf()
	setup := node.ColumnSetup()

	forEachPortSchema := func(op func(port string, cols gflow.ColumnSchema) (gflow.ColumnSchema, error)) error {
		if node.UsesPorts() {
			for _, oport := range node.OutputPorts() {
				cols, err := op(oport.Name, st.outCols[oport.Name])
				if err != nil {
					return err
				}
				st.outCols[oport.Name] = cols
			}
			return nil
		}
		cols, err := op("", st.outFlat)
		if err != nil {
			return err
		}
		st.outFlat = cols
		return nil
	}

	opSchema := func(ops gflow.ColumnOps, port string) gflow.ColumnSchema {
		if node.UsesPorts() {
			return ops.ForPort(port)
		}
		return ops.Flat
	}

	if !setup.Addition.IsEmpty() {
		if err := forEachPortSchema(func(port string, cols gflow.ColumnSchema) (gflow.ColumnSchema, error) {
			translated, err := schema.Translate(opSchema(setup.Addition, port), conf, uid)
			if err != nil {
				return nil, err
			}
			cols.Merge(translated)
			return cols, nil
		}); err != nil {
			return err
		}
	}

	if !setup.Deletion.IsEmpty() {
		if err := forEachPortSchema(func(port string, cols gflow.ColumnSchema) (gflow.ColumnSchema, error) {
			translated, err := schema.Translate(opSchema(setup.Deletion, port), conf, uid)
			if err != nil {
				return nil, err
			}
			for colName := range translated {
				if _, ok := cols[colName]; !ok {
					return nil, errors.SchemaError{Node: uid, Port: port, Column: colName, Deletion: true}
				}
				delete(cols, colName)
			}
			return cols, nil
		}); err != nil {
			return err
		}
	}

	if setup.Retention != nil {
		if err := forEachPortSchema(func(port string, cols gflow.ColumnSchema) (gflow.ColumnSchema, error) {
			// replaces the schema wholesale, even when empty
			return schema.Translate(opSchema(*setup.Retention, port), conf, uid)
		}); err != nil {
			return err
		}
	}

	if !setup.Rename.IsEmpty() {
		if err := forEachPortSchema(func(port string, cols gflow.ColumnSchema) (gflow.ColumnSchema, error) {
			translated, err := schema.Translate(opSchema(setup.Rename, port), conf, uid)
			if err != nil {
				return nil, err
			}
			for oldName, newName := range translated {
				colType, ok := cols[oldName]
				if !ok {
					return nil, errors.RenameError{Node: uid, Port: port, Column: oldName}
				}
				delete(cols, oldName)
				cols[string(newName)] = colType
			}
			return cols, nil
		}); err != nil {
			return err
		}
	}
	return nil
}
