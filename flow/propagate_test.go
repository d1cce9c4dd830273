package flow

import (
	"testing"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/dataset"
	"github.com/go-gflow/gflow/errors"
	"github.com/go-gflow/gflow/graph"
	"github.com/stretchr/testify/require"
)

// schemaOnlySource declares an output schema without ever running
func schemaOnlySource(t *testing.T, uid string, schema gflow.ColumnSchema) gflow.Node {
	return sourceNode(t, uid, schema, dataset.CreateTable())
}

func positionalWithSetup(t *testing.T, uid string, setup gflow.ColumnSetup) gflow.Node {
	return mustNode(t, &graph.TaskNodeConfig{
		UID:     uid,
		Columns: setup,
		PositionalProcess: func(inputs []gflow.Dataset) (gflow.Dataset, error) {
			return inputs[0], nil
		},
	})
}

func propagateChain(t *testing.T, source gflow.Node, sink gflow.Node) (*Executor, error) {
	g, err := graph.Assemble(
		[]gflow.Node{source, sink},
		[]gflow.Edge{{From: source.UID(), FromPort: "out", To: sink.UID(), ToPort: "0"}},
		nil,
	)
	require.Nil(t, err)
	x, err := CreateExecutor(g, quietOptions())
	require.Nil(t, err)
	return x, x.PropagateSchemas()
}

func TestPropagateRequiredAndAddition(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Required: gflow.ColumnOps{Flat: gflow.ColumnSchema{"x": "int64"}},
		Addition: gflow.ColumnOps{Flat: gflow.ColumnSchema{"y": "int64"}},
	})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)
	_, flat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"x": "int64", "y": "int64"}, flat)
}

func TestPropagateIdempotence(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64", "y": "float64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Addition: gflow.ColumnOps{Flat: gflow.ColumnSchema{"z": "int64"}},
		Deletion: gflow.ColumnOps{Flat: gflow.ColumnSchema{"y": gflow.AnyType}},
	})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)
	_, first, err := x.OutputColumns("sink")
	require.Nil(t, err)
	snapshot := first.Clone()

	require.Nil(t, x.PropagateSchemas())
	_, second, err := x.OutputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, snapshot, second)
}

func TestPropagateDeletion(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64", "y": "int64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Deletion: gflow.ColumnOps{Flat: gflow.ColumnSchema{"x": gflow.AnyType}},
	})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)
	_, flat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"y": "int64"}, flat)
}

func TestPropagateDeletionOfAbsentColumn(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Deletion: gflow.ColumnOps{Flat: gflow.ColumnSchema{"q": gflow.AnyType}},
	})
	_, err := propagateChain(t, source, sink)
	require.NotNil(t, err)
	require.IsType(t, errors.SchemaError{}, err)
	require.Contains(t, err.Error(), "\"q\"")
	require.Contains(t, err.Error(), "\"sink\"")
}

func TestPropagateRetentionDiscardsAddition(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64", "y": "int64"})
	retention := gflow.ColumnOps{Flat: gflow.ColumnSchema{"y": "int64"}}
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Addition:  gflow.ColumnOps{Flat: gflow.ColumnSchema{"z": "int64"}},
		Retention: &retention,
	})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)
	_, flat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	// retention replaces the schema wholesale, discarding the addition
	require.Equal(t, gflow.ColumnSchema{"y": "int64"}, flat)
}

func TestPropagateEmptyRetentionWipesSchema(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64"})
	retention := gflow.ColumnOps{}
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{Retention: &retention})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)
	_, flat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, 0, len(flat))
}

func TestPropagateRenameRoundTrip(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"a": "int64"})
	forward := positionalWithSetup(t, "forward", gflow.ColumnSetup{
		Rename: gflow.ColumnOps{Flat: gflow.ColumnSchema{"a": "b"}},
	})
	backward := positionalWithSetup(t, "backward", gflow.ColumnSetup{
		Rename: gflow.ColumnOps{Flat: gflow.ColumnSchema{"b": "a"}},
	})
	g, err := graph.Assemble(
		[]gflow.Node{source, forward, backward},
		[]gflow.Edge{
			{From: "src", FromPort: "out", To: "forward", ToPort: "0"},
			{From: "forward", To: "backward", ToPort: "0"},
		},
		nil,
	)
	require.Nil(t, err)
	x, err := CreateExecutor(g, quietOptions())
	require.Nil(t, err)
	require.Nil(t, x.PropagateSchemas())

	_, mid, err := x.OutputColumns("forward")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"b": "int64"}, mid)
	_, flat, err := x.OutputColumns("backward")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"a": "int64"}, flat)
}

func TestPropagateRenameOfAbsentColumn(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"a": "int64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Rename: gflow.ColumnOps{Flat: gflow.ColumnSchema{"missing": "b"}},
	})
	_, err := propagateChain(t, source, sink)
	require.NotNil(t, err)
	require.IsType(t, errors.RenameError{}, err)
}

func TestPropagateMissingRequiredColumn(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64"})
	sink := mustNode(t, &graph.TaskNodeConfig{
		UID:        "sink",
		InputPorts: []gflow.PortSpec{{Name: "in"}},
		Columns: gflow.ColumnSetup{
			Required: gflow.ColumnOps{Ports: map[string]gflow.ColumnSchema{"in": {"q": "int64"}}},
		},
		Process: func(inputs map[string]gflow.Dataset) (map[string]gflow.Dataset, error) {
			return map[string]gflow.Dataset{}, nil
		},
	})
	g, err := graph.Assemble(
		[]gflow.Node{source, sink},
		[]gflow.Edge{{From: "src", FromPort: "out", To: "sink", ToPort: "in"}},
		nil,
	)
	require.Nil(t, err)
	x, err := CreateExecutor(g, quietOptions())
	require.Nil(t, err)
	err = x.PropagateSchemas()
	require.NotNil(t, err)
	require.IsType(t, errors.SchemaError{}, err)
	// the error names the node, the missing column, and the upstream source
	require.Contains(t, err.Error(), "\"sink\"")
	require.Contains(t, err.Error(), "\"q\"")
	require.Contains(t, err.Error(), "src.out")
}

func TestPropagateTypeMismatchIsNonFatal(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "float64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Required: gflow.ColumnOps{Flat: gflow.ColumnSchema{"x": "int64"}},
	})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)
	_, flat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"x": "float64"}, flat)
}

func TestPropagateDateEquivalenceClass(t *testing.T) {
	for _, incoming := range []gflow.TypeTag{"datetime64[ms]", "date", "datetime64[ns]"} {
		source := schemaOnlySource(t, "src", gflow.ColumnSchema{"asof": incoming})
		sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
			Required: gflow.ColumnOps{Flat: gflow.ColumnSchema{"asof": "date"}},
		})
		_, err := propagateChain(t, source, sink)
		require.Nil(t, err)
	}
}

func TestPropagatePortedFlattensToPositionalTarget(t *testing.T) {
	producer := mustNode(t, &graph.TaskNodeConfig{
		UID: "producer",
		OutputPorts: []gflow.PortSpec{
			{Name: "a"},
			{Name: "b"},
		},
		Columns: gflow.ColumnSetup{
			Required: gflow.ColumnOps{Ports: map[string]gflow.ColumnSchema{
				"a": {"x": "int64"},
				"b": {"y": "int64"},
			}},
		},
		Process: func(inputs map[string]gflow.Dataset) (map[string]gflow.Dataset, error) {
			return map[string]gflow.Dataset{}, nil
		},
	})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{})
	g, err := graph.Assemble(
		[]gflow.Node{producer, sink},
		[]gflow.Edge{{From: "producer", To: "sink", ToPort: "0"}},
		nil,
	)
	require.Nil(t, err)
	x, err := CreateExecutor(g, quietOptions())
	require.Nil(t, err)
	require.Nil(t, x.PropagateSchemas())
	incoming, err := x.InputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"x": "int64", "y": "int64"}, incoming["0"])
}

func TestPropagateMacroSubstitution(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64"})
	sink := mustNode(t, &graph.TaskNodeConfig{
		UID:  "sink",
		Conf: gflow.Conf{"column": "signal", "column_type": "float64"},
		Columns: gflow.ColumnSetup{
			Addition: gflow.ColumnOps{Flat: gflow.ColumnSchema{"@column": "@column_type"}},
		},
		PositionalProcess: func(inputs []gflow.Dataset) (gflow.Dataset, error) {
			return inputs[0], nil
		},
	})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)
	_, flat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"x": "int64", "signal": "float64"}, flat)
}

func TestPropagateMacroMissingConfKey(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Addition: gflow.ColumnOps{Flat: gflow.ColumnSchema{"@column": "int64"}},
	})
	_, err := propagateChain(t, source, sink)
	require.NotNil(t, err)
	require.IsType(t, errors.ConfigKeyError{}, err)
}

func TestSchemaAccessorsReturnDetachedCopies(t *testing.T) {
	source := schemaOnlySource(t, "src", gflow.ColumnSchema{"x": "int64"})
	sink := positionalWithSetup(t, "sink", gflow.ColumnSetup{
		Addition: gflow.ColumnOps{Flat: gflow.ColumnSchema{"y": "int64"}},
	})
	x, err := propagateChain(t, source, sink)
	require.Nil(t, err)

	ports, _, err := x.OutputColumns("src")
	require.Nil(t, err)
	ports["out"]["x"] = "object"
	ports["out"]["extra"] = "int64"
	fresh, _, err := x.OutputColumns("src")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"x": "int64"}, fresh["out"])

	_, flat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	flat["z"] = "float64"
	_, freshFlat, err := x.OutputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"x": "int64", "y": "int64"}, freshFlat)

	inputs, err := x.InputColumns("sink")
	require.Nil(t, err)
	inputs["0"]["x"] = "object"
	freshInputs, err := x.InputColumns("sink")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"x": "int64"}, freshInputs["0"])
}
