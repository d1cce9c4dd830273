package flow

import (
	"testing"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/dataset"
	"github.com/go-gflow/gflow/errors"
	"github.com/go-gflow/gflow/logging"
	"github.com/stretchr/testify/require"
)

func bareExecutor() *Executor {
	opts := &Options{}
	ensureDefaultOptionsValues(opts)
	return &Executor{opts: opts, log: logging.Nop(), state: make(map[string]*nodeState)}
}

func typedTable(colsAndTypes ...string) *dataset.Table {
	cols := make([]dataset.Column, 0, len(colsAndTypes)/2)
	for i := 0; i+1 < len(colsAndTypes); i += 2 {
		cols = append(cols, dataset.Column{
			Name:   colsAndTypes[i],
			DType:  gflow.TypeTag(colsAndTypes[i+1]),
			Values: []interface{}{nil},
		})
	}
	return dataset.CreateTable(cols...)
}

func TestValidateTableDateEquivalenceClass(t *testing.T) {
	x := bareExecutor()
	expected := gflow.ColumnSchema{"ts": "date"}
	for _, tag := range []string{"datetime64[ms]", "date", "datetime64[ns]"} {
		err := x.validateTable("n", "out", typedTable("ts", tag), expected)
		require.Nil(t, err, "tag %q should satisfy a date expectation", tag)
	}
	err := x.validateTable("n", "out", typedTable("ts", "int64"), expected)
	require.NotNil(t, err)
	require.IsType(t, errors.OutputContractError{}, err)
}

func TestValidateTableCategoricalIsItsOwnClass(t *testing.T) {
	x := bareExecutor()
	expected := gflow.ColumnSchema{"sector": "category"}
	require.Nil(t, x.validateTable("n", "out", typedTable("sector", "category"), expected))
	err := x.validateTable("n", "out", typedTable("sector", "object"), expected)
	require.NotNil(t, err)
	require.IsType(t, errors.OutputContractError{}, err)
}

func TestValidateTableAliasNormalization(t *testing.T) {
	x := bareExecutor()
	require.Nil(t, x.validateTable("n", "out",
		typedTable("x", "int64", "s", "object"),
		gflow.ColumnSchema{"x": "int", "s": "str"}))
}

func TestValidateTableColumnCountMismatch(t *testing.T) {
	x := bareExecutor()
	err := x.validateTable("n", "out", typedTable("x", "int64"),
		gflow.ColumnSchema{"x": "int64", "y": "int64"})
	require.NotNil(t, err)
	require.IsType(t, errors.OutputContractError{}, err)
	require.Contains(t, err.Error(), "expected 2 columns")
}

func TestValidateTableMissingColumn(t *testing.T) {
	x := bareExecutor()
	err := x.validateTable("n", "out", typedTable("z", "int64"),
		gflow.ColumnSchema{"x": "int64"})
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "\"x\" is missing")
}

func TestValidateTableAnyTypeSkipsDtypeCheck(t *testing.T) {
	x := bareExecutor()
	require.Nil(t, x.validateTable("n", "out", typedTable("x", "int64"),
		gflow.ColumnSchema{"x": gflow.AnyType}))
}

func TestValidateTableAggregatesFindings(t *testing.T) {
	x := bareExecutor()
	err := x.validateTable("n", "out",
		typedTable("z", "int64", "s", "object"),
		gflow.ColumnSchema{"x": "int64", "s": "float64"})
	require.NotNil(t, err)
	// one missing column plus one type mismatch surface together
	require.Contains(t, err.Error(), "\"x\" is missing")
	require.Contains(t, err.Error(), "\"s\"")
}
