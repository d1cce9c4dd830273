package schema

import (
	"testing"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/errors"
	"github.com/stretchr/testify/require"
)

func TestTranslatePassthrough(t *testing.T) {
	cols := gflow.ColumnSchema{"price": "float64", "volume": "int64"}
	res, err := Translate(cols, gflow.Conf{}, "node0")
	require.Nil(t, err)
	require.Equal(t, cols, res)
}

func TestTranslateNameMacroScalar(t *testing.T) {
	cols := gflow.ColumnSchema{"@column": "float64"}
	conf := gflow.Conf{"column": "returns"}
	res, err := Translate(cols, conf, "node0")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"returns": "float64"}, res)
}

func TestTranslateNameMacroSequence(t *testing.T) {
	cols := gflow.ColumnSchema{"@columns": "float64"}
	conf := gflow.Conf{"columns": []interface{}{"open", "close"}}
	res, err := Translate(cols, conf, "node0")
	require.Nil(t, err)
	// expansion discards the declared type
	require.Equal(t, gflow.ColumnSchema{"open": gflow.AnyType, "close": gflow.AnyType}, res)
}

func TestTranslateTypeMacro(t *testing.T) {
	cols := gflow.ColumnSchema{"asof": "@asof_type"}
	conf := gflow.Conf{"asof_type": "datetime64[ns]"}
	res, err := Translate(cols, conf, "node0")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"asof": "datetime64[ns]"}, res)
}

func TestTranslateNameAndTypeMacro(t *testing.T) {
	cols := gflow.ColumnSchema{"@column": "@column_type"}
	conf := gflow.Conf{"column": "signal", "column_type": "int64"}
	res, err := Translate(cols, conf, "node0")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"signal": "int64"}, res)
}

func TestTranslateMissingNameKey(t *testing.T) {
	cols := gflow.ColumnSchema{"@column": "float64"}
	_, err := Translate(cols, gflow.Conf{}, "node0")
	require.NotNil(t, err)
	require.IsType(t, errors.ConfigKeyError{}, err)
}

func TestTranslateMissingTypeKey(t *testing.T) {
	cols := gflow.ColumnSchema{"asof": "@asof_type"}
	_, err := Translate(cols, gflow.Conf{}, "node0")
	require.NotNil(t, err)
	require.IsType(t, errors.ConfigKeyError{}, err)
}

func TestTranslateNonStringTypeValue(t *testing.T) {
	cols := gflow.ColumnSchema{"asof": "@asof_type"}
	conf := gflow.Conf{"asof_type": 42}
	_, err := Translate(cols, conf, "node0")
	require.NotNil(t, err)
	require.IsType(t, errors.ConfigKeyError{}, err)
}

func TestTranslateUnusableNameValueDropsEntry(t *testing.T) {
	cols := gflow.ColumnSchema{"@column": "float64", "kept": "int64"}
	conf := gflow.Conf{"column": 42}
	res, err := Translate(cols, conf, "node0")
	require.Nil(t, err)
	require.Equal(t, gflow.ColumnSchema{"kept": "int64"}, res)
}
