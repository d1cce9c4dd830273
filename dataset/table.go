// Package dataset provides the concrete Dataset implementations which flow
// along graph edges: in-memory Tables, partitioned Distributed tables, and
// the Empty, Opaque and Group wrappers.
package dataset

import (
	"fmt"

	"github.com/go-gflow/gflow"
)

// Column is one named, typed column of a Table
type Column struct {
	Name   string
	DType  gflow.TypeTag
	Values []interface{}
}

// Table is an in-memory columnar table. Column order is the declaration
// order. Tables are treated as immutable by the engine: transforms derive
// new Tables via WithColumn/Drop/Rename/Slice rather than mutating.
type Table struct {
	cols []Column
}

// CreateTable produces a Table from an ordered list of Columns
func CreateTable(cols ...Column) *Table {
	return &Table{cols: cols}
}

// Kind returns the runtime shape of this Table
func (t *Table) Kind() gflow.DatasetKind {
	return gflow.TableDataset
}

// Len returns the number of rows in this Table
func (t *Table) Len() (int, error) {
	if len(t.cols) == 0 {
		return 0, nil
	}
	return len(t.cols[0].Values), nil
}

// NumColumns returns the number of columns in this Table
func (t *Table) NumColumns() int {
	return len(t.cols)
}

// ColumnNames returns the names of the columns in this Table, in order
func (t *Table) ColumnNames() ([]string, error) {
	names := make([]string, len(t.cols))
	for i, col := range t.cols {
		names[i] = col.Name
	}
	return names, nil
}

// DType returns the type tag of a named column
func (t *Table) DType(colName string) (gflow.TypeTag, error) {
	for _, col := range t.cols {
		if col.Name == colName {
			return col.DType, nil
		}
	}
	return gflow.AnyType, fmt.Errorf("Table does not contain column \"%s\"", colName)
}

// Column returns a named column of this Table
func (t *Table) Column(colName string) (Column, error) {
	for _, col := range t.cols {
		if col.Name == colName {
			return col, nil
		}
	}
	return Column{}, fmt.Errorf("Table does not contain column \"%s\"", colName)
}

// Columns returns the ordered columns of this Table
func (t *Table) Columns() []Column {
	return t.cols
}

// WithColumn returns a new Table with the given column replaced (by name) or
// appended. All other columns share their backing value slices with this
// Table.
func (t *Table) WithColumn(col Column) *Table {
	cols := make([]Column, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	for i := range cols {
		if cols[i].Name == col.Name {
			cols[i] = col
			return &Table{cols: cols}
		}
	}
	return &Table{cols: append(cols, col)}
}

// Drop returns a new Table without the named column
func (t *Table) Drop(colName string) (*Table, error) {
	cols := make([]Column, 0, len(t.cols))
	found := false
	for _, col := range t.cols {
		if col.Name == colName {
			found = true
			continue
		}
		cols = append(cols, col)
	}
	if !found {
		return nil, fmt.Errorf("Table does not contain column \"%s\"", colName)
	}
	return &Table{cols: cols}, nil
}

// Rename returns a new Table with one column renamed, keeping its type and
// values
func (t *Table) Rename(oldName string, newName string) (*Table, error) {
	cols := make([]Column, len(t.cols))
	copy(cols, t.cols)
	for i := range cols {
		if cols[i].Name == oldName {
			cols[i].Name = newName
			return &Table{cols: cols}, nil
		}
	}
	return nil, fmt.Errorf("Table does not contain column \"%s\"", oldName)
}

// ShallowCopy returns a new Table with a fresh column list sharing the
// backing value slices of this Table. Downstream column additions do not
// leak to sibling consumers of the original.
func (t *Table) ShallowCopy() *Table {
	cols := make([]Column, len(t.cols))
	copy(cols, t.cols)
	return &Table{cols: cols}
}

// Slice returns a row window [start, end) of this Table, sharing backing
// value slices
func (t *Table) Slice(start int, end int) (*Table, error) {
	numRows, _ := t.Len()
	if start < 0 || end < start || end > numRows {
		return nil, fmt.Errorf("Slice [%d, %d) out of range for Table with %d rows", start, end, numRows)
	}
	cols := make([]Column, len(t.cols))
	for i, col := range t.cols {
		cols[i] = Column{Name: col.Name, DType: col.DType, Values: col.Values[start:end]}
	}
	return &Table{cols: cols}, nil
}

// Concat concatenates Tables with identical column layouts, in order
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return CreateTable(), nil
	}
	first := tables[0]
	cols := make([]Column, len(first.cols))
	for i, col := range first.cols {
		values := make([]interface{}, 0, len(col.Values))
		cols[i] = Column{Name: col.Name, DType: col.DType, Values: values}
	}
	for _, t := range tables {
		if t.NumColumns() != len(cols) {
			return nil, fmt.Errorf("Unable to concat Tables with differing column counts (%d vs %d)", len(cols), t.NumColumns())
		}
		for i := range cols {
			col, err := t.Column(cols[i].Name)
			if err != nil {
				return nil, err
			}
			cols[i].Values = append(cols[i].Values, col.Values...)
		}
	}
	return &Table{cols: cols}, nil
}
