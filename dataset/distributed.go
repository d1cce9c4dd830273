package dataset

import (
	"context"
	"fmt"

	"github.com/go-gflow/gflow"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Distributed is a lazy table composed of an ordered list of Partitions.
// Tabular questions materialize only as many partitions as they need.
type Distributed struct {
	parts []*Partition
}

// CreateDistributed produces a Distributed from an ordered list of
// Partitions
func CreateDistributed(parts ...*Partition) *Distributed {
	return &Distributed{parts: parts}
}

// DistributedFromTables produces a Distributed with one materialized
// Partition per Table, in order
func DistributedFromTables(tables ...*Table) *Distributed {
	parts := make([]*Partition, len(tables))
	for i, t := range tables {
		parts[i] = PartitionOf(t)
	}
	return &Distributed{parts: parts}
}

// Kind returns the runtime shape of this Distributed
func (d *Distributed) Kind() gflow.DatasetKind {
	return gflow.DistributedDataset
}

// NumPartitions returns the number of Partitions composing this Distributed
func (d *Distributed) NumPartitions() int {
	return len(d.parts)
}

// Partitions returns the ordered Partitions composing this Distributed
func (d *Distributed) Partitions() []*Partition {
	return d.parts
}

// PartitionAt returns the Partition at a given index
func (d *Distributed) PartitionAt(idx int) (*Partition, error) {
	if idx < 0 || idx >= len(d.parts) {
		return nil, fmt.Errorf("Partition index %d out of range for Distributed with %d partitions", idx, len(d.parts))
	}
	return d.parts[idx], nil
}

// ShallowCopy returns a new Distributed with a fresh partition list sharing
// the Partitions of this Distributed
func (d *Distributed) ShallowCopy() *Distributed {
	parts := make([]*Partition, len(d.parts))
	copy(parts, d.parts)
	return &Distributed{parts: parts}
}

// Persist forces every Partition of this Distributed, materializing at most
// maxParallel partitions concurrently. Partitions complete in no particular
// order relative to one another.
func (d *Distributed) Persist(maxParallel int64) error {
	if maxParallel < 1 {
		maxParallel = 1
	}
	eg, ctx := errgroup.WithContext(context.Background())
	limit := semaphore.NewWeighted(maxParallel)
	for _, p := range d.parts {
		p := p
		eg.Go(func() error {
			if err := limit.Acquire(ctx, 1); err != nil {
				return err
			}
			defer limit.Release(1)
			return p.Persist()
		})
	}
	return eg.Wait()
}

// Collect persists every Partition (at most maxParallel concurrently) and
// concatenates the realized Tables in partition order
func (d *Distributed) Collect(maxParallel int64) (*Table, error) {
	if err := d.Persist(maxParallel); err != nil {
		return nil, err
	}
	tables := make([]*Table, len(d.parts))
	for i, p := range d.parts {
		t, err := p.Table()
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}
	return Concat(tables...)
}

// Len returns the total number of rows across all Partitions, materializing
// each in turn
func (d *Distributed) Len() (int, error) {
	total := 0
	for _, p := range d.parts {
		t, err := p.Table()
		if err != nil {
			return 0, err
		}
		numRows, err := t.Len()
		if err != nil {
			return 0, err
		}
		total += numRows
	}
	return total, nil
}

// ColumnNames returns the column names of this Distributed, materializing
// the first Partition to answer
func (d *Distributed) ColumnNames() ([]string, error) {
	if len(d.parts) == 0 {
		return []string{}, nil
	}
	t, err := d.parts[0].Table()
	if err != nil {
		return nil, err
	}
	return t.ColumnNames()
}

// DType returns the type tag of a named column, materializing the first
// Partition to answer
func (d *Distributed) DType(colName string) (gflow.TypeTag, error) {
	if len(d.parts) == 0 {
		return gflow.AnyType, fmt.Errorf("Distributed with no partitions has no column \"%s\"", colName)
	}
	t, err := d.parts[0].Table()
	if err != nil {
		return gflow.AnyType, err
	}
	return t.DType(colName)
}
