package dataset

import (
	"sync"
)

// Partition is one independently-processable slice of a Distributed
// Dataset, modelled as a memoized future over a Table. Persist is the sole
// forcing point: it blocks until the partition's Table is realized, and the
// compute function runs exactly once no matter how often the Partition is
// forced or referenced.
type Partition struct {
	lock    sync.Mutex
	compute func() (*Table, error)
	table   *Table
	err     error
	done    bool
}

// PartitionOf produces an already-materialized Partition wrapping a Table
func PartitionOf(table *Table) *Partition {
	return &Partition{table: table, done: true}
}

// DeferredPartition produces a lazy Partition which realizes its Table via
// compute on first Persist
func DeferredPartition(compute func() (*Table, error)) *Partition {
	return &Partition{compute: compute}
}

// Persist forces this Partition, blocking until its Table is realized.
// Subsequent calls return the memoized outcome.
func (p *Partition) Persist() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.done {
		return p.err
	}
	p.table, p.err = p.compute()
	p.compute = nil
	p.done = true
	return p.err
}

// Table forces this Partition and returns its realized Table
func (p *Partition) Table() (*Table, error) {
	if err := p.Persist(); err != nil {
		return nil, err
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.table, nil
}
