package dataset

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/go-gflow/gflow"
	"github.com/stretchr/testify/require"
)

func createTestPartitionTable(offset int) *Table {
	return CreateTable(
		Column{Name: "value", DType: "int64", Values: []interface{}{int64(offset), int64(offset + 1)}},
	)
}

func TestPartitionPersistExactlyOnce(t *testing.T) {
	var calls int64
	p := DeferredPartition(func() (*Table, error) {
		atomic.AddInt64(&calls, 1)
		return createTestPartitionTable(0), nil
	})
	require.Nil(t, p.Persist())
	require.Nil(t, p.Persist())
	_, err := p.Table()
	require.Nil(t, err)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestPartitionPersistMemoizesError(t *testing.T) {
	var calls int64
	p := DeferredPartition(func() (*Table, error) {
		atomic.AddInt64(&calls, 1)
		return nil, fmt.Errorf("compute failed")
	})
	require.NotNil(t, p.Persist())
	require.NotNil(t, p.Persist())
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestDistributedBasics(t *testing.T) {
	d := DistributedFromTables(createTestPartitionTable(0), createTestPartitionTable(2))
	require.Equal(t, gflow.DistributedDataset, d.Kind())
	require.Equal(t, 2, d.NumPartitions())
	numRows, err := d.Len()
	require.Nil(t, err)
	require.Equal(t, 4, numRows)
	names, err := d.ColumnNames()
	require.Nil(t, err)
	require.Equal(t, []string{"value"}, names)
	dtype, err := d.DType("value")
	require.Nil(t, err)
	require.Equal(t, gflow.TypeTag("int64"), dtype)
	_, err = d.PartitionAt(5)
	require.NotNil(t, err)
}

func TestDistributedCollectOrders(t *testing.T) {
	numPartitions := 8
	parts := make([]*Partition, numPartitions)
	for i := 0; i < numPartitions; i++ {
		i := i
		parts[i] = DeferredPartition(func() (*Table, error) {
			return createTestPartitionTable(i * 2), nil
		})
	}
	d := CreateDistributed(parts...)
	collected, err := d.Collect(4)
	require.Nil(t, err)
	col, err := collected.Column("value")
	require.Nil(t, err)
	// partition order is preserved regardless of materialization order
	for i := 0; i < numPartitions*2; i++ {
		require.Equal(t, int64(i), col.Values[i])
	}
}

func TestDistributedPersistPropagatesError(t *testing.T) {
	d := CreateDistributed(
		PartitionOf(createTestPartitionTable(0)),
		DeferredPartition(func() (*Table, error) {
			return nil, fmt.Errorf("partition failed")
		}),
	)
	require.NotNil(t, d.Persist(2))
}

func TestDistributedShallowCopySharesPartitions(t *testing.T) {
	var calls int64
	p := DeferredPartition(func() (*Table, error) {
		atomic.AddInt64(&calls, 1)
		return createTestPartitionTable(0), nil
	})
	d := CreateDistributed(p)
	copied := d.ShallowCopy()
	require.Nil(t, d.Persist(1))
	require.Nil(t, copied.Persist(1))
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}
