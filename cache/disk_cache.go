// Package cache persists node outputs between graph runs. DiskCache writes
// gob-encoded, lz4-compressed dataset snapshots to a directory, one file per
// key.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/docker/docker/pkg/locker"
	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/dataset"
	"github.com/go-gflow/gflow/errors"
	"github.com/pierrec/lz4"
)

func init() {
	// concrete cell types transmissible through interface-typed column values
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register(time.Time{})
}

const (
	tableSnapshotKind = iota
	distributedSnapshotKind
)

type columnSnapshot struct {
	Name   string
	DType  string
	Values []interface{}
}

type tableSnapshot struct {
	Columns []columnSnapshot
}

type datasetSnapshot struct {
	Kind       int
	Table      tableSnapshot
	Partitions []tableSnapshot
}

// DiskCacheConfig configures a DiskCache
type DiskCacheConfig struct {
	Dir             string // directory to store cache files in; defaults to the system temp dir
	PersistParallel int64  // max partitions materialized concurrently when saving a distributed dataset
}

func ensureDefaultDiskCacheConfigValues(conf *DiskCacheConfig) {
	if len(conf.Dir) == 0 {
		conf.Dir = os.TempDir()
	}
	if conf.PersistParallel == 0 {
		conf.PersistParallel = 4
	}
}

// DiskCache is an on-disk Cache for Datasets. Keys are hashed into
// filenames, and per-key named locks serialize concurrent access to the
// same key.
type DiskCache struct {
	conf  *DiskCacheConfig
	locks *locker.Locker
}

// CreateDiskCache produces a DiskCache rooted at conf.Dir
func CreateDiskCache(conf *DiskCacheConfig) (*DiskCache, error) {
	ensureDefaultDiskCacheConfigValues(conf)
	if err := os.MkdirAll(conf.Dir, 0755); err != nil {
		return nil, err
	}
	return &DiskCache{conf: conf, locks: locker.New()}, nil
}

func (c *DiskCache) keyPath(key string) string {
	return path.Join(c.conf.Dir, fmt.Sprintf("%016x.gflow.lz4", xxhash.Sum64String(key)))
}

// Save snapshots a Dataset to disk under a key, overwriting any previous
// value. Table and Distributed Datasets are supported; a Distributed is
// fully materialized before snapshotting.
func (c *DiskCache) Save(key string, value gflow.Dataset) error {
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	snap, err := snapshotDataset(value, c.conf.PersistParallel)
	if err != nil {
		return err
	}
	buff := new(bytes.Buffer)
	compressor := lz4.NewWriter(buff)
	if err := gob.NewEncoder(compressor).Encode(snap); err != nil {
		return err
	}
	if err := compressor.Close(); err != nil {
		return err
	}
	return ioutil.WriteFile(c.keyPath(key), buff.Bytes(), 0644)
}

// Load restores a previously-saved Dataset from disk. A missing key is a
// CacheMissError.
func (c *DiskCache) Load(key string) (gflow.Dataset, error) {
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	data, err := ioutil.ReadFile(c.keyPath(key))
	if os.IsNotExist(err) {
		return nil, errors.CacheMissError{Key: key}
	} else if err != nil {
		return nil, err
	}
	var snap datasetSnapshot
	decompressor := lz4.NewReader(bytes.NewReader(data))
	if err := gob.NewDecoder(decompressor).Decode(&snap); err != nil {
		return nil, err
	}
	return restoreDataset(&snap)
}

func snapshotDataset(value gflow.Dataset, persistParallel int64) (*datasetSnapshot, error) {
	switch ds := value.(type) {
	case *dataset.Table:
		return &datasetSnapshot{Kind: tableSnapshotKind, Table: snapshotTable(ds)}, nil
	case *dataset.Distributed:
		if err := ds.Persist(persistParallel); err != nil {
			return nil, err
		}
		parts := make([]tableSnapshot, ds.NumPartitions())
		for i, p := range ds.Partitions() {
			t, err := p.Table()
			if err != nil {
				return nil, err
			}
			parts[i] = snapshotTable(t)
		}
		return &datasetSnapshot{Kind: distributedSnapshotKind, Partitions: parts}, nil
	default:
		return nil, fmt.Errorf("Unable to cache dataset of kind \"%s\"", value.Kind())
	}
}

func snapshotTable(t *dataset.Table) tableSnapshot {
	cols := t.Columns()
	snap := tableSnapshot{Columns: make([]columnSnapshot, len(cols))}
	for i, col := range cols {
		snap.Columns[i] = columnSnapshot{Name: col.Name, DType: string(col.DType), Values: col.Values}
	}
	return snap
}

func restoreDataset(snap *datasetSnapshot) (gflow.Dataset, error) {
	switch snap.Kind {
	case tableSnapshotKind:
		return restoreTable(&snap.Table), nil
	case distributedSnapshotKind:
		tables := make([]*dataset.Table, len(snap.Partitions))
		for i := range snap.Partitions {
			tables[i] = restoreTable(&snap.Partitions[i])
		}
		return dataset.DistributedFromTables(tables...), nil
	default:
		return nil, fmt.Errorf("Unknown dataset snapshot kind %d", snap.Kind)
	}
}

func restoreTable(snap *tableSnapshot) *dataset.Table {
	cols := make([]dataset.Column, len(snap.Columns))
	for i, col := range snap.Columns {
		cols[i] = dataset.Column{Name: col.Name, DType: gflow.TypeTag(col.DType), Values: col.Values}
	}
	return dataset.CreateTable(cols...)
}
