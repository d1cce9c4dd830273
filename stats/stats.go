// Package stats tracks statistics about graph runs.
package stats

import (
	"time"
)

// RunStatistics contains statistics about a running gflow graph. A graph
// walk is single-threaded, so RunStatistics is not safe for concurrent use.
type RunStatistics struct {
	started             bool
	startTime           time.Time
	totalRuntime        int64
	nodesProcessed      int64
	partitionsProcessed int64
	nodeRuntimes        map[string]int64

	// temp vars
	currentNodeStartTime time.Time
}

// CreateRunStatistics produces an empty RunStatistics
func CreateRunStatistics() *RunStatistics {
	return &RunStatistics{nodeRuntimes: make(map[string]int64)}
}

// Start triggers statistics tracking, if it hasn't been started already
func (rs *RunStatistics) Start() {
	if !rs.started {
		rs.started = true
		rs.startTime = time.Now()
	}
}

// Finish completes statistics tracking
func (rs *RunStatistics) Finish() {
	rs.totalRuntime = time.Since(rs.startTime).Nanoseconds()
}

// StartNode tracks the beginning of a node's process call
func (rs *RunStatistics) StartNode() {
	rs.currentNodeStartTime = time.Now()
}

// EndNode tracks the end of a node's process call
func (rs *RunStatistics) EndNode(uid string) {
	rs.nodeRuntimes[uid] = time.Since(rs.currentNodeStartTime).Nanoseconds()
	rs.nodesProcessed++
}

// AddNodeRuntime accumulates process time spent outside a node's direct
// dispatch, such as a deferred partition transform running when it
// materializes
func (rs *RunStatistics) AddNodeRuntime(uid string, elapsed time.Duration) {
	rs.nodeRuntimes[uid] += elapsed.Nanoseconds()
}

// AddPartitions counts partitions processed by the partitioned execution
// path
func (rs *RunStatistics) AddPartitions(num int) {
	rs.partitionsProcessed += int64(num)
}

// GetStartTime returns the start time of the graph run
func (rs *RunStatistics) GetStartTime() time.Time {
	return rs.startTime
}

// GetRuntime returns the running time of the graph run
func (rs *RunStatistics) GetRuntime() time.Duration {
	if rs.totalRuntime > 0 {
		return time.Duration(rs.totalRuntime)
	}
	if !rs.started {
		return 0
	}
	return time.Since(rs.startTime)
}

// GetNumNodesProcessed returns the number of nodes which have been processed
// so far
func (rs *RunStatistics) GetNumNodesProcessed() int64 {
	return rs.nodesProcessed
}

// GetNumPartitionsProcessed returns the number of partitions which have been
// processed so far by the partitioned execution path
func (rs *RunStatistics) GetNumPartitionsProcessed() int64 {
	return rs.partitionsProcessed
}

// GetNodeRuntime returns the most recent process runtime recorded for a node
func (rs *RunStatistics) GetNodeRuntime(uid string) time.Duration {
	return time.Duration(rs.nodeRuntimes[uid])
}
