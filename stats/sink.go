// Package stats collects the observations and final scalars that tables
// and users produce during a run.
package stats

import (
	"github.com/tablesim/tablesim/sim"
)

// Series names observed by tables.
const (
	SeriesQueueLength = "queueLength"
	SeriesWaitingTime = "waitingTime"
	SeriesThroughput  = "throughput"
	SeriesUtilization = "utilization"
)

// Series names observed by users.
const (
	SeriesWaitTime       = "waitTime"
	SeriesReadAccess     = "readAccess"
	SeriesWriteAccess    = "writeAccess"
	SeriesAccessInterval = "accessInterval"
)

// A Sink receives time-series observations and end-of-run scalars for
// offline analysis.
type Sink interface {
	// Observe records one sample of a named series emitted by a component
	// at a simulated time.
	Observe(owner, series string, value float64, time sim.VTimeInSec)

	// RecordScalar records a final scalar value for a component.
	RecordScalar(owner, name string, value float64)

	// Flush forces all the buffered records out.
	Flush()
}

// NullSink discards everything. It is used in tests that only care about
// component state.
type NullSink struct{}

// Observe does nothing.
func (NullSink) Observe(owner, series string, value float64, time sim.VTimeInSec) {
}

// RecordScalar does nothing.
func (NullSink) RecordScalar(owner, name string, value float64) {}

// Flush does nothing.
func (NullSink) Flush() {}
