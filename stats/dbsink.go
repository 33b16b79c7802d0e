package stats

import (
	"github.com/tablesim/tablesim/datarecording"
	"github.com/tablesim/tablesim/sim"
)

const (
	observationTable = "observations"
	scalarTable      = "scalars"
)

// An ObservationEntry is one time-series sample as stored in the database.
type ObservationEntry struct {
	Owner  string
	Series string
	Value  float64
	Time   float64
}

// A ScalarEntry is one end-of-run scalar as stored in the database.
type ScalarEntry struct {
	Owner string
	Name  string
	Value float64
}

// DBSink writes observations and scalars through a DataRecorder.
type DBSink struct {
	recorder datarecording.DataRecorder
}

// NewDBSink creates a sink that stores records with the given recorder.
func NewDBSink(recorder datarecording.DataRecorder) *DBSink {
	s := &DBSink{recorder: recorder}

	s.recorder.CreateTable(observationTable, ObservationEntry{})
	s.recorder.CreateTable(scalarTable, ScalarEntry{})

	return s
}

// Observe records one sample of a series.
func (s *DBSink) Observe(
	owner, series string,
	value float64,
	time sim.VTimeInSec,
) {
	s.recorder.InsertData(observationTable, ObservationEntry{
		Owner:  owner,
		Series: series,
		Value:  value,
		Time:   float64(time),
	})
}

// RecordScalar records a final scalar.
func (s *DBSink) RecordScalar(owner, name string, value float64) {
	s.recorder.InsertData(scalarTable, ScalarEntry{
		Owner: owner,
		Name:  name,
		Value: value,
	})
}

// Flush forces the buffered records into the database.
func (s *DBSink) Flush() {
	s.recorder.Flush()
}
