// Package simulation wires the engine, the data recorder, the statistics
// sink, and the monitor into one simulation.
package simulation

import (
	"github.com/tablesim/tablesim/datarecording"
	"github.com/tablesim/tablesim/monitoring"
	"github.com/tablesim/tablesim/sim"
	"github.com/tablesim/tablesim/stats"
)

// A Simulation provides the services required to define a simulation.
type Simulation struct {
	id string

	engine       sim.Engine
	dataRecorder datarecording.DataRecorder
	sink         stats.Sink
	monitor      *monitoring.Monitor

	components    []sim.Component
	compNameIndex map[string]int
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetSink returns the statistics sink used in the simulation.
func (s *Simulation) GetSink() stats.Sink {
	return s.sink
}

// GetMonitor returns the monitor used in the simulation. It is nil when
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, ok := s.compNameIndex[compName]; ok {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	return s.components[s.compNameIndex[name]]
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// Terminate terminates the simulation. All the buffered statistics are
// flushed out.
func (s *Simulation) Terminate() {
	s.sink.Flush()
	s.dataRecorder.Close()
}
