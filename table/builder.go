package table

import (
	"container/list"

	"github.com/tablesim/tablesim/sim"
	"github.com/tablesim/tablesim/stats"
)

// Builder can build table components.
type Builder struct {
	engine  sim.Engine
	sink    stats.Sink
	tableID int
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		sink: stats.NullSink{},
	}
}

// WithEngine sets the engine that drives the table.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithSink sets the statistics sink the table reports to.
func (b Builder) WithSink(sink stats.Sink) Builder {
	b.sink = sink
	return b
}

// WithTableID sets the ID of the table.
func (b Builder) WithTableID(id int) Builder {
	b.tableID = id
	return b
}

// Build builds a new table component.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		panic("table requires an engine")
	}

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		sink:          b.sink,
		tableID:       b.tableID,
		users:         make(map[int]sim.Handler),
		queue:         list.New(),
		pending:       make(map[string]*serviceDoneEvent),
	}

	return c
}
