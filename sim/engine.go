package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)

	// Cancel marks a scheduled event as cancelled. A cancelled event is
	// silently discarded when its time is reached.
	Cancel(e Event)
}

// A SimulationEndHandler is a handler that is called after the simulation
// ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// SimulationEndHandlerFunc adapts a plain function into a
// SimulationEndHandler.
type SimulationEndHandlerFunc func(now VTimeInSec)

// Handle calls the wrapped function.
func (f SimulationEndHandlerFunc) Handle(now VTimeInSec) {
	f(now)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run will process all the events until the simulation finishes
	Run() error

	// RunUntil processes all the events up to and including time t. Events
	// scheduled after t stay in the queue. The current time is advanced to
	// t even if the queue drains earlier.
	RunUntil(t VTimeInSec) error

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation
	Continue()

	// RegisterSimulationEndHandler registers a handler that perform some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler
	Finished()
}
