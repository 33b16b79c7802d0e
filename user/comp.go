// Package user implements the request generator. Each user issues reads
// and writes to the tables following a Poisson arrival process and tracks
// the round-trip wait time of its accesses.
package user

import (
	"log"
	"math"
	"math/rand"
	"reflect"

	"github.com/tablesim/tablesim/access"
	"github.com/tablesim/tablesim/sim"
	"github.com/tablesim/tablesim/stats"
)

// TableDistribution selects how a user spreads its accesses over the
// tables.
type TableDistribution int

// The supported table-selection distributions.
const (
	Uniform TableDistribution = iota
	Lognormal
)

// accessTimerEvent triggers the next access of a user.
type accessTimerEvent struct {
	*sim.EventBase
}

func newAccessTimerEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
) *accessTimerEvent {
	return &accessTimerEvent{sim.NewEventBase(t, handler)}
}

// A Report carries the final statistics of one user.
type Report struct {
	TotalAccesses     uint64
	TotalReads        uint64
	TotalWrites       uint64
	MeanWaitTime      float64
	AccessesPerSecond float64
}

// Comp is one user. It owns its random source, so that runs with the same
// seed reproduce the same access stream.
type Comp struct {
	*sim.ComponentBase

	engine sim.Engine
	sink   stats.Sink
	rng    *rand.Rand

	userID          int
	lambda          float64
	readProbability float64
	distribution    TableDistribution
	lognormalM      float64
	lognormalS      float64
	serviceTime     sim.VTimeInSec
	horizon         sim.VTimeInSec

	tables []sim.Handler

	outstanding map[string]bool

	totalAccesses uint64
	totalReads    uint64
	totalWrites   uint64
	totalWaitTime sim.VTimeInSec

	consistencyFaults int
}

// UserID returns the ID of the user.
func (c *Comp) UserID() int {
	return c.userID
}

// Start draws the first inter-arrival delay and arms the access timer.
func (c *Comp) Start() {
	c.scheduleNextAccess(c.engine.CurrentTime())
}

// Handle processes the timer fires and the table responses of the user.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *accessTimerEvent:
		return c.handleAccessTimer(e)
	case *access.ResponseEvent:
		return c.handleResponse(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

func (c *Comp) handleAccessTimer(e *accessTimerEvent) error {
	now := e.Time()

	tableID := c.selectTableID()
	kind := c.drawKind()

	c.totalAccesses++
	if kind == access.Read {
		c.totalReads++
		c.sink.Observe(c.Name(), stats.SeriesReadAccess, 1, now)
	} else {
		c.totalWrites++
		c.sink.Observe(c.Name(), stats.SeriesWriteAccess, 1, now)
	}

	req := access.ReqBuilder{}.
		WithUserID(c.userID).
		WithTableID(tableID).
		WithKind(kind).
		WithArrivalTime(now).
		WithServiceTime(c.serviceTime).
		Build()
	c.outstanding[req.ID] = true

	c.engine.Schedule(access.NewArrivalEvent(now, c.tables[tableID], req))

	c.scheduleNextAccess(now)

	return nil
}

// scheduleNextAccess re-arms the access timer. The timer is only re-armed
// while the next fire stays within the simulation horizon, so the event
// queue drains once the run is over.
func (c *Comp) scheduleNextAccess(now sim.VTimeInSec) {
	delay := sim.VTimeInSec(c.rng.ExpFloat64() / c.lambda)
	c.sink.Observe(c.Name(), stats.SeriesAccessInterval, float64(delay), now)

	next := now + delay
	if next > c.horizon {
		return
	}

	c.engine.Schedule(newAccessTimerEvent(next, c))
}

func (c *Comp) selectTableID() int {
	switch c.distribution {
	case Uniform:
		return c.rng.Intn(len(c.tables))
	case Lognormal:
		return c.selectTableLognormal()
	default:
		log.Panicf("unknown table distribution %d", c.distribution)
	}

	return 0
}

// selectTableLognormal maps a lognormal draw onto a table index with
// floor(x mod numTables). The mapping skews toward low indices for large
// draws. The skew is intentional, inherited behavior, not a bug.
func (c *Comp) selectTableLognormal() int {
	numTables := len(c.tables)

	x := math.Exp(c.lognormalM + c.lognormalS*c.rng.NormFloat64())

	tableID := int(math.Mod(x, float64(numTables)))
	if tableID < 0 {
		tableID = 0
	}
	if tableID >= numTables {
		tableID = numTables - 1
	}

	return tableID
}

func (c *Comp) drawKind() access.Kind {
	if c.rng.Float64() < c.readProbability {
		return access.Read
	}
	return access.Write
}

func (c *Comp) handleResponse(e *access.ResponseEvent) error {
	now := e.Time()
	rsp := e.Rsp

	if !c.outstanding[rsp.RspTo] {
		// A response that answers no outstanding request means the arbiter
		// broke its contract. Drop it and keep the run alive.
		c.consistencyFaults++
		log.Printf("%s: response %s matches no outstanding request",
			c.Name(), rsp.ID)
		return nil
	}
	delete(c.outstanding, rsp.RspTo)

	waitTime := now - rsp.ArrivalTime
	c.totalWaitTime += waitTime
	c.sink.Observe(c.Name(), stats.SeriesWaitTime, float64(waitTime), now)

	return nil
}

// Finalize computes the final statistics of the user over a run of the
// given duration and records them through the sink. It does not mutate the
// user state.
func (c *Comp) Finalize(now sim.VTimeInSec) Report {
	r := Report{
		TotalAccesses: c.totalAccesses,
		TotalReads:    c.totalReads,
		TotalWrites:   c.totalWrites,
	}

	if c.totalAccesses > 0 {
		r.MeanWaitTime =
			float64(c.totalWaitTime) / float64(c.totalAccesses)
	}

	if now > 0 {
		r.AccessesPerSecond = float64(c.totalAccesses) / float64(now)
	}

	c.sink.RecordScalar(c.Name(), "totalAccesses", float64(r.TotalAccesses))
	c.sink.RecordScalar(c.Name(), "totalReads", float64(r.TotalReads))
	c.sink.RecordScalar(c.Name(), "totalWrites", float64(r.TotalWrites))
	c.sink.RecordScalar(c.Name(), "meanWaitTime", r.MeanWaitTime)
	c.sink.RecordScalar(c.Name(), "accessesPerSecond", r.AccessesPerSecond)

	return r
}

// OutstandingRequests returns the number of requests that have not been
// answered yet.
func (c *Comp) OutstandingRequests() int {
	return len(c.outstanding)
}

// ConsistencyFaults returns how many unresolvable responses the user has
// tolerated. It is zero on any correct run.
func (c *Comp) ConsistencyFaults() int {
	return c.consistencyFaults
}
