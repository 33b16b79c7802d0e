// Package table implements the per-table resource arbiter. Each table
// admits requests from a FIFO queue under a multiple-reader/single-writer
// policy with strict first-come-first-served ordering.
package table

import (
	"container/list"
	"log"
	"reflect"

	"github.com/tablesim/tablesim/access"
	"github.com/tablesim/tablesim/sim"
	"github.com/tablesim/tablesim/stats"
)

// serviceDoneEvent marks the completion of one admitted request. It owns
// the request it completes.
type serviceDoneEvent struct {
	*sim.EventBase
	req *access.Request
}

func newServiceDoneEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	req *access.Request,
) *serviceDoneEvent {
	return &serviceDoneEvent{sim.NewEventBase(t, handler), req}
}

// A Report carries the final statistics of one table.
type Report struct {
	TotalServed     uint64
	TotalReads      uint64
	TotalWrites     uint64
	MaxQueueLength  int
	MeanQueueLength float64
	MeanWaitingTime float64
	Throughput      float64
	Utilization     float64
}

// Comp is a replicated data table. Reads may be served concurrently.
// A write is exclusive and, once it reaches the head of the queue, blocks
// every request behind it until it completes.
type Comp struct {
	*sim.ComponentBase

	engine  sim.Engine
	sink    stats.Sink
	tableID int

	users map[int]sim.Handler

	queue         *list.List
	activeReaders int
	writeActive   bool
	pending       map[string]*serviceDoneEvent

	totalServed        uint64
	totalReads         uint64
	totalWrites        uint64
	maxQueueLength     int
	totalQueueLength   uint64
	queueLengthSamples uint64
	totalWaitingTime   sim.VTimeInSec
	busyPeriodStart    sim.VTimeInSec
	totalBusyTime      sim.VTimeInSec

	consistencyFaults int
}

// RegisterUser makes the user with the given ID reachable for responses.
func (c *Comp) RegisterUser(userID int, h sim.Handler) {
	c.users[userID] = h
}

// TableID returns the ID of the table.
func (c *Comp) TableID() int {
	return c.tableID
}

// Handle processes the arrival and the service completion events of the
// table.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *access.ArrivalEvent:
		return c.handleArrival(e)
	case *serviceDoneEvent:
		return c.handleServiceDone(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

func (c *Comp) handleArrival(e *access.ArrivalEvent) error {
	now := e.Time()

	c.queue.PushBack(e.Req)
	c.sampleQueueLength(now)

	c.processQueue(now)

	return nil
}

// sampleQueueLength records the queue length right after an insertion.
func (c *Comp) sampleQueueLength(now sim.VTimeInSec) {
	qLen := c.queue.Len()
	if qLen > c.maxQueueLength {
		c.maxQueueLength = qLen
	}
	c.totalQueueLength += uint64(qLen)
	c.queueLengthSamples++

	c.sink.Observe(c.Name(), stats.SeriesQueueLength, float64(qLen), now)
}

// processQueue admits as many queued requests as the reader/writer state
// allows without ever letting a request overtake another.
func (c *Comp) processQueue(now sim.VTimeInSec) {
	// A write in service blocks everything.
	if c.writeActive {
		return
	}

	for c.queue.Len() > 0 {
		head := c.queue.Front()
		req := head.Value.(*access.Request)

		if req.Kind == access.Read {
			// Reads coexist with active reads. Admit and keep going.
			c.queue.Remove(head)
			c.startService(now, req)
			continue
		}

		// The head is a write. It needs exclusive access, and no request
		// behind it may be inspected while it waits.
		if c.activeReaders == 0 {
			c.queue.Remove(head)
			c.startService(now, req)
		}

		break
	}
}

// startService admits one request into service and schedules its
// completion.
func (c *Comp) startService(now sim.VTimeInSec, req *access.Request) {
	waitTime := now - req.ArrivalTime
	c.totalWaitingTime += waitTime
	c.sink.Observe(c.Name(), stats.SeriesWaitingTime, float64(waitTime), now)

	wasBusy := c.activeReaders > 0 || c.writeActive

	if req.Kind == access.Read {
		c.activeReaders++
	} else {
		c.writeActive = true
	}

	if !wasBusy {
		c.busyPeriodStart = now
	}

	done := newServiceDoneEvent(now+req.ServiceTime, c, req)
	c.pending[req.ID] = done
	c.engine.Schedule(done)
}

func (c *Comp) handleServiceDone(e *serviceDoneEvent) error {
	now := e.Time()
	req := e.req

	if _, ok := c.pending[req.ID]; !ok {
		// A completion without a matching admitted request is a bug, not
		// an expected runtime condition. Drop it and keep the table alive.
		c.consistencyFaults++
		log.Printf("%s: service completion with no matching request %s",
			c.Name(), req.ID)
		return nil
	}
	delete(c.pending, req.ID)

	if req.Kind == access.Read {
		c.activeReaders--
		if c.activeReaders < 0 {
			c.activeReaders = 0
		}
	} else {
		c.writeActive = false
	}

	c.totalServed++
	if req.Kind == access.Read {
		c.totalReads++
	} else {
		c.totalWrites++
	}

	nowIdle := c.activeReaders == 0 && !c.writeActive
	if nowIdle {
		c.totalBusyTime += now - c.busyPeriodStart
		c.busyPeriodStart = now
	}

	c.respond(now, req)

	c.processQueue(now)

	return nil
}

// respond dispatches a response to the user that issued the request.
func (c *Comp) respond(now sim.VTimeInSec, req *access.Request) {
	userHandler, ok := c.users[req.UserID]
	if !ok {
		c.consistencyFaults++
		log.Printf("%s: no user %d registered to receive response for %s",
			c.Name(), req.UserID, req.ID)
		return
	}

	rsp := access.RspBuilder{}.WithOriginalReq(req).Build()
	c.engine.Schedule(access.NewResponseEvent(now, userHandler, rsp))
}

// Shutdown cancels every pending service completion and discards all the
// queued requests. No response is sent for in-flight work.
func (c *Comp) Shutdown() {
	for id, done := range c.pending {
		c.engine.Cancel(done)
		delete(c.pending, id)
	}

	c.queue.Init()
	c.activeReaders = 0
	c.writeActive = false
}

// Finalize computes the final statistics of the table over a run of the
// given duration and records them through the sink. Finalize does not
// mutate the table state, so calling it twice yields identical reports.
func (c *Comp) Finalize(now sim.VTimeInSec) Report {
	busyTime := c.totalBusyTime
	if c.activeReaders > 0 || c.writeActive {
		busyTime += now - c.busyPeriodStart
	}

	r := Report{
		TotalServed:    c.totalServed,
		TotalReads:     c.totalReads,
		TotalWrites:    c.totalWrites,
		MaxQueueLength: c.maxQueueLength,
	}

	if c.queueLengthSamples > 0 {
		r.MeanQueueLength =
			float64(c.totalQueueLength) / float64(c.queueLengthSamples)
	}

	if c.totalServed > 0 {
		r.MeanWaitingTime =
			float64(c.totalWaitingTime) / float64(c.totalServed)
	}

	if now > 0 {
		r.Throughput = float64(c.totalServed) / float64(now)
		r.Utilization = float64(busyTime) / float64(now)
	}

	c.sink.Observe(c.Name(), stats.SeriesThroughput, r.Throughput, now)
	c.sink.Observe(c.Name(), stats.SeriesUtilization, r.Utilization, now)

	c.sink.RecordScalar(c.Name(), "totalServed", float64(r.TotalServed))
	c.sink.RecordScalar(c.Name(), "totalReads", float64(r.TotalReads))
	c.sink.RecordScalar(c.Name(), "totalWrites", float64(r.TotalWrites))
	c.sink.RecordScalar(c.Name(), "maxQueueLength",
		float64(r.MaxQueueLength))
	c.sink.RecordScalar(c.Name(), "meanQueueLength", r.MeanQueueLength)
	c.sink.RecordScalar(c.Name(), "meanWaitingTime", r.MeanWaitingTime)
	c.sink.RecordScalar(c.Name(), "throughput", r.Throughput)
	c.sink.RecordScalar(c.Name(), "utilization", r.Utilization)

	return r
}

// ActiveReaders returns the number of reads currently in service.
func (c *Comp) ActiveReaders() int {
	return c.activeReaders
}

// WriteActive returns true if a write is currently in service.
func (c *Comp) WriteActive() bool {
	return c.writeActive
}

// QueueLength returns the number of requests waiting for admission.
func (c *Comp) QueueLength() int {
	return c.queue.Len()
}

// PendingCompletions returns the number of requests currently in service.
func (c *Comp) PendingCompletions() int {
	return len(c.pending)
}

// ConsistencyFaults returns how many malformed events the table has
// tolerated. It is zero on any correct run.
func (c *Comp) ConsistencyFaults() int {
	return c.consistencyFaults
}
