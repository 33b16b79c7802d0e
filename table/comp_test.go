package table

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tablesim/tablesim/access"
	"github.com/tablesim/tablesim/sim"
)

// responseCollector stands in for a user and records the responses the
// table sends back.
type responseCollector struct {
	responses []*access.Response
	times     []sim.VTimeInSec
}

func (c *responseCollector) Handle(e sim.Event) error {
	evt := e.(*access.ResponseEvent)
	c.responses = append(c.responses, evt.Rsp)
	c.times = append(c.times, evt.Time())
	return nil
}

// invariantChecker asserts the reader/writer exclusion and the
// admission-exhaustion property after every event.
type invariantChecker struct {
	table *Comp
}

func (h *invariantChecker) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	if h.table.WriteActive() {
		Expect(h.table.ActiveReaders()).To(Equal(0))
	}

	if h.table.ActiveReaders() == 0 && !h.table.WriteActive() {
		Expect(h.table.QueueLength()).To(Equal(0))
	}
}

var _ = ginkgo.Describe("Table", func() {
	var (
		engine    *sim.SerialEngine
		tableComp *Comp
		userA     *responseCollector
		userB     *responseCollector
	)

	ginkgo.BeforeEach(func() {
		engine = sim.NewSerialEngine()
		tableComp = MakeBuilder().
			WithEngine(engine).
			WithTableID(0).
			Build("Table0")

		userA = &responseCollector{}
		userB = &responseCollector{}
		tableComp.RegisterUser(0, userA)
		tableComp.RegisterUser(1, userB)

		engine.AcceptHook(&invariantChecker{table: tableComp})
	})

	sendReq := func(
		userID int,
		kind access.Kind,
		arrival, serviceTime sim.VTimeInSec,
	) *access.Request {
		req := access.ReqBuilder{}.
			WithUserID(userID).
			WithTableID(0).
			WithKind(kind).
			WithArrivalTime(arrival).
			WithServiceTime(serviceTime).
			Build()
		engine.Schedule(access.NewArrivalEvent(arrival, tableComp, req))
		return req
	}

	ginkgo.It("should serve reads concurrently", func() {
		sendReq(0, access.Read, 0, 1)
		sendReq(0, access.Read, 0, 1)
		sendReq(0, access.Read, 0.5, 1)

		Expect(engine.Run()).To(Succeed())

		Expect(userA.responses).To(HaveLen(3))
		Expect(userA.times[0]).To(Equal(sim.VTimeInSec(1.0)))
		Expect(userA.times[1]).To(Equal(sim.VTimeInSec(1.0)))
		Expect(userA.times[2]).To(Equal(sim.VTimeInSec(1.5)))

		r := tableComp.Finalize(engine.CurrentTime())
		Expect(r.TotalServed).To(Equal(uint64(3)))
		Expect(r.TotalReads).To(Equal(uint64(3)))
		Expect(r.TotalWrites).To(Equal(uint64(0)))
	})

	ginkgo.It("should block reads behind a write in service", func() {
		sendReq(0, access.Write, 0, 5)
		sendReq(1, access.Read, 0.1, 1)
		sendReq(1, access.Read, 0.2, 1)

		Expect(engine.Run()).To(Succeed())

		// The write completes at 5. Only then are the reads admitted.
		Expect(userA.responses).To(HaveLen(1))
		Expect(userA.times[0]).To(Equal(sim.VTimeInSec(5.0)))
		Expect(userB.responses).To(HaveLen(2))
		Expect(userB.times[0]).To(Equal(sim.VTimeInSec(6.0)))
		Expect(userB.times[1]).To(Equal(sim.VTimeInSec(6.0)))
	})

	ginkgo.It("should make a write wait for all active reads", func() {
		sendReq(1, access.Read, 0, 5)
		sendReq(1, access.Read, 0, 5)
		sendReq(0, access.Write, 1, 1)
		sendReq(1, access.Read, 2, 1)

		Expect(engine.Run()).To(Succeed())

		// The reads in service finish at 5, the write runs 5 to 6, and
		// the read queued behind the write runs 6 to 7.
		Expect(userB.times[0]).To(Equal(sim.VTimeInSec(5.0)))
		Expect(userB.times[1]).To(Equal(sim.VTimeInSec(5.0)))
		Expect(userA.times[0]).To(Equal(sim.VTimeInSec(6.0)))
		Expect(userB.times[2]).To(Equal(sim.VTimeInSec(7.0)))
	})

	ginkgo.It("should never let a request overtake another", func() {
		// Alternate writes and reads. The response order must equal the
		// admission order, which must equal the arrival order, except
		// that the two same-time reads may complete together.
		sendReq(0, access.Write, 0, 1)
		sendReq(1, access.Read, 0.1, 1)
		sendReq(0, access.Write, 0.2, 1)
		sendReq(1, access.Read, 0.3, 1)

		Expect(engine.Run()).To(Succeed())

		Expect(userA.times[0]).To(Equal(sim.VTimeInSec(1.0)))
		Expect(userB.times[0]).To(Equal(sim.VTimeInSec(2.0)))
		Expect(userA.times[1]).To(Equal(sim.VTimeInSec(3.0)))
		Expect(userB.times[1]).To(Equal(sim.VTimeInSec(4.0)))
	})

	ginkgo.It("should account busy time and waiting time", func() {
		sendReq(0, access.Read, 0, 2)
		sendReq(0, access.Write, 4, 1)

		Expect(engine.Run()).To(Succeed())

		r := tableComp.Finalize(10)
		Expect(r.Utilization).To(BeNumerically("~", 0.3, 1e-9))
		Expect(r.Throughput).To(BeNumerically("~", 0.2, 1e-9))
		Expect(r.MeanWaitingTime).To(BeNumerically("~", 0.0, 1e-9))
		Expect(r.MaxQueueLength).To(Equal(1))
	})

	ginkgo.It("should include the open busy interval in the utilization", func() {
		sendReq(0, access.Write, 0, 100)

		Expect(engine.RunUntil(10)).To(Succeed())

		r := tableComp.Finalize(10)
		Expect(r.Utilization).To(BeNumerically("~", 1.0, 1e-9))
		Expect(r.TotalServed).To(Equal(uint64(0)))
	})

	ginkgo.It("should report identical scalars when finalized twice", func() {
		sendReq(0, access.Read, 0, 1)
		sendReq(0, access.Write, 0.5, 2)

		Expect(engine.Run()).To(Succeed())

		r1 := tableComp.Finalize(10)
		r2 := tableComp.Finalize(10)
		Expect(r2).To(Equal(r1))
	})

	ginkgo.It("should report zeros for a zero-duration run", func() {
		r := tableComp.Finalize(0)

		Expect(r.Utilization).To(BeZero())
		Expect(r.Throughput).To(BeZero())
		Expect(r.MeanQueueLength).To(BeZero())
		Expect(r.MeanWaitingTime).To(BeZero())
	})

	ginkgo.It("should tolerate a completion with no matching request", func() {
		req := access.ReqBuilder{}.
			WithUserID(0).
			WithKind(access.Read).
			Build()
		orphan := newServiceDoneEvent(1, tableComp, req)

		Expect(tableComp.Handle(orphan)).To(Succeed())

		Expect(tableComp.ConsistencyFaults()).To(Equal(1))
		Expect(tableComp.ActiveReaders()).To(Equal(0))
	})

	ginkgo.It("should clamp the reader count at zero", func() {
		req := access.ReqBuilder{}.
			WithUserID(0).
			WithKind(access.Read).
			Build()
		done := newServiceDoneEvent(1, tableComp, req)
		tableComp.pending[req.ID] = done

		Expect(tableComp.Handle(done)).To(Succeed())

		Expect(tableComp.ActiveReaders()).To(Equal(0))
	})

	ginkgo.It("should discard in-flight work at shutdown", func() {
		sendReq(0, access.Write, 0, 5)
		sendReq(0, access.Read, 1, 1)

		Expect(engine.RunUntil(2)).To(Succeed())
		Expect(tableComp.PendingCompletions()).To(Equal(1))

		tableComp.Shutdown()

		Expect(tableComp.PendingCompletions()).To(Equal(0))
		Expect(tableComp.QueueLength()).To(Equal(0))

		Expect(engine.Run()).To(Succeed())
		Expect(userA.responses).To(BeEmpty())
	})
})
