package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	newMockEvent := func(
		t VTimeInSec,
		handler Handler,
		secondary bool,
	) *MockEvent {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(t).AnyTimes()
		evt.EXPECT().Handler().Return(handler).AnyTimes()
		evt.EXPECT().IsSecondary().Return(secondary).AnyTimes()
		return evt
	}

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := newMockEvent(4.0, handler1, false)
		evt2 := newMockEvent(2.0, handler2, false)
		evt3 := newMockEvent(3.0, handler1, false)
		evt4 := newMockEvent(5.0, handler1, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2).Do(func(e Event) {
			engine.Schedule(evt3)
			engine.Schedule(evt4)
		})
		handleEvt3 := handler1.EXPECT().
			Handle(evt3).Do(func(e Event) {}).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().
			Handle(evt1).Do(func(e Event) {}).After(handleEvt3)
		handler1.EXPECT().
			Handle(evt4).Do(func(e Event) {}).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		_ = engine.Run()
	})

	It("should run same-time events in scheduling order", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := newMockEvent(2.0, handler, false)
		evt2 := newMockEvent(2.0, handler, false)
		evt3 := newMockEvent(2.0, handler, false)

		handleEvt1 := handler.EXPECT().Handle(evt1)
		handleEvt2 := handler.EXPECT().Handle(evt2).After(handleEvt1)
		handler.EXPECT().Handle(evt3).After(handleEvt2)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		_ = engine.Run()
	})

	It("should consider secondary events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		handler3 := NewMockHandler(mockCtrl)
		evt1 := newMockEvent(2.0, handler1, true)
		evt2 := newMockEvent(2.0, handler2, false)
		evt3 := newMockEvent(2.0, handler3, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2)
		handleEvt3 := handler3.EXPECT().Handle(evt3)
		handler1.EXPECT().
			Handle(evt1).Do(func(e Event) {}).
			After(handleEvt2).
			After(handleEvt3)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		_ = engine.Run()
	})

	It("should skip cancelled events", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := newMockEvent(1.0, handler, false)
		evt2 := newMockEvent(2.0, handler, false)

		handler.EXPECT().Handle(evt2)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Cancel(evt1)

		_ = engine.Run()

		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(2.0)))
	})

	It("should stop at the horizon when running until a time", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := newMockEvent(1.0, handler, false)
		evt2 := newMockEvent(12.0, handler, false)

		handler.EXPECT().Handle(evt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		_ = engine.RunUntil(10.0)

		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(10.0)))
	})

	It("should move the time to the horizon with an empty queue", func() {
		_ = engine.RunUntil(10.0)

		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(10.0)))
	})

	It("should call the simulation end handlers", func() {
		handler := NewMockHandler(mockCtrl)
		evt := newMockEvent(3.0, handler, false)
		handler.EXPECT().Handle(evt)

		endCalledAt := VTimeInSec(-1)
		engine.RegisterSimulationEndHandler(
			SimulationEndHandlerFunc(func(now VTimeInSec) {
				endCalledAt = now
			}))

		engine.Schedule(evt)
		_ = engine.Run()
		engine.Finished()

		Expect(endCalledAt).To(Equal(VTimeInSec(3.0)))
	})
})
