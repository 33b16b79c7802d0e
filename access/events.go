package access

import (
	"github.com/tablesim/tablesim/sim"
)

// An ArrivalEvent delivers a request to the table that serves it. There is
// no modeled transport between users and tables. Delivery is an ordinary
// event on the timeline, scheduled at the request's arrival time.
type ArrivalEvent struct {
	*sim.EventBase
	Req *Request
}

// NewArrivalEvent creates an ArrivalEvent for the given table handler.
func NewArrivalEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	req *Request,
) *ArrivalEvent {
	return &ArrivalEvent{sim.NewEventBase(t, handler), req}
}

// A ResponseEvent delivers a completion response back to the user that
// issued the request.
type ResponseEvent struct {
	*sim.EventBase
	Rsp *Response
}

// NewResponseEvent creates a ResponseEvent for the given user handler.
func NewResponseEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	rsp *Response,
) *ResponseEvent {
	return &ResponseEvent{sim.NewEventBase(t, handler), rsp}
}
