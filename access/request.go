// Package access defines the request and response messages that users and
// tables exchange, together with the events that deliver them on the
// simulation timeline.
package access

import (
	"github.com/tablesim/tablesim/sim"
)

// Kind tells whether a request reads or writes a table.
type Kind int

// The two access kinds. Multiple reads may be served at the same time. A
// write requires exclusive access.
const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	if k == Read {
		return "READ"
	}
	return "WRITE"
}

// A Request asks a table to perform one read or write access.
type Request struct {
	ID          string
	UserID      int
	TableID     int
	Kind        Kind
	ArrivalTime sim.VTimeInSec
	ServiceTime sim.VTimeInSec
}

// A Response reports the completion of a request back to its user. The
// arrival time of the original request is carried along so that the user
// can compute the round-trip wait time.
type Response struct {
	ID          string
	RspTo       string
	UserID      int
	TableID     int
	Kind        Kind
	ArrivalTime sim.VTimeInSec
}

// ReqBuilder can build access requests.
type ReqBuilder struct {
	userID      int
	tableID     int
	kind        Kind
	arrivalTime sim.VTimeInSec
	serviceTime sim.VTimeInSec
}

// WithUserID sets the originating user of the request to build.
func (b ReqBuilder) WithUserID(id int) ReqBuilder {
	b.userID = id
	return b
}

// WithTableID sets the target table of the request to build.
func (b ReqBuilder) WithTableID(id int) ReqBuilder {
	b.tableID = id
	return b
}

// WithKind sets whether the request to build reads or writes.
func (b ReqBuilder) WithKind(kind Kind) ReqBuilder {
	b.kind = kind
	return b
}

// WithArrivalTime sets the time at which the request enters the system.
func (b ReqBuilder) WithArrivalTime(t sim.VTimeInSec) ReqBuilder {
	b.arrivalTime = t
	return b
}

// WithServiceTime sets how long the request occupies the table once
// admitted.
func (b ReqBuilder) WithServiceTime(t sim.VTimeInSec) ReqBuilder {
	b.serviceTime = t
	return b
}

// Build creates a new request.
func (b ReqBuilder) Build() *Request {
	return &Request{
		ID:          sim.GetIDGenerator().Generate(),
		UserID:      b.userID,
		TableID:     b.tableID,
		Kind:        b.kind,
		ArrivalTime: b.arrivalTime,
		ServiceTime: b.serviceTime,
	}
}

// RspBuilder can build responses for completed requests.
type RspBuilder struct {
	req *Request
}

// WithOriginalReq sets the request that the response to build answers.
func (b RspBuilder) WithOriginalReq(req *Request) RspBuilder {
	b.req = req
	return b
}

// Build creates a new response. The kind and the arrival time of the
// original request are preserved.
func (b RspBuilder) Build() *Response {
	return &Response{
		ID:          sim.GetIDGenerator().Generate(),
		RspTo:       b.req.ID,
		UserID:      b.req.UserID,
		TableID:     b.req.TableID,
		Kind:        b.req.Kind,
		ArrivalTime: b.req.ArrivalTime,
	}
}
