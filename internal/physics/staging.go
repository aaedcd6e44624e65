package physics

import (
	"fmt"
	"sync/atomic"
)

// RequestKind says what a staged request does when applied.
type RequestKind uint8

const (
	RequestAdd RequestKind = iota + 1
	RequestRemove
)

func (k RequestKind) String() string {
	switch k {
	case RequestAdd:
		return "add"
	case RequestRemove:
		return "remove"
	}
	return fmt.Sprintf("RequestKind(%d)", uint8(k))
}

// Request is one pending registration change.
type Request struct {
	Entity Entity
	Kind   RequestKind
}

// Applier receives drained requests on the tick goroutine.
type Applier interface {
	TrackEntityDirect(e Entity) error
	UntrackEntityDirect(e Entity)
}

type stagingNode struct {
	next atomic.Pointer[stagingNode]
	req  Request
}

// StagingQueue is an unbounded multi-producer single-consumer inbox.
// Enqueue never blocks and is safe from any goroutine; Flush, HasPending
// and Clear belong to the tick goroutine. Producers are not ordered against
// each other.
//
// Producers swap themselves onto head then link the previous head to the
// new node; the consumer walks from tail. A producer caught between those
// two steps makes the queue look empty up to its node, and the rest is
// picked up by the next Flush.
type StagingQueue struct {
	head    atomic.Pointer[stagingNode] // producers
	_       [56]byte
	tail    *stagingNode // consumer only
	pending atomic.Int64
}

func NewStagingQueue() *StagingQueue {
	q := &StagingQueue{}
	stub := &stagingNode{}
	q.head.Store(stub)
	q.tail = stub
	return q
}

func (q *StagingQueue) EnqueueAdd(e Entity)    { q.push(Request{Entity: e, Kind: RequestAdd}) }
func (q *StagingQueue) EnqueueRemove(e Entity) { q.push(Request{Entity: e, Kind: RequestRemove}) }

func (q *StagingQueue) push(r Request) {
	n := &stagingNode{req: r}
	q.pending.Add(1)
	prev := q.head.Swap(n)
	prev.next.Store(n)
}

func (q *StagingQueue) pop() (Request, bool) {
	next := q.tail.next.Load()
	if next == nil {
		return Request{}, false
	}
	r := next.req
	next.req = Request{}
	q.tail = next
	q.pending.Add(-1)
	return r, true
}

// Flush applies requests until the queue is observed empty and returns how
// many were applied. It stops at the first hard failure from the applier;
// the failed request is dropped and the ones behind it stay queued.
func (q *StagingQueue) Flush(a Applier) (int, error) {
	count := 0
	for {
		r, ok := q.pop()
		if !ok {
			return count, nil
		}
		switch r.Kind {
		case RequestAdd:
			if err := a.TrackEntityDirect(r.Entity); err != nil {
				return count, err
			}
		case RequestRemove:
			a.UntrackEntityDirect(r.Entity)
		}
		count++
	}
}

// HasPending reports whether any request has been enqueued and not drained.
func (q *StagingQueue) HasPending() bool { return q.pending.Load() > 0 }

// Len is a snapshot; it can be stale as soon as it returns.
func (q *StagingQueue) Len() int { return int(q.pending.Load()) }

// Clear discards every linked request.
func (q *StagingQueue) Clear() {
	for {
		if _, ok := q.pop(); !ok {
			return
		}
	}
}
