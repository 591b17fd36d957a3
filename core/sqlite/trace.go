package sqlite

import "time"

// EventKind identifies what a TraceEvent describes.
type EventKind int

const (
	EventOpen EventKind = iota + 1
	EventClose
	EventPrepare
	EventStep
	EventReset
	EventFinalize
	EventCacheHit
	EventCacheMiss
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventPrepare:
		return "prepare"
	case EventStep:
		return "step"
	case EventReset:
		return "reset"
	case EventFinalize:
		return "finalize"
	case EventCacheHit:
		return "cache_hit"
	case EventCacheMiss:
		return "cache_miss"
	}
	return "unknown"
}

// TraceEvent is reported to a Tracer after each traced operation.
type TraceEvent struct {
	Kind     EventKind
	Location string // connection location
	SQL      string
	Step     StepResult // set for EventStep without error
	Duration time.Duration
	Err      error
}

// Tracer observes connection and statement activity. Trace is called
// synchronously on the goroutine performing the operation and must not call
// back into the connection.
type Tracer interface {
	Trace(ev TraceEvent)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(TraceEvent)

func (f TracerFunc) Trace(ev TraceEvent) { f(ev) }

// MultiTracer fans events out to every non-nil tracer in order.
func MultiTracer(tracers ...Tracer) Tracer {
	var ts []Tracer
	for _, t := range tracers {
		if t != nil {
			ts = append(ts, t)
		}
	}
	switch len(ts) {
	case 0:
		return nil
	case 1:
		return ts[0]
	}
	return multiTracer(ts)
}

type multiTracer []Tracer

func (m multiTracer) Trace(ev TraceEvent) {
	for _, t := range m {
		t.Trace(ev)
	}
}
