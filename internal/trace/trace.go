// Package trace defines the span callbacks fired around the phases of a
// training step. The numeric code only calls Start and the returned end
// function; what happens with the measurement is up to the Tracer.
package trace

import (
	"sort"
	"sync"
	"time"
)

// Phase names a stage of mini-batch processing.
type Phase string

// Phases reported by the core.
const (
	PhaseAlloc    Phase = "alloc"
	PhaseForward  Phase = "forward"
	PhaseBackward Phase = "backward"
	PhaseReduce   Phase = "reduce"
	PhaseUpdate   Phase = "update"
)

// Span identifies one measured region. Layer is the layer transition index
// for backward spans and -1 otherwise.
type Span struct {
	Phase Phase
	Layer int
}

// Tracer receives span boundaries. Start is called when the region begins and
// the returned function when it ends. Implementations must be safe for
// concurrent use: forward and backward spans are emitted from pool workers.
type Tracer interface {
	Start(s Span) (end func())
}

type nop struct{}

func (nop) Start(Span) func() { return func() {} }

// Nop is a Tracer that records nothing.
var Nop Tracer = nop{}

// Func adapts a plain function to the Tracer interface.
type Func func(s Span) func()

// Start calls f(s).
func (f Func) Start(s Span) func() { return f(s) }

// Stat is the aggregate for one phase.
type Stat struct {
	Phase Phase
	Count int
	Total time.Duration
}

// Mean returns the average span duration.
func (s Stat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Recorder accumulates span counts and durations per phase.
type Recorder struct {
	mu    sync.Mutex
	stats map[Phase]*Stat
	now   func() time.Time
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{stats: make(map[Phase]*Stat), now: time.Now}
}

// Start implements Tracer.
func (r *Recorder) Start(s Span) func() {
	begin := r.now()
	return func() {
		d := r.now().Sub(begin)
		r.mu.Lock()
		st := r.stats[s.Phase]
		if st == nil {
			st = &Stat{Phase: s.Phase}
			r.stats[s.Phase] = st
		}
		st.Count++
		st.Total += d
		r.mu.Unlock()
	}
}

// Snapshot returns the aggregates sorted by phase name and resets the
// recorder.
func (r *Recorder) Snapshot() []Stat {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Stat, 0, len(r.stats))
	for _, st := range r.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phase < out[j].Phase })
	r.stats = make(map[Phase]*Stat)
	return out
}
