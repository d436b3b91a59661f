package trace

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	clock := time.Unix(0, 0)
	r.now = func() time.Time { return clock }

	end := r.Start(Span{Phase: PhaseUpdate, Layer: -1})
	clock = clock.Add(20 * time.Millisecond)
	end()

	end = r.Start(Span{Phase: PhaseUpdate, Layer: -1})
	clock = clock.Add(10 * time.Millisecond)
	end()

	end = r.Start(Span{Phase: PhaseBackward, Layer: 1})
	clock = clock.Add(5 * time.Millisecond)
	end()

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, PhaseBackward, snap[0].Phase)
	assert.Equal(t, 1, snap[0].Count)
	assert.Equal(t, PhaseUpdate, snap[1].Phase)
	assert.Equal(t, 2, snap[1].Count)
	assert.Equal(t, 30*time.Millisecond, snap[1].Total)
	assert.Equal(t, 15*time.Millisecond, snap[1].Mean())

	assert.Empty(t, r.Snapshot(), "snapshot should reset the recorder")
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Start(Span{Phase: PhaseForward, Layer: -1})()
			}
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1600, snap[0].Count)
}

func TestFuncAndNop(t *testing.T) {
	var got []Span
	f := Func(func(s Span) func() {
		got = append(got, s)
		return func() {}
	})
	f.Start(Span{Phase: PhaseAlloc, Layer: -1})()
	Nop.Start(Span{Phase: PhaseAlloc})()

	assert.Equal(t, []Span{{Phase: PhaseAlloc, Layer: -1}}, got)
	assert.Zero(t, Stat{}.Mean())
}
