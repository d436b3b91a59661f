// Package parallel provides the fork-join worker pool used to map work over
// the examples of a mini-batch.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Fixed number of worker goroutines.
	MinChunkSize int  // Below this many items the loop runs inline.
}

// DefaultConfig returns a pool sized to the physical core count. Loops of
// two or more items are spread over the workers.
func DefaultConfig() Config {
	n := Cores()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 2,
	}
}

// Sequential returns a config that always runs inline.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1}
}

// Cores reports the number of physical cores, falling back to the logical
// CPU count when cpuid cannot tell.
func Cores() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// workers returns the number of goroutines to start for n items.
func (c Config) workers(n int) int {
	if !c.Enabled || n < max(c.MinChunkSize, 2) || c.NumWorkers <= 1 {
		return 1
	}
	return min(c.NumWorkers, n)
}

// For executes f(i) for every i in [0, n) and returns once all calls have
// finished. At most cfg.NumWorkers calls run at the same time; each worker
// pulls the next index from a shared counter, so uneven items balance out.
func For(n int, f func(i int), cfg Config) {
	w := cfg.workers(n)
	if w == 1 {
		for i := range n {
			f(i)
		}
		return
	}

	var (
		wg   sync.WaitGroup
		next atomic.Int64
	)
	wg.Add(w)
	for range w {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= n {
					return
				}
				f(i)
			}
		}()
	}
	wg.Wait()
}

// Map runs f over [0, n) on the pool and returns the results in index order.
// Each call writes only its own slot.
func Map[T any](n int, f func(i int) T, cfg Config) []T {
	out := make([]T, n)
	For(n, func(i int) {
		out[i] = f(i)
	}, cfg)
	return out
}
