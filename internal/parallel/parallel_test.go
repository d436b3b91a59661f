package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestFor_EachIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8, 64} {
		cfg := Config{Enabled: true, NumWorkers: workers, MinChunkSize: 1}
		n := 37
		hits := make([]int32, n)

		For(n, func(i int) {
			atomic.AddInt32(&hits[i], 1)
		}, cfg)

		for i, h := range hits {
			require.Equalf(t, int32(1), h, "workers=%d index=%d", workers, i)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	For(5, func(i int) {
		order = append(order, i)
	}, Sequential())

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_Empty(t *testing.T) {
	called := false
	For(0, func(_ int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestMap_PreservesOrder(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	out := Map(100, func(i int) int { return i * i }, cfg)

	require.Len(t, out, 100)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestWorkers(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 2}
	assert.Equal(t, 1, cfg.workers(1))
	assert.Equal(t, 3, cfg.workers(3))
	assert.Equal(t, 8, cfg.workers(100))

	cfg.Enabled = false
	assert.Equal(t, 1, cfg.workers(100))
}

func TestCores(t *testing.T) {
	assert.Positive(t, Cores())
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, Sequential())
		}
	})
}
