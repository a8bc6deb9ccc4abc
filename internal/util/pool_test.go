package util

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParallelExecute_RunsAllTasks(t *testing.T) {
	t.Parallel()

	var count atomic.Int32
	tasks := make([]func(), 10)
	for i := range tasks {
		tasks[i] = func() { count.Add(1) }
	}

	ParallelExecute(3, tasks...)
	assert.Equal(t, int32(10), count.Load())
}

func TestParallelExecute_RespectsLimit(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	tasks := make([]func(), 8)
	for i := range tasks {
		tasks[i] = func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
		}
	}

	ParallelExecute(2, tasks...)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestParallelExecute_NoTasks(t *testing.T) {
	t.Parallel()
	ParallelExecute(4)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "attack-on-titan", Slugify("Attack on Titan"))
	assert.Equal(t, "re-zero-season-2", Slugify("Re:Zero  Season 2!"))
}
