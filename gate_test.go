package packlate

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_StartsOpen(t *testing.T) {
	assert.False(t, NewGate().Tripped(), "new gate should not be tripped")
}

func TestGate_TripIsMonotonic(t *testing.T) {
	g := NewGate()

	assert.True(t, g.Trip(), "first Trip should report the transition")
	assert.False(t, g.Trip(), "second Trip should be a no-op")
	assert.True(t, g.Tripped(), "gate should stay tripped")
}

func TestGate_ConcurrentTrip(t *testing.T) {
	g := NewGate()
	var transitions int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Trip() {
				atomic.AddInt32(&transitions, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), transitions, "expected exactly one transition")
	assert.True(t, g.Tripped())
}
