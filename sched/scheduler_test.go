package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is a Clock test double whose Now() only advances when
// the test tells it to, so deadline ordering can be exercised without
// real sleeps.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }
func (c *manualClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// Tasks fire in deadline order, and RunDue leaves not-yet-due tasks
// untouched.
func TestRunDueOrdering(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	s := NewWithClock(clock)

	var order []string
	s.Schedule(3*time.Second, func(bool) { order = append(order, "c") })
	s.Schedule(1*time.Second, func(bool) { order = append(order, "a") })
	s.Schedule(2*time.Second, func(bool) { order = append(order, "b") })

	clock.advance(2 * time.Second)
	s.RunDue()
	assert.Equal(t, []string{"a", "b"}, order)

	clock.advance(2 * time.Second)
	s.RunDue()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

// Tasks scheduled for exactly the same deadline fire in the order
// they were inserted, per spec.md §5.
func TestRunDueTieBreaksByInsertionOrder(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	s := NewWithClock(clock)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.Schedule(time.Second, func(bool) { order = append(order, i) })
	}
	clock.advance(time.Second)
	s.RunDue()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

// Cancel does not remove the task from the heap; it still fires once,
// but with cancelled=true, so the owner can release resources
// (spec.md §5's cancellation contract).
func TestCancelStillFiresOnceWithFlag(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	s := NewWithClock(clock)

	var gotCancelled bool
	var calls int
	task := s.Schedule(time.Second, func(cancelled bool) {
		calls++
		gotCancelled = cancelled
	})
	s.Cancel(task)

	clock.advance(time.Second)
	s.RunDue()

	assert.Equal(t, 1, calls)
	assert.True(t, gotCancelled)
}

// Cancelling a nil task is a no-op.
func TestCancelNil(t *testing.T) {
	s := New()
	assert.NotPanics(t, func() { s.Cancel(nil) })
}

// NextDeadline reports the earliest pending deadline and false once
// the heap drains.
func TestNextDeadline(t *testing.T) {
	clock := &manualClock{now: time.Unix(100, 0)}
	s := NewWithClock(clock)

	_, ok := s.NextDeadline()
	assert.False(t, ok)

	s.Schedule(5*time.Second, func(bool) {})
	d, ok := s.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, clock.now.Add(5*time.Second), d)

	clock.advance(5 * time.Second)
	s.RunDue()
	_, ok = s.NextDeadline()
	assert.False(t, ok)
}

// A zero or negative delay runs at the very next RunDue call without
// needing the clock to advance further.
func TestScheduleZeroDelay(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	s := NewWithClock(clock)

	ran := false
	s.Schedule(0, func(bool) { ran = true })
	s.RunDue()
	assert.True(t, ran)
}
