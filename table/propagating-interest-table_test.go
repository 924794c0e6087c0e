package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Insert indexes an entry both by nonce (for loop suppression) and by
// prefix (for duplicate-propagation queries).
func TestInsertIndexesBothWays(t *testing.T) {
	pit := NewPropagatingInterestTable()
	now := time.Unix(1000, 0)

	e := pit.Insert([]byte("/a"), [8]byte{1}, 7, now.Add(4*time.Second))
	require.NotNil(t, e)

	assert.True(t, pit.SeenNonce([8]byte{1}))
	assert.False(t, pit.SeenNonce([8]byte{2}))
	assert.Equal(t, 1, pit.Len())

	var seen []*PitEntry
	pit.Range([]byte("/a"), func(pe *PitEntry) bool {
		seen = append(seen, pe)
		return true
	})
	assert.Equal(t, []*PitEntry{e}, seen)
}

// Multiple entries under the same prefix form an intrusive
// doubly-linked list visited in arrival order.
func TestRangeArrivalOrder(t *testing.T) {
	pit := NewPropagatingInterestTable()
	now := time.Unix(1000, 0)

	e1 := pit.Insert([]byte("/a"), [8]byte{1}, 1, now)
	e2 := pit.Insert([]byte("/a"), [8]byte{2}, 2, now)
	e3 := pit.Insert([]byte("/a"), [8]byte{3}, 3, now)

	var order []*PitEntry
	pit.Range([]byte("/a"), func(pe *PitEntry) bool {
		order = append(order, pe)
		return true
	})
	assert.Equal(t, []*PitEntry{e1, e2, e3}, order)
}

// Remove unlinks an entry from both the nonce index and its prefix's
// list, correctly relinking neighbors whether it was the head, the
// tail, or a middle element.
func TestRemoveRelinksNeighbors(t *testing.T) {
	pit := NewPropagatingInterestTable()
	now := time.Unix(1000, 0)

	e1 := pit.Insert([]byte("/a"), [8]byte{1}, 1, now)
	e2 := pit.Insert([]byte("/a"), [8]byte{2}, 2, now)
	e3 := pit.Insert([]byte("/a"), [8]byte{3}, 3, now)

	pit.Remove(e2)
	assert.False(t, pit.SeenNonce([8]byte{2}))

	var order []*PitEntry
	pit.Range([]byte("/a"), func(pe *PitEntry) bool {
		order = append(order, pe)
		return true
	})
	assert.Equal(t, []*PitEntry{e1, e3}, order)

	pit.Remove(e1)
	pit.Remove(e3)
	assert.Equal(t, 0, pit.Len())
	_, stillThere := pit.byPrefix["/a"]
	assert.False(t, stillThere, "prefix head should be dropped once its list empties")
}

// Removing the same entry twice is a no-op, not a double-unlink panic.
func TestRemoveIdempotent(t *testing.T) {
	pit := NewPropagatingInterestTable()
	e := pit.Insert([]byte("/a"), [8]byte{1}, 1, time.Unix(0, 0))
	pit.Remove(e)
	assert.NotPanics(t, func() { pit.Remove(e) })
}

// Sweep removes and returns every entry whose expiry has already
// passed, leaving unexpired entries in place.
func TestSweepExpiresOnlyPastDeadlines(t *testing.T) {
	pit := NewPropagatingInterestTable()
	base := time.Unix(1000, 0)

	pit.Insert([]byte("/a"), [8]byte{1}, 1, base.Add(-1*time.Second)) // expired
	live := pit.Insert([]byte("/b"), [8]byte{2}, 2, base.Add(5*time.Second))

	expired := pit.Sweep(base)
	require.Len(t, expired, 1)
	assert.Equal(t, [8]byte{1}, expired[0].Nonce)

	assert.Equal(t, 1, pit.Len())
	assert.True(t, pit.SeenNonce(live.Nonce))
}
