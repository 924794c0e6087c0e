package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Record creates an entry and a face slot on first sighting, and
// credits the same slot (rather than duplicating it) on repeats.
func TestRecordCreatesAndCredits(t *testing.T) {
	tbl := NewInterestPrefixTable(100)

	e := tbl.Record([]byte("/a"), 1)
	require.NotNil(t, e)
	assert.Equal(t, []uint64{1}, e.FaceIDs)
	assert.Equal(t, []uint32{100}, e.Counters)

	e2 := tbl.Record([]byte("/a"), 1)
	assert.Same(t, e, e2)
	assert.Equal(t, []uint32{200}, e.Counters)
	assert.Equal(t, 1, tbl.Len())
}

// ConsumeFace swap-removes a face's demand slot, keeping the parallel
// FaceIDs/Counters vectors in lockstep.
func TestConsumeFace(t *testing.T) {
	tbl := NewInterestPrefixTable(100)
	tbl.Record([]byte("/a"), 1)
	tbl.Record([]byte("/a"), 2)
	tbl.Record([]byte("/a"), 3)

	e, ok := tbl.Lookup([]byte("/a"))
	require.True(t, ok)

	assert.True(t, e.ConsumeFace(2))
	assert.Len(t, e.FaceIDs, 2)
	assert.Len(t, e.Counters, 2)
	assert.NotContains(t, e.FaceIDs, uint64(2))

	assert.False(t, e.ConsumeFace(99))
}

// AgePass decays a counter above unitInterest by 5/6 each pass, and
// decrements a counter at exactly unitInterest by one without removing
// the face yet.
func TestAgePassDecay(t *testing.T) {
	tbl := NewInterestPrefixTable(100)
	tbl.Record([]byte("/a"), 1) // counter = 100 (== unitInterest)
	tbl.Record([]byte("/a"), 1) // counter = 200 (> unitInterest)
	tbl.Record([]byte("/a"), 2) // counter = 100 (== unitInterest)

	e, _ := tbl.Lookup([]byte("/a"))
	require.Len(t, e.FaceIDs, 2)

	aged, reaped := tbl.AgePass(9)
	assert.Equal(t, 1, aged)
	assert.Equal(t, 0, reaped)

	idx1, idx2 := e.indexOf(1), e.indexOf(2)
	require.GreaterOrEqual(t, idx1, 0)
	require.GreaterOrEqual(t, idx2, 0)
	assert.Equal(t, uint32(166), e.Counters[idx1]) // 200 * 5 / 6
	assert.Equal(t, uint32(99), e.Counters[idx2])  // 100 - 1
}

// A counter that overshoots past unitInterest in a single 5/6 pass
// (landing strictly between 0 and unitInterest) keeps decaying on
// every subsequent pass instead of stalling forever.
func TestAgePassDecaysPastOvershoot(t *testing.T) {
	tbl := NewInterestPrefixTable(1024)
	e := tbl.Record([]byte("/a"), 1)
	e.Counters[0] = 1161 // one 5/6 pass lands at 967, inside (0, 1024)

	tbl.AgePass(9)
	idx := e.indexOf(1)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, uint32(967), e.Counters[idx])

	tbl.AgePass(9)
	idx = e.indexOf(1)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, uint32(805), e.Counters[idx], "overshot counter must keep decaying, not stall")
}

// A counter that decays to zero is removed from the entry, and a
// prefix left with no faces at all is reaped after idleLimit
// consecutive idle passes.
func TestAgePassReapsIdleEntry(t *testing.T) {
	tbl := NewInterestPrefixTable(1)
	tbl.Record([]byte("/a"), 1) // counter == unitInterest

	// First pass: counter decrements to 0 and is swap-removed, leaving
	// the entry with zero faces and one idle pass recorded.
	aged, reaped := tbl.AgePass(3)
	assert.Equal(t, 1, aged)
	assert.Equal(t, 0, reaped)

	e, ok := tbl.Lookup([]byte("/a"))
	require.True(t, ok)
	assert.Empty(t, e.FaceIDs)
	assert.Equal(t, 1, e.IdlePasses)

	tbl.AgePass(3)
	tbl.AgePass(3)
	_, ok = tbl.Lookup([]byte("/a"))
	assert.False(t, ok, "entry should be reaped on the 3rd consecutive idle pass")
}

// A fresh Record on an idle entry resets its idle-pass counter so it
// survives the next aging pass.
func TestRecordResetsIdlePasses(t *testing.T) {
	tbl := NewInterestPrefixTable(1)
	tbl.Record([]byte("/a"), 1)
	tbl.AgePass(9) // decays to 0, face removed, entry now idle

	e, ok := tbl.Lookup([]byte("/a"))
	require.True(t, ok)
	require.Equal(t, 1, e.IdlePasses)

	tbl.Record([]byte("/a"), 1)
	assert.Zero(t, e.IdlePasses)
}

// Forget drops a released face from every prefix entry that
// references it, and removes any entry left with no faces.
func TestForgetDropsFaceEverywhere(t *testing.T) {
	tbl := NewInterestPrefixTable(100)
	tbl.Record([]byte("/a"), 1)
	tbl.Record([]byte("/b"), 1)
	tbl.Record([]byte("/b"), 2)

	tbl.Forget(1)

	_, ok := tbl.Lookup([]byte("/a"))
	assert.False(t, ok, "/a had only face 1, so it is removed entirely")

	e, ok := tbl.Lookup([]byte("/b"))
	require.True(t, ok)
	assert.Equal(t, []uint64{2}, e.FaceIDs)
}
