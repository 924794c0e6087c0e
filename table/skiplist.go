package table

import (
	"math/rand"

	"github.com/ccnd-go/ccnd/defn"
)

// maxSkipDepth and depthP are the probabilistic skiplist's depth bound
// and coin-flip success probability from spec.md §4.2.
const (
	maxSkipDepth = 30
	depthP       = 0.75
)

// skipNode is the embeddable forward-pointer vector every ContentEntry
// carries, per spec.md §3 "a skiplist-link vector."
type skipNode struct {
	next []*ContentEntry
}

// skiplist is the probabilistic, name-ordered index over content
// entries (spec.md §4.2). It owns a sentinel head whose "name" is
// defined to compare less than every real name.
type skiplist struct {
	head     ContentEntry // sentinel; head.Name is never read
	topLevel int          // number of levels currently in use (1..30)
	rng      *rand.Rand
}

func newSkiplist(seed int64) *skiplist {
	return &skiplist{
		head:     ContentEntry{skipNode: skipNode{next: make([]*ContentEntry, maxSkipDepth)}},
		topLevel: 1,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// randomDepth draws 1 + the number of consecutive successful coin
// flips of probability depthP, capped at 29, then caps the result at
// the current top level so the list grows one level at a time
// (spec.md §4.2).
func (s *skiplist) randomDepth() int {
	d := 1
	for d < maxSkipDepth-1 && s.rng.Float64() < depthP {
		d++
	}
	if d > s.topLevel+1 {
		d = s.topLevel + 1
	}
	if d > s.topLevel {
		s.topLevel = d
	}
	return d
}

// findBefore returns, for each active level, the last entry whose
// name compares strictly less than name (the head sentinel if none).
// update[0] is the level-0 predecessor; its Next is the first entry
// with name >= the query (spec.md §4.2 find_before).
func (s *skiplist) findBefore(name defn.Name) []*ContentEntry {
	update := make([]*ContentEntry, maxSkipDepth)
	cur := &s.head
	for lvl := s.topLevel - 1; lvl >= 0; lvl-- {
		for cur.next[lvl] != nil && cur.next[lvl].Name.Compare(name) < 0 {
			cur = cur.next[lvl]
		}
		update[lvl] = cur
	}
	return update
}

// successor returns the level-0 entry with name >= the query, i.e.
// the node immediately following the predecessors update returns.
func successor(update []*ContentEntry) *ContentEntry {
	return update[0].next[0]
}

// insert splices e into the skiplist at a freshly drawn depth,
// returning that depth.
func (s *skiplist) insert(e *ContentEntry, update []*ContentEntry) int {
	d := s.randomDepth()
	e.next = make([]*ContentEntry, d)
	for lvl := 0; lvl < d; lvl++ {
		pred := update[lvl]
		if pred == nil {
			pred = &s.head
		}
		e.next[lvl] = pred.next[lvl]
		pred.next[lvl] = e
	}
	return d
}

// next returns the level-0 skiplink, per spec.md §4.2 "next(content)".
func (s *skiplist) next(e *ContentEntry) *ContentEntry {
	if len(e.next) == 0 {
		return nil
	}
	return e.next[0]
}
