package fw

import (
	"github.com/ccnd-go/ccnd/defn"
	"github.com/ccnd-go/ccnd/table"
	"github.com/ccnd-go/ccnd/wire"
)

// orderRightmost is the child-selector preference that requires
// continuing past the first hit to find the last matching entry
// (spec.md §4.3 step 3, wire.OrderRightmost).
const orderRightmost = wire.OrderRightmost

// isPrefixMatch implements spec.md §4.3's is_prefix_match: the
// content must have strictly more components than the prefix (room
// for at least one named child), with the explicit-digest allowance
// for an interest whose last component is a 36-byte digest component
// matched against an ncomps-equal content.
func isPrefixMatch(content *table.ContentEntry, prefix defn.Name, prefixComps int) bool {
	effective := prefixComps
	if prefixComps > 0 && prefix.IsExplicitDigest(prefixComps-1) {
		// the trailing component is an explicit digest of the content
		// itself, not a named child: strip it and require an exact
		// (not strict) match against the stripped prefix (spec.md §4.3,
		// §8 scenario 6).
		effective = prefixComps - 1
		return content.Name.NComps() == effective && defn.SegmentsEqual(content.Name, prefix, effective)
	}

	if content.Name.NComps() < prefixComps+1 {
		return false
	}
	return defn.SegmentsEqual(content.Name, prefix, effective)
}

// matchInterest is the traversal algorithm of spec.md §4.3: find the
// smallest (or, under rightmost preference, largest) stored content
// whose name prefix-matches, response-filter-passes, and qualifier-
// matches the interest; on hit, schedule delivery; on miss, record
// demand and propagate.
func (d *Daemon) matchInterest(faceID uint64, interest *wire.Interest, encoded []byte) {
	origin, ok := d.Faces.Lookup(faceID)
	if !ok {
		return
	}

	prefixComps := interest.Name.NComps()
	var start *table.ContentEntry

	// Resume from the face's cached hint only for a repeated left-to-right
	// interest, i.e. when the cached entry still prefix-matches this one
	// (spec.md §4.3 step 1); rightmost and other non-default preferences
	// always re-scan from find_before.
	if acc, has := origin.Transport.CachedAccession(); has && interest.OrderPref <= 1 {
		if cached := d.CS.LookupByAccession(acc); cached != nil && isPrefixMatch(cached, interest.Name, prefixComps) {
			start = d.CS.Next(cached)
		}
		origin.Transport.ClearCachedAccession()
	}
	if start == nil {
		// An explicit-digest interest matches content named by the prefix
		// without its digest, which sorts before the full interest name.
		searchName := interest.Name
		if prefixComps > 0 && interest.Name.IsExplicitDigest(prefixComps-1) {
			searchName = defn.Name{Bytes: interest.Name.PrefixBytes(prefixComps - 1), Offsets: interest.Name.Offsets[:prefixComps]}
		}
		start = d.CS.FindBefore(searchName)
	}

	var hit *table.ContentEntry
	for c := start; c != nil; c = d.CS.Next(c) {
		if !isPrefixMatch(c, interest.Name, prefixComps) {
			break
		}
		hasFilter := interest.ResponseFilter.Present()
		if hasFilter && interest.ResponseFilter.Contains(c.SigHash) {
			continue
		}
		if hasFilter {
			d.clearShortTerm(c, faceID)
		} else if d.Cfg.Tables.ShortTermBlocking && d.wasSentShortTerm(c, faceID) {
			continue
		}
		co, err := d.Codec.DecodeContentObject(c.Tail)
		if err != nil || !wire.QualifierMatch(interest, co) {
			continue
		}

		if interest.OrderPref != orderRightmost {
			hit = c
			break
		}
		hit = c
	}

	if hit != nil {
		hit.AddRecipient(faceID)
		d.scheduleSend(hit)
		origin.Transport.SetCachedAccession(hit.Accession)
		return
	}

	pe := d.IPT.Record(interest.Name.PrefixBytes(prefixComps), faceID)
	d.armAging()
	d.propagate(faceID, interest, encoded, pe)
}

// wasSentShortTerm and clearShortTerm implement the experimental
// short-term-blocking toggle from spec.md §4.3/§9 open question (a):
// with no response filter present, a face that already received this
// content is skipped until a filter arrives and says "not seen",
// at which point the mark is cleared and the content resends.
func (d *Daemon) wasSentShortTerm(c *table.ContentEntry, faceID uint64) bool {
	for _, id := range c.Faces[:min(c.NFaceDone, len(c.Faces))] {
		if id == faceID {
			return true
		}
	}
	return false
}

func (d *Daemon) clearShortTerm(c *table.ContentEntry, faceID uint64) {
	if c.NFaceDone == 0 {
		return
	}
	for i := 0; i < c.NFaceDone; i++ {
		if c.Faces[i] == faceID {
			c.Faces[i] = c.Faces[c.NFaceDone-1]
			c.Faces[c.NFaceDone-1] = faceID
			c.NFaceDone--
			return
		}
	}
}

// synthNonce draws a fresh random nonce; kept as a thin wrapper so
// tests can substitute a deterministic rand.Rand via Daemon.rng.
func (d *Daemon) synthNonce() []byte {
	b := make([]byte, 6)
	d.rng.Read(b)
	return b
}
