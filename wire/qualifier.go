package wire

import "bytes"

// QualifierMatch implements spec.md §4.3's is_qualifier_match for the
// subset of selectors SPEC_FULL.md §4.11 names: publisher filter,
// min/max suffix-component counts, and exclude-by-component. It is
// the concrete stand-in for what spec.md calls "delegated to the
// external codec."
func QualifierMatch(i *Interest, c *ContentObject) bool {
	if len(i.Publisher) > 0 && !bytes.Equal(i.Publisher, c.Publisher) {
		return false
	}

	suffixLen := c.Name.NComps() - i.Name.NComps()
	if i.MinSuffix > 0 && suffixLen < i.MinSuffix {
		return false
	}
	if i.MaxSuffix >= 0 && suffixLen > i.MaxSuffix {
		return false
	}

	if len(i.Exclude) > 0 && suffixLen > 0 {
		next := c.Name.ComponentValue(i.Name.NComps())
		for _, ex := range i.Exclude {
			if bytes.Equal(ex, next) {
				return false
			}
		}
	}

	return true
}
