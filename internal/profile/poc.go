package profile

import "ProfileSentinel/internal/model"

// POCIndex returns the index of the highest-volume bin, or -1 for an empty
// profile. Ties resolve to the lowest-priced bin.
func POCIndex(p model.Profile) int {
	best := -1
	for i, b := range p.Bins {
		if best < 0 || b.Volume > p.Bins[best].Volume {
			best = i
		}
	}
	return best
}

// POC returns the point-of-control price. ok is false (and price 0) when the
// profile has no bins.
func POC(p model.Profile) (price float64, ok bool) {
	idx := POCIndex(p)
	if idx < 0 {
		return 0, false
	}
	return p.Bins[idx].Price, true
}
