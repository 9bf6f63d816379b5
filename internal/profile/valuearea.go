package profile

import (
	"sort"

	"ProfileSentinel/internal/model"
)

// DefaultValueAreaPct is the share of volume a value area must capture.
const DefaultValueAreaPct = 0.70

func checkPct(pct float64) error {
	if pct <= 0 || pct > 1 {
		return ErrInvalidValueAreaPct
	}
	return nil
}

// ValueAreaBins returns the indices selected by the envelope algorithm in the
// order they were taken: bins sorted by volume descending (equal volumes keep
// ascending price order), accumulated until pct of total volume is reached.
// A zero-volume or empty profile selects nothing.
func ValueAreaBins(p model.Profile, pct float64) ([]int, error) {
	if err := checkPct(pct); err != nil {
		return nil, err
	}
	total := p.TotalVolume()
	if total <= 0 {
		return nil, nil
	}
	order := make([]int, len(p.Bins))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.Bins[order[a]].Volume > p.Bins[order[b]].Volume
	})

	target := total * pct
	var cum float64
	selected := make([]int, 0, len(order))
	for _, idx := range order {
		cum += p.Bins[idx].Volume
		selected = append(selected, idx)
		if cum >= target {
			break
		}
	}
	return selected, nil
}

// ValueArea returns the lowest and highest price among the bins chosen by
// ValueAreaBins. The result is the envelope of the heaviest bins and may
// enclose low-volume gaps; use ValueAreaContiguous for a single band grown
// from the POC. Zero total volume yields (0, 0).
func ValueArea(p model.Profile, pct float64) (val, vah float64, err error) {
	selected, err := ValueAreaBins(p, pct)
	if err != nil || len(selected) == 0 {
		return 0, 0, err
	}
	val, vah = p.Bins[selected[0]].Price, p.Bins[selected[0]].Price
	for _, idx := range selected[1:] {
		price := p.Bins[idx].Price
		if price < val {
			val = price
		}
		if price > vah {
			vah = price
		}
	}
	return val, vah, nil
}

// ValueAreaContiguous grows a band outward from the POC, each step taking the
// heavier of the two neighbouring bins (the lower one on a tie), until pct of
// total volume is inside. Zero total volume yields (0, 0).
func ValueAreaContiguous(p model.Profile, pct float64) (val, vah float64, err error) {
	if err := checkPct(pct); err != nil {
		return 0, 0, err
	}
	total := p.TotalVolume()
	poc := POCIndex(p)
	if total <= 0 || poc < 0 {
		return 0, 0, nil
	}

	target := total * pct
	up, down := poc, poc
	cum := p.Bins[poc].Volume
	n := len(p.Bins)
	for cum < target {
		canUp := up < n-1
		canDown := down > 0
		if !canUp && !canDown {
			break
		}
		var nextUp, nextDown float64
		if canUp {
			nextUp = p.Bins[up+1].Volume
		}
		if canDown {
			nextDown = p.Bins[down-1].Volume
		}
		if canUp && (!canDown || nextUp > nextDown) {
			up++
			cum += nextUp
		} else {
			down--
			cum += nextDown
		}
	}
	return p.Bins[down].Price, p.Bins[up].Price, nil
}
