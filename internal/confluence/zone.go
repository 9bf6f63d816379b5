package confluence

import (
	"math"
	"sort"

	"ProfileSentinel/internal/model"
)

const (
	// PairwiseStrength is reported for agreeing composite POCs.
	PairwiseStrength = 80
	// POCZoneStrength is reported for agreeing intraday/daily/weekly POCs.
	POCZoneStrength = 100

	DefaultZoneWidthPct     = 0.5
	ConfluenceZoneWidthPct  = 0.8
	zoneConfluenceStepScore = 50
)

// POCSource is a named point of control fed to PairwisePOCConfluence.
type POCSource struct {
	Name string
	POC  float64
}

// POCZone returns a band of widthPct percent of poc, centred on it.
func POCZone(poc, widthPct float64) model.POCZone {
	width := poc * widthPct / 100
	return model.POCZone{
		POC:        poc,
		Upper:      poc + width/2,
		Lower:      poc - width/2,
		WidthPrice: width,
	}
}

// PairwisePOCConfluence sorts sources by POC and reports every neighbouring
// pair closer than tolPct percent of the lower one. Unlike Cluster, a source
// can appear in two pairs.
func PairwisePOCConfluence(sources []POCSource, tolPct float64, strength int) []model.PairConfluence {
	if len(sources) < 2 {
		return nil
	}
	sorted := make([]POCSource, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].POC < sorted[j].POC })

	var out []model.PairConfluence
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		if a.POC == 0 || math.Abs(a.POC-b.POC)/a.POC*100 >= tolPct {
			continue
		}
		out = append(out, model.PairConfluence{
			Price:    (a.POC + b.POC) / 2,
			Sources:  []string{a.Name, b.Name},
			Strength: strength,
		})
	}
	return out
}
