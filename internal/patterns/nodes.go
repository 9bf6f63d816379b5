// Package patterns classifies finished volume profiles: high and low volume
// nodes, breakout gaps, unfinished extremes, tails and overall shape.
// All functions are pure.
package patterns

import (
	"sort"

	"ProfileSentinel/internal/model"
)

const (
	DefaultHVNMult    = 1.3
	DefaultLVNMult    = 0.7
	DefaultClusterGap = 0.01

	clusterStrengthStep = 5
	maxStrength         = 100
)

// DetectNodes flags bins at or above hvnMult × mean volume as HVN and at or
// below lvnMult × mean as LVN, then clusters each kind.
func DetectNodes(p model.Profile, hvnMult, lvnMult float64) model.NodeReport {
	if p.Empty() {
		return model.NodeReport{}
	}
	mean := p.MeanVolume()
	report := model.NodeReport{AverageVolume: mean}
	for _, b := range p.Bins {
		if b.Volume >= mean*hvnMult {
			report.HVN = append(report.HVN, model.VolumeNode{Price: b.Price, Volume: b.Volume, Kind: model.NodeHVN})
		}
		if b.Volume <= mean*lvnMult {
			report.LVN = append(report.LVN, model.VolumeNode{Price: b.Price, Volume: b.Volume, Kind: model.NodeLVN})
		}
	}
	report.HVNClusters = GroupClusters(report.HVN, DefaultClusterGap)
	report.LVNClusters = GroupClusters(report.LVN, DefaultClusterGap)
	return report
}

// GroupClusters walks nodes in price order and starts a new cluster whenever
// the step from the previous node is gapPct (relative) or more.
func GroupClusters(nodes []model.VolumeNode, gapPct float64) []model.NodeCluster {
	if len(nodes) == 0 {
		return nil
	}
	sorted := make([]model.VolumeNode, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	var clusters []model.NodeCluster
	current := []model.VolumeNode{sorted[0]}
	for _, n := range sorted[1:] {
		prev := current[len(current)-1].Price
		if closeEnough(prev, n.Price, gapPct) {
			current = append(current, n)
			continue
		}
		clusters = append(clusters, summarizeCluster(current))
		current = []model.VolumeNode{n}
	}
	return append(clusters, summarizeCluster(current))
}

func closeEnough(prev, cur, gapPct float64) bool {
	if prev == 0 {
		return cur == 0
	}
	return (cur-prev)/prev < gapPct
}

func summarizeCluster(nodes []model.VolumeNode) model.NodeCluster {
	c := model.NodeCluster{
		PriceLow:  nodes[0].Price,
		PriceHigh: nodes[len(nodes)-1].Price,
		Count:     len(nodes),
		Strength:  min(maxStrength, len(nodes)*clusterStrengthStep),
	}
	var sum float64
	for _, n := range nodes {
		sum += n.Price
		c.TotalVolume += n.Volume
	}
	c.PriceCenter = sum / float64(len(nodes))
	return c
}

// BreakoutZones reports each LVN cluster whose center lies strictly between
// an HVN cluster below it and one above it. Support is the high of the
// nearest HVN cluster below, resistance the low of the nearest one above.
func BreakoutZones(hvn, lvn []model.NodeCluster) []model.BreakoutZone {
	if len(hvn) == 0 || len(lvn) == 0 {
		return nil
	}
	hvns := sortedByCenter(hvn)
	var zones []model.BreakoutZone
	for _, l := range sortedByCenter(lvn) {
		center := l.PriceCenter
		below, above := -1, -1
		for i, h := range hvns {
			if h.PriceHigh < center {
				below = i
			}
			if above < 0 && h.PriceLow > center {
				above = i
			}
		}
		if below < 0 || above < 0 {
			continue
		}
		support, resistance := hvns[below].PriceHigh, hvns[above].PriceLow
		zones = append(zones, model.BreakoutZone{
			Price:      center,
			Support:    support,
			Resistance: resistance,
			Width:      resistance - support,
			Strength:   maxStrength - l.Strength,
		})
	}
	return zones
}

// FindBreakoutZones runs DetectNodes with default thresholds and returns
// its breakout zones.
func FindBreakoutZones(p model.Profile) []model.BreakoutZone {
	n := DetectNodes(p, DefaultHVNMult, DefaultLVNMult)
	return BreakoutZones(n.HVNClusters, n.LVNClusters)
}

func sortedByCenter(cs []model.NodeCluster) []model.NodeCluster {
	out := make([]model.NodeCluster, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PriceCenter < out[j].PriceCenter })
	return out
}
