package patterns

import "ProfileSentinel/internal/model"

const (
	peakRatio    = 0.8
	valleyRatio  = 0.6
	doubleSpread = 0.4
	upperPeakPos = 0.65
	lowerPeakPos = 0.35
)

var shapeDescriptions = map[model.Shape]string{
	model.ShapeDouble:  "Double Distribution",
	model.ShapeP:       "Short Covering / Trend Up",
	model.ShapeB:       "Long Liquidation / Trend Down",
	model.ShapeNormal:  "Balanced / Bell Curve",
	model.ShapeUnknown: "Not enough data",
}

// ClassifyShape labels the profile by where its peaks (bins within 80% of the
// maximum) sit. Two peaks far apart with a valley between them make a double
// distribution; otherwise peaks high in the range make a P, low make a b.
func ClassifyShape(p model.Profile) model.ShapeReport {
	maxVol := p.MaxVolume()
	if p.Empty() || maxVol <= 0 {
		return shapeReport(model.ShapeUnknown)
	}

	var peaks []int
	for i, b := range p.Bins {
		if b.Volume >= maxVol*peakRatio {
			peaks = append(peaks, i)
		}
	}
	n := len(p.Bins)
	first, last := peaks[0], peaks[len(peaks)-1]

	if len(peaks) >= 2 && float64(last-first) > float64(n)*doubleSpread {
		mid := (first + last) / 2
		if p.Bins[mid].Volume < maxVol*valleyRatio {
			return shapeReport(model.ShapeDouble)
		}
	}

	var sum int
	for _, i := range peaks {
		sum += i
	}
	pos := float64(sum) / float64(len(peaks)) / float64(n)
	switch {
	case pos > upperPeakPos:
		return shapeReport(model.ShapeP)
	case pos < lowerPeakPos:
		return shapeReport(model.ShapeB)
	default:
		return shapeReport(model.ShapeNormal)
	}
}

func shapeReport(s model.Shape) model.ShapeReport {
	return model.ShapeReport{Shape: s, Description: shapeDescriptions[s]}
}
