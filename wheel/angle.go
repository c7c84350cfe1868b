package wheel

import "math"

// Extra full turns added to every rotation so the wheel visibly spins.
const (
	FullTurnsMin = 3
	FullTurnsMax = 5
)

// Arc returns the size of one sector wedge in degrees.
func Arc(sectorCount int) float64 {
	return 360.0 / float64(sectorCount)
}

// RotationAngle returns the clockwise rotation in degrees that lands the
// pointer inside the arc of the 1-based ordinal. The full-turn count and the
// in-arc jitter are cosmetic; SectorForAngle inverts the mapping for any
// jitter value.
func RotationAngle(ordinal, sectorCount int, draw DrawSource) float64 {
	if sectorCount <= 0 || ordinal < 1 || ordinal > sectorCount {
		return 0
	}
	arc := Arc(sectorCount)
	turns := FullTurnsMin + int(draw(FullTurnsMax-FullTurnsMin+1))
	// Jitter stays within the middle 80% of the arc, in hundredths of a
	// degree, so float rounding can never push the pointer over an edge.
	lo, hi := arc*0.1, arc*0.9
	steps := int64((hi - lo) * 100)
	jitter := arc / 2
	if steps > 0 {
		jitter = lo + float64(draw(steps))/100
	}
	return float64(turns)*360 + float64(ordinal-1)*arc + jitter
}

// SectorForAngle maps a final rotation angle back to the 1-based ordinal
// whose arc contains it. Used by verification with the sector count frozen
// on the spin record.
func SectorForAngle(angle float64, sectorCount int) int {
	if sectorCount <= 0 {
		return 0
	}
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	ord := int(a/Arc(sectorCount)) + 1
	if ord > sectorCount {
		ord = sectorCount
	}
	return ord
}
