package wheel

import (
	"crypto/rand"
	"math/big"
)

// DrawSource returns a uniform random integer in [0, n) for n > 0.
// Injected so selection is deterministic under test.
type DrawSource func(n int64) int64

// SecureSource draws from crypto/rand so outcomes cannot be predicted from
// server timing. Used for all real spins.
func SecureSource(n int64) int64 {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0
	}
	return v.Int64()
}

// Selector maps a random draw to exactly one sector of a snapshot.
type Selector struct {
	draw DrawSource
}

func NewSelector() *Selector {
	return &Selector{draw: SecureSource}
}

func NewSelectorWithSource(draw DrawSource) *Selector {
	return &Selector{draw: draw}
}

// Pick is the outcome of one selection.
type Pick struct {
	Sector          *Sector
	TotalScaled     int64 // sum of weights in hundredths at draw time
	UniformFallback bool  // all weights were zero; picked uniformly
	SumInvalid      bool  // weights missed 100% by more than the tolerance
}

// Select picks one sector from the snapshot by weighted probability.
// Returns false only when the snapshot has no sectors at all.
//
// The draw r is uniform in [0, total); walking sectors in ordinal order, the
// first sector whose cumulative weight exceeds r wins. Because both sides
// are integers, a draw landing exactly on a boundary always resolves to the
// earlier sector. This tie-break is fixed: changing it would silently shift
// probability between adjacent sectors.
func (s *Selector) Select(snap Snapshot) (Pick, bool) {
	if snap.Empty() {
		return Pick{}, false
	}
	pick := Pick{
		TotalScaled: snap.totalScaled(),
		SumInvalid:  snap.SumInvalid(),
	}
	if pick.TotalScaled <= 0 {
		// Misconfigured wheel (all weights zero): pick uniformly rather than
		// stalling gameplay. The SumInvalid flag gets this logged upstream.
		idx := s.draw(int64(len(snap.Sectors)))
		pick.Sector = &snap.Sectors[idx]
		pick.UniformFallback = true
		return pick, true
	}
	r := s.draw(pick.TotalScaled)
	var cum int64
	for i := range snap.Sectors {
		cum += snap.Sectors[i].scaledWeight()
		if r < cum {
			pick.Sector = &snap.Sectors[i]
			return pick, true
		}
	}
	// Unreachable when r < total; keep the last sector as a safety net.
	pick.Sector = &snap.Sectors[len(snap.Sectors)-1]
	return pick, true
}
