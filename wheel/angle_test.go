package wheel

import "testing"

func TestRotationAngleRoundTrip(t *testing.T) {
	for _, count := range []int{2, 4, 6, 8, 12} {
		for ordinal := 1; ordinal <= count; ordinal++ {
			for i := 0; i < 50; i++ {
				angle := RotationAngle(ordinal, count, SecureSource)
				if angle < FullTurnsMin*360 || angle >= (FullTurnsMax+1)*360 {
					t.Fatalf("count %d ordinal %d: angle %.2f outside the turn range", count, ordinal, angle)
				}
				if got := SectorForAngle(angle, count); got != ordinal {
					t.Fatalf("count %d ordinal %d: angle %.2f maps back to %d", count, ordinal, angle, got)
				}
			}
		}
	}
}

func TestRotationAngleDeterministic(t *testing.T) {
	// draw always 0: minimum turns, minimum jitter (10% into the arc).
	angle := RotationAngle(3, 6, fixedDraw(0))
	want := 3*360 + 2*60 + 6.0
	if angle != want {
		t.Fatalf("got %.2f, want %.2f", angle, want)
	}
}

func TestRotationAngleRejectsBadInput(t *testing.T) {
	for _, c := range []struct{ ordinal, count int }{
		{0, 6}, {7, 6}, {1, 0}, {-1, 6},
	} {
		if got := RotationAngle(c.ordinal, c.count, fixedDraw(0)); got != 0 {
			t.Errorf("ordinal %d count %d: got %.2f, want 0", c.ordinal, c.count, got)
		}
	}
}

func TestSectorForAngle(t *testing.T) {
	cases := []struct {
		angle float64
		count int
		want  int
	}{
		{0, 6, 1},
		{59.99, 6, 1},
		{60, 6, 2},
		{359.99, 6, 6},
		{360, 6, 1},     // wraps
		{1445, 4, 1},    // 4 turns + 5 degrees
		{-30, 6, 6},     // negative normalizes to 330
		{360.0, 0, 0},   // no sectors
		{179.999, 2, 1}, // just under the boundary
		{180, 2, 2},
	}
	for _, c := range cases {
		if got := SectorForAngle(c.angle, c.count); got != c.want {
			t.Errorf("angle %.3f count %d: got %d, want %d", c.angle, c.count, got, c.want)
		}
	}
}
