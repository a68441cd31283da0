package matcher

// EraBuffer is how many years outside a poet's lifetime still earn partial credit.
const EraBuffer = 50

// EraScore rates how plausible a creation year is for a poet's lifetime.
// Years inside the lifetime score 1. Within EraBuffer years of either end the
// score decays linearly down to 0.5 at the boundary, and beyond it is 0.
// The second return is false when any input is unknown.
func EraScore(birth, death, year *int) (float64, bool) {
	if birth == nil || death == nil || year == nil {
		return 0, false
	}
	b, d, y := *birth, *death, *year
	if b > d {
		b, d = d, b
	}

	if y >= b && y <= d {
		return 1, true
	}

	dist := b - y
	if y > d {
		dist = y - d
	}
	if dist > EraBuffer {
		return 0, true
	}
	return 1 - (float64(dist)/EraBuffer)*0.5, true
}
