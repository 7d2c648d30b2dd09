package engine

// findWinningGap looks for a line of four own marks with a single empty cell
// inside or at the end of a five-cell window, and returns that cell.
func (a *AI) findWinningGap() (Point, bool) {
	own := a.perspective
	for x := 0; x < a.size; x++ {
		for y := 0; y < a.size; y++ {
			if a.snapshot[a.index(x, y)] != own {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if gap, ok := a.probeGap(x, y, dx, dy); ok {
						return gap, true
					}
				}
			}
		}
	}
	return NoMove, false
}

// probeGap walks offsets 1..4 from (x, y). It fails on the grid edge, an
// opponent mark or a second empty cell.
func (a *AI) probeGap(x, y, dx, dy int) (Point, bool) {
	gap := -1
	for offset := 1; offset < winLength; offset++ {
		nx, ny := x+offset*dx, y+offset*dy
		if !a.inBounds(nx, ny) {
			return NoMove, false
		}
		switch a.snapshot[a.index(nx, ny)] {
		case MarkEmpty:
			if gap >= 0 {
				return NoMove, false
			}
			gap = offset
		case a.perspective:
		default:
			return NoMove, false
		}
	}
	if gap < 0 {
		return NoMove, false
	}
	return Point{X: x + gap*dx, Y: y + gap*dy}, true
}
