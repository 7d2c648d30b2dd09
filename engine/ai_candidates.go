package engine

const neighbourRange = 1

// collectCandidates appends every empty cell touching an occupied cell to
// buf, column by column, stopping at the candidate cap. An empty grid yields
// a single opening cell near the centre.
func (a *AI) collectCandidates(buf []Point) []Point {
	for x := 0; x < a.size; x++ {
		for y := 0; y < a.size; y++ {
			if a.snapshot[a.index(x, y)] != MarkEmpty {
				continue
			}
			if !a.hasNeighbour(x, y) {
				continue
			}
			if len(buf) >= a.candidateCap {
				return buf
			}
			buf = append(buf, Point{X: x, Y: y})
		}
	}
	if len(buf) == 0 && !a.snapshotFull() {
		buf = append(buf, a.openingMove())
	}
	return buf
}

func (a *AI) hasNeighbour(x, y int) bool {
	for dx := -neighbourRange; dx <= neighbourRange; dx++ {
		for dy := -neighbourRange; dy <= neighbourRange; dy++ {
			nx, ny := x+dx, y+dy
			if !a.inBounds(nx, ny) {
				continue
			}
			if a.snapshot[a.index(nx, ny)] != MarkEmpty {
				return true
			}
		}
	}
	return false
}

// snapshotFull is only reached when no empty cell has a neighbour, which means
// the grid is either empty or full.
func (a *AI) snapshotFull() bool {
	for _, cell := range a.snapshot {
		if cell == MarkEmpty {
			return false
		}
	}
	return true
}

// openingMove picks a cell in a window of side N/4 (rounded up to even)
// around the centre.
func (a *AI) openingMove() Point {
	window := a.size / 4
	if window%2 != 0 {
		window++
	}
	centre := a.size / 2
	if window == 0 {
		return Point{X: centre, Y: centre}
	}
	x := centre + a.rand.Intn(window) - window/2
	y := centre + a.rand.Intn(window) - window/2
	return Point{X: x % a.size, Y: y % a.size}
}
