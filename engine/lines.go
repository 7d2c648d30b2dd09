package engine

const winLength = 5

// Scan order for the authoritative win check: horizontal, vertical,
// down-right, down-left.
var lineDirections = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}}

// FindFiveInLine looks for five consecutive identical marks with no gaps.
// Cells are visited column by column (x outer, y inner) and the first line
// found is returned as its two endpoints.
func (b *Board) FindFiveInLine() (Line, bool) {
	for x := 0; x < b.size; x++ {
		for y := 0; y < b.size; y++ {
			if b.At(x, y) == MarkEmpty {
				continue
			}
			for i := 0; i < len(lineDirections); i++ {
				dx := lineDirections[i][0]
				dy := lineDirections[i][1]
				if b.runFrom(x, y, dx, dy) == winLength {
					return Line{
						Start: Point{X: x, Y: y},
						End:   Point{X: x + (winLength-1)*dx, Y: y + (winLength-1)*dy},
					}, true
				}
			}
		}
	}
	return Line{Start: NoMove, End: NoMove}, false
}

// runFrom counts identical marks starting at (x, y), capped at winLength.
func (b *Board) runFrom(x, y, dx, dy int) int {
	endX := x + (winLength-1)*dx
	endY := y + (winLength-1)*dy
	if !b.InBounds(endX, endY) {
		return 0
	}
	target := b.At(x, y)
	count := 0
	for count < winLength && b.At(x+count*dx, y+count*dy) == target {
		count++
	}
	return count
}
