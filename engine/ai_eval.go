package engine

// Pattern scores. A run is open when the cell before its origin is free
// or holds the same mark.
const (
	ScoreFive         = 1000000
	ScoreFour         = 5000
	ScoreFourBlocked  = 1000
	ScoreThree        = 500
	ScoreThreeBlocked = 200
	ScoreTwo          = 100
	ScoreTwoBlocked   = 20
)

const maxEvalGaps = 1

var (
	openScores    = [3]int{ScoreTwo, ScoreThree, ScoreFour}
	blockedScores = [3]int{ScoreTwoBlocked, ScoreThreeBlocked, ScoreFourBlocked}
)

// Evaluate scores the snapshot from the perspective mark. turn is the mark
// that was just placed, or MarkEmpty when there is no ply context. Each
// cell's contribution is kept for Scores.
func (a *AI) Evaluate(turn Mark) int {
	if a.snapshot == nil {
		return 0
	}
	total := 0
	for x := 0; x < a.size; x++ {
		for y := 0; y < a.size; y++ {
			v := a.evaluateNode(x, y, turn)
			a.scores[a.index(x, y)] = v
			total += v
		}
	}
	return total
}

func (a *AI) evaluateNode(x, y int, turn Mark) int {
	origin := a.snapshot[a.index(x, y)]
	if origin == MarkEmpty {
		return 0
	}
	sign := a.weight(origin, turn)
	opponent := origin.Opponent()

	value := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			count, complete := a.walkRun(x, y, dx, dy, origin)
			if count < 2 {
				continue
			}
			if count == winLength {
				value += ScoreFive * sign
				continue
			}

			bx, by := x-dx, y-dy
			startFree := a.inBounds(bx, by) && a.snapshot[a.index(bx, by)] != opponent
			switch {
			case complete && startFree:
				value += openScores[count-2] * sign
			case complete, startFree:
				value += blockedScores[count-2] * sign
			}
		}
	}
	return value
}

// walkRun counts origin marks over the five cells starting at (x, y). complete
// is false when the walk stopped early on the edge, an opponent mark or a
// mark found after too many gaps.
func (a *AI) walkRun(x, y, dx, dy int, origin Mark) (count int, complete bool) {
	gaps := 0
	for offset := 0; offset < winLength; offset++ {
		nx, ny := x+offset*dx, y+offset*dy
		if !a.inBounds(nx, ny) {
			return count, false
		}
		switch a.snapshot[a.index(nx, ny)] {
		case origin:
			if gaps > maxEvalGaps {
				return count, false
			}
			count++
		case MarkEmpty:
			gaps++
		default:
			return count, false
		}
	}
	return count, true
}

// weight doubles the marks of the side that moves next.
func (a *AI) weight(origin, turn Mark) int {
	own := origin == a.perspective
	switch turn {
	case MarkEmpty:
		if own {
			return 1
		}
		return -1
	case a.perspective:
		if own {
			return 1
		}
		return -2
	default:
		if own {
			return 2
		}
		return -1
	}
}
