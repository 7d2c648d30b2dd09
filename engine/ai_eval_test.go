package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func evalAI(t *testing.T, n int, perspective Mark, stones map[Point]Mark) *AI {
	t.Helper()
	ai := newTestAI(t, 1)
	ai.Refresh(grid(n, stones), n, perspective)
	return ai
}

func TestEvaluateEmptyAndSingleMarks(t *testing.T) {
	ai := evalAI(t, 9, MarkX, nil)
	assert.Zero(t, ai.Evaluate(MarkEmpty))

	ai = evalAI(t, 9, MarkX, map[Point]Mark{{4, 4}: MarkX, {0, 0}: MarkO})
	assert.Zero(t, ai.Evaluate(MarkX))
}

func TestEvaluateOpenTwoByPlyContext(t *testing.T) {
	own := map[Point]Mark{{3, 3}: MarkX, {4, 3}: MarkX}
	ai := evalAI(t, 9, MarkX, own)
	assert.Equal(t, 2*ScoreTwo, ai.Evaluate(MarkEmpty))
	assert.Equal(t, 2*ScoreTwo, ai.Evaluate(MarkX))
	assert.Equal(t, 4*ScoreTwo, ai.Evaluate(MarkO))

	theirs := map[Point]Mark{{3, 3}: MarkO, {4, 3}: MarkO}
	ai = evalAI(t, 9, MarkX, theirs)
	assert.Equal(t, -2*ScoreTwo, ai.Evaluate(MarkEmpty))
	assert.Equal(t, -4*ScoreTwo, ai.Evaluate(MarkX))
	assert.Equal(t, -2*ScoreTwo, ai.Evaluate(MarkO))
}

func TestEvaluateTwoAgainstEdgeIsBlocked(t *testing.T) {
	ai := evalAI(t, 9, MarkX, map[Point]Mark{{0, 3}: MarkX, {1, 3}: MarkX})
	assert.Equal(t, 2*ScoreTwoBlocked, ai.Evaluate(MarkEmpty))
}

func TestEvaluateBoxedTwoScoresNothing(t *testing.T) {
	ai := evalAI(t, 9, MarkX, map[Point]Mark{
		{2, 3}: MarkO, {3, 3}: MarkX, {4, 3}: MarkX, {5, 3}: MarkO,
	})
	assert.Zero(t, ai.Evaluate(MarkEmpty))
}

func TestEvaluateFiveDominates(t *testing.T) {
	stones := map[Point]Mark{}
	for x := 0; x < 5; x++ {
		stones[Point{x, 0}] = MarkX
	}
	stones[Point{4, 4}] = MarkO
	stones[Point{5, 4}] = MarkO

	ai := evalAI(t, 9, MarkX, stones)
	score := ai.Evaluate(MarkEmpty)
	if score < 2*ScoreFive {
		t.Fatalf("expected five in a row to score at least %d, got %d", 2*ScoreFive, score)
	}

	ai = evalAI(t, 9, MarkO, stones)
	score = ai.Evaluate(MarkEmpty)
	if score > -2*ScoreFive {
		t.Fatalf("expected opponent five to score at most %d, got %d", -2*ScoreFive, score)
	}
}

func TestEvaluateCachesCellScores(t *testing.T) {
	ai := evalAI(t, 9, MarkX, map[Point]Mark{
		{3, 3}: MarkX, {4, 3}: MarkX, {4, 4}: MarkO, {5, 5}: MarkO,
	})
	total := ai.Evaluate(MarkO)

	sum := 0
	for _, v := range ai.Scores() {
		sum += v
	}
	assert.Equal(t, total, sum)
	assert.Zero(t, ai.Scores()[0])
}

func rowStones(y int, mark Mark, xs ...int) map[Point]Mark {
	stones := map[Point]Mark{}
	for _, x := range xs {
		stones[Point{x, y}] = mark
	}
	return stones
}

// Each run is seen from both of its ends; the inner stones add shorter runs.
func TestEvaluateThreesAndFours(t *testing.T) {
	cases := []struct {
		name   string
		stones map[Point]Mark
		want   int
	}{
		{
			name:   "open three",
			stones: rowStones(6, MarkX, 5, 6, 7),
			want:   2*ScoreThree + 2*ScoreTwo,
		},
		{
			name:   "three blocked by opponent",
			stones: withStone(rowStones(6, MarkX, 5, 6, 7), Point{4, 6}, MarkO),
			want:   2*ScoreThreeBlocked + ScoreTwo + ScoreTwoBlocked,
		},
		{
			name:   "three against the edge",
			stones: rowStones(6, MarkX, 0, 1, 2),
			want:   2*ScoreThreeBlocked + ScoreTwo + ScoreTwoBlocked,
		},
		{
			name:   "open four",
			stones: rowStones(6, MarkX, 4, 5, 6, 7),
			want:   2*ScoreFour + 2*ScoreThree + 2*ScoreTwo,
		},
		{
			name:   "four blocked by opponent",
			stones: withStone(rowStones(6, MarkX, 4, 5, 6, 7), Point{3, 6}, MarkO),
			want:   2*ScoreFourBlocked + ScoreThree + ScoreThreeBlocked + ScoreTwo + ScoreTwoBlocked,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ai := evalAI(t, 13, MarkX, tc.stones)
			assert.Equal(t, tc.want, ai.Evaluate(MarkEmpty))

			ai = evalAI(t, 13, MarkO, tc.stones)
			assert.Equal(t, -tc.want, ai.Evaluate(MarkEmpty))
		})
	}
}

func withStone(stones map[Point]Mark, p Point, mark Mark) map[Point]Mark {
	stones[p] = mark
	return stones
}
