package engine

import (
	"errors"
	"math"
	"time"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// ErrZeroDepth is returned by NewAI for a depth below 1.
var ErrZeroDepth = errors.New("search depth must be at least 1")

const defaultCandidateCap = 128

// SearchStats describes the last ChooseMove call.
type SearchStats struct {
	Nodes      int64
	Leaves     int64
	Cutoffs    int64
	Candidates int
	Tactical   bool
	Duration   time.Duration
}

// Option configures an AI in NewAI.
type Option func(*AI)

// WithRandSource replaces the clock-seeded source used for the opening move.
func WithRandSource(src RandSource) Option {
	return func(a *AI) {
		if src != nil {
			a.rand = src
		}
	}
}

// WithLogger sets where search summaries are logged at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *AI) {
		a.logger = logger
	}
}

// WithCandidateCap bounds how many candidate cells are collected per ply.
func WithCandidateCap(limit int) Option {
	return func(a *AI) {
		if limit > 0 {
			a.candidateCap = limit
		}
	}
}

// AI chooses moves for one mark on a private copy of the grid. It is not
// safe for concurrent use.
type AI struct {
	depth        int
	perspective  Mark
	size         int
	snapshot     []Mark
	scores       []int
	plyBuffers   [][]Point
	candidateCap int
	rand         RandSource
	logger       zerolog.Logger
	stats        SearchStats
}

// NewAI returns a search engine that looks searchDepth plies ahead. It holds
// no position until Refresh is called.
func NewAI(searchDepth int, opts ...Option) (*AI, error) {
	if searchDepth < 1 {
		return nil, ErrZeroDepth
	}
	a := &AI{
		depth:        searchDepth,
		perspective:  MarkEmpty,
		candidateCap: defaultCandidateCap,
		rand:         clockSource{},
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Refresh copies the live grid into the private snapshot and sets the mark
// to play. Invalid arguments are ignored.
func (a *AI) Refresh(cells []Mark, n int, mark Mark) {
	if cells == nil || n <= 0 || len(cells) < n*n {
		return
	}
	if mark != MarkX && mark != MarkO {
		return
	}
	if a.snapshot == nil || a.size != n {
		a.snapshot = make([]Mark, n*n)
		a.scores = make([]int, n*n)
		a.plyBuffers = nil
	}
	a.size = n
	a.perspective = mark
	copy(a.snapshot, cells[:n*n])
}

// ChooseMove returns the move for the perspective mark, or NoMove when the
// engine has no data or the grid is full.
func (a *AI) ChooseMove() Point {
	if a.snapshot == nil || a.perspective == MarkEmpty {
		return NoMove
	}
	start := time.Now()
	a.stats = SearchStats{}
	defer func() {
		a.stats.Duration = time.Since(start)
	}()

	if win, ok := a.findWinningGap(); ok {
		a.stats.Tactical = true
		a.logger.Debug().
			Str("mark", a.perspective.String()).
			Stringer("move", win).
			Msg("tactical win")
		return win
	}

	candidates := a.collectCandidates(a.plyBuffer(0))
	a.stats.Candidates = len(candidates)
	best := NoMove
	bestValue := math.MinInt
	for i, node := range candidates {
		value := a.alphabeta(node, a.depth-1, math.MinInt, math.MaxInt, a.perspective)
		if i == 0 || value > bestValue {
			bestValue = value
			best = node
		}
	}

	a.logger.Debug().
		Str("mark", a.perspective.String()).
		Int("depth", a.depth).
		Int("candidates", len(candidates)).
		Int64("nodes", a.stats.Nodes).
		Int64("cutoffs", a.stats.Cutoffs).
		Int("value", bestValue).
		Stringer("move", best).
		Dur("elapsed", time.Since(start)).
		Msg("search done")
	return best
}

// alphabeta places turn at node, searches the replies and restores the cell
// before returning. A placed perspective mark hands the next ply to the
// opponent, so children are minimised; otherwise they are maximised.
func (a *AI) alphabeta(node Point, depth int, alpha, beta int, turn Mark) int {
	undo := a.place(node, turn)
	defer undo()
	a.stats.Nodes++

	candidates := a.collectCandidates(a.plyBuffer(a.depth - depth))
	if depth <= 0 || len(candidates) == 0 {
		a.stats.Leaves++
		return a.Evaluate(turn)
	}

	next := turn.Opponent()
	if turn == a.perspective {
		value := math.MaxInt
		for _, child := range candidates {
			value = min(value, a.alphabeta(child, depth-1, alpha, beta, next))
			beta = min(beta, value)
			if beta <= alpha {
				a.stats.Cutoffs++
				break
			}
		}
		return value
	}

	value := math.MinInt
	for _, child := range candidates {
		value = max(value, a.alphabeta(child, depth-1, alpha, beta, next))
		alpha = max(alpha, value)
		if alpha >= beta {
			a.stats.Cutoffs++
			break
		}
	}
	return value
}

// place sets the cell and returns the function that empties it again.
func (a *AI) place(node Point, mark Mark) func() {
	idx := a.index(node.X, node.Y)
	a.snapshot[idx] = mark
	return func() {
		a.snapshot[idx] = MarkEmpty
	}
}

// plyBuffer hands out one reusable candidate slice per search ply.
func (a *AI) plyBuffer(ply int) []Point {
	for len(a.plyBuffers) <= ply {
		a.plyBuffers = append(a.plyBuffers, make([]Point, 0, a.candidateCap))
	}
	return a.plyBuffers[ply][:0]
}

// Destroy releases the snapshot and scratch buffers.
func (a *AI) Destroy() {
	a.snapshot = nil
	a.scores = nil
	a.plyBuffers = nil
	a.size = 0
	a.perspective = MarkEmpty
}

func (a *AI) Depth() int {
	return a.depth
}

func (a *AI) Perspective() Mark {
	return a.perspective
}

func (a *AI) Size() int {
	return a.size
}

// Stats returns the counters of the last search.
func (a *AI) Stats() SearchStats {
	return a.stats
}

// Snapshot returns a copy of the position the engine searches.
func (a *AI) Snapshot() []Mark {
	return append([]Mark(nil), a.snapshot...)
}

// Scores returns the per-cell values written by the last evaluation.
func (a *AI) Scores() []int {
	return append([]int(nil), a.scores...)
}

// Fingerprint hashes the snapshot so callers can check it was left intact.
func (a *AI) Fingerprint() uint64 {
	if len(a.snapshot) == 0 {
		return 0
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&a.snapshot[0])), len(a.snapshot))
	return xxhash.Sum64(raw)
}

func (a *AI) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < a.size && y < a.size
}

func (a *AI) index(x, y int) int {
	return y*a.size + x
}
