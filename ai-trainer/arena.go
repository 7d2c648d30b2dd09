package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/TheKrainBow/gomoku-core/engine"
)

var errArenaRunning = errors.New("arena already running")

type contender struct {
	ID       string
	Depth    int
	Elo      float64
	Wins     int
	Losses   int
	Draws    int
	searchMs []float64
}

// matchResult describes one finished game. Winner is the contender index,
// or -1 for a draw.
type matchResult struct {
	Game     int
	First    int
	Winner   int
	Plies    int
	SearchMs [2][]float64
}

type arenaStanding struct {
	ID           string  `json:"id"`
	Depth        int     `json:"depth"`
	Elo          float64 `json:"elo"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Draws        int     `json:"draws"`
	MeanSearchMs float64 `json:"mean_search_ms"`
	Searches     int     `json:"searches"`
}

type arenaStatus struct {
	Running     bool            `json:"running"`
	Phase       string          `json:"phase"`
	Message     string          `json:"message"`
	StartedAt   string          `json:"started_at"`
	UpdatedAt   string          `json:"updated_at"`
	GamesPlayed int             `json:"games_played"`
	GamesTotal  int             `json:"games_total"`
	BoardSize   int             `json:"board_size"`
	Standings   []arenaStanding `json:"standings"`
}

type arena struct {
	cfg        arenaConfig
	logger     zerolog.Logger
	contenders [2]*contender

	statusMu sync.RWMutex
	status   arenaStatus
	running  sync.Mutex
}

func newArena(cfg arenaConfig, logger zerolog.Logger) *arena {
	a := &arena{
		cfg:    cfg,
		logger: logger,
		contenders: [2]*contender{
			{ID: fmt.Sprintf("depth-%d", cfg.DepthA), Depth: cfg.DepthA, Elo: cfg.InitialElo},
			{ID: fmt.Sprintf("depth-%d", cfg.DepthB), Depth: cfg.DepthB, Elo: cfg.InitialElo},
		},
	}
	if cfg.DepthA == cfg.DepthB {
		a.contenders[0].ID += "-a"
		a.contenders[1].ID += "-b"
	}
	now := time.Now().UTC().Format(time.RFC3339)
	a.status = arenaStatus{
		Phase:      "idle",
		Message:    "arena ready",
		StartedAt:  now,
		UpdatedAt:  now,
		GamesTotal: cfg.Games,
		BoardSize:  cfg.BoardSize,
		Standings:  a.standings(),
	}
	return a
}

func (a *arena) getStatus() arenaStatus {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

func (a *arena) updateStatus(mutator func(*arenaStatus)) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	mutator(&a.status)
	a.status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// Run plays every configured game, at most cfg.Parallel at a time, then
// rates the results in game order so ratings do not depend on scheduling.
func (a *arena) Run(ctx context.Context) ([]arenaStanding, error) {
	if !a.running.TryLock() {
		return nil, errArenaRunning
	}
	defer a.running.Unlock()

	a.updateStatus(func(s *arenaStatus) {
		s.Running = true
		s.Phase = "playing"
		s.Message = fmt.Sprintf("%s vs %s", a.contenders[0].ID, a.contenders[1].ID)
		s.GamesPlayed = 0
	})

	openings := buildOpeningSuite(a.cfg.BoardSize, a.cfg.Games, a.cfg.OpeningPlies, a.cfg.Seed)
	results := make([]matchResult, a.cfg.Games)
	var played sync.Mutex
	gamesPlayed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.cfg.Parallel, 1))
	for game := range a.cfg.Games {
		g.Go(func() error {
			result, err := a.playGame(gctx, game, openings[game])
			if err != nil {
				return fmt.Errorf("game %d: %w", game, err)
			}
			results[game] = result
			played.Lock()
			gamesPlayed++
			done := gamesPlayed
			played.Unlock()
			a.updateStatus(func(s *arenaStatus) { s.GamesPlayed = done })
			a.logger.Info().
				Int("game", game).
				Str("first", a.contenders[result.First].ID).
				Str("winner", a.winnerLabel(result.Winner)).
				Int("plies", result.Plies).
				Msg("game finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.updateStatus(func(s *arenaStatus) {
			s.Running = false
			s.Phase = "error"
			s.Message = err.Error()
		})
		return nil, err
	}

	for _, result := range results {
		a.record(result)
	}
	standings := a.standings()
	a.updateStatus(func(s *arenaStatus) {
		s.Running = false
		s.Phase = "done"
		s.Message = "arena finished"
		s.Standings = standings
	})
	return standings, nil
}

func (a *arena) winnerLabel(winner int) string {
	if winner < 0 {
		return "draw"
	}
	return a.contenders[winner].ID
}

// playGame runs one self-play game. Even games seat contender 0 first.
func (a *arena) playGame(ctx context.Context, game int, opening []engine.Point) (matchResult, error) {
	result := matchResult{Game: game, First: game % 2, Winner: -1}
	seatOwner := [2]int{result.First, 1 - result.First}

	winner := -1
	board, err := engine.NewBoard(engine.Layout{}, a.cfg.BoardSize, func(seat engine.Seat) {
		winner = seatOwner[seat]
	})
	if err != nil {
		return result, err
	}

	var ais [2]*engine.AI
	for seat, owner := range seatOwner {
		ai, err := engine.NewAI(a.contenders[owner].Depth,
			engine.WithRandSource(engine.NewSeededSource(a.cfg.Seed+uint64(game*2+seat))),
			engine.WithLogger(a.logger),
		)
		if err != nil {
			return result, err
		}
		defer ai.Destroy()
		ais[seat] = ai
	}

	for _, move := range opening {
		if err := board.ApplyTurn(move.X, move.Y, board.ActiveMark()); err != nil {
			return result, fmt.Errorf("opening %v: %w", move, err)
		}
		result.Plies++
	}

	for !board.GameOver() && !board.Full() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		seat := board.ActiveSeat()
		ai := ais[seat]
		start := time.Now()
		ai.Refresh(board.Cells(), board.Size(), board.ActiveMark())
		move := ai.ChooseMove()
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		owner := seatOwner[seat]
		result.SearchMs[owner] = append(result.SearchMs[owner], elapsed)
		if move == engine.NoMove {
			break
		}
		if err := board.ApplyTurn(move.X, move.Y, board.ActiveMark()); err != nil {
			return result, fmt.Errorf("move %v: %w", move, err)
		}
		result.Plies++
	}
	result.Winner = winner
	return result, nil
}

func (a *arena) record(result matchResult) {
	first, second := a.contenders[0], a.contenders[1]
	score := 0.5
	switch result.Winner {
	case 0:
		score = 1
		first.Wins++
		second.Losses++
	case 1:
		score = 0
		second.Wins++
		first.Losses++
	default:
		first.Draws++
		second.Draws++
	}
	updateElo(first, second, score, a.cfg.EloK)
	for i, c := range a.contenders {
		c.searchMs = append(c.searchMs, result.SearchMs[i]...)
	}
}

func (a *arena) standings() []arenaStanding {
	out := lo.Map(a.contenders[:], func(c *contender, _ int) arenaStanding {
		return arenaStanding{
			ID:           c.ID,
			Depth:        c.Depth,
			Elo:          math.Round(c.Elo*10) / 10,
			Wins:         c.Wins,
			Losses:       c.Losses,
			Draws:        c.Draws,
			MeanSearchMs: meanOrZero(c.searchMs),
			Searches:     len(c.searchMs),
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Elo > out[j].Elo })
	return out
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func updateElo(a *contender, b *contender, resultForA float64, k float64) {
	expA := 1.0 / (1.0 + math.Pow(10, (b.Elo-a.Elo)/400.0))
	expB := 1.0 / (1.0 + math.Pow(10, (a.Elo-b.Elo)/400.0))
	a.Elo += k * (resultForA - expA)
	b.Elo += k * ((1.0 - resultForA) - expB)
}

// buildOpeningSuite places plies stones near the centre for each game so
// the two engines do not replay the same game. Games 2k and 2k+1 share an
// opening with colours swapped.
func buildOpeningSuite(boardSize, games, plies int, seed uint64) [][]engine.Point {
	rng := engine.NewSeededSource(seed ^ uint64(boardSize*97+plies*13))
	center := boardSize / 2
	offsets := []engine.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1},
		{X: 1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 2, Y: 0}, {X: 0, Y: 2},
	}
	plies = min(plies, len(offsets))
	suite := make([][]engine.Point, 0, games)
	for i := range games {
		if i%2 == 1 {
			suite = append(suite, suite[i-1])
			continue
		}
		used := map[engine.Point]bool{}
		opening := make([]engine.Point, 0, plies)
		for len(opening) < plies {
			off := offsets[rng.Intn(len(offsets))]
			p := engine.Point{X: center + off.X, Y: center + off.Y}
			if p.X < 0 || p.Y < 0 || p.X >= boardSize || p.Y >= boardSize || used[p] {
				continue
			}
			used[p] = true
			opening = append(opening, p)
		}
		suite = append(suite, opening)
	}
	return suite
}
