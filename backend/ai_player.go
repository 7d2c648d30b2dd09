package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/TheKrainBow/gomoku-core/engine"
)

// AIDecision is the result of one background search.
type AIDecision struct {
	Move    engine.Point
	Mark    engine.Mark
	Size    int
	Depth   int
	Stats   engine.SearchStats
	Scores  []int
	Elapsed time.Duration
}

// AIPlayer owns one search engine and runs it on a worker goroutine so the
// game loop never blocks on a search.
type AIPlayer struct {
	engine     *engine.AI
	logger     zerolog.Logger
	moveMutex  sync.Mutex
	workerDone chan struct{}
	thinking   atomic.Bool
	moveReady  atomic.Bool
	stopSignal atomic.Bool
	ready      AIDecision
}

func NewAIPlayer(depth int, logger zerolog.Logger, opts ...engine.Option) (*AIPlayer, error) {
	opts = append([]engine.Option{engine.WithLogger(logger)}, opts...)
	ai, err := engine.NewAI(depth, opts...)
	if err != nil {
		return nil, fmt.Errorf("create ai player: %w", err)
	}
	return &AIPlayer{engine: ai, logger: logger}, nil
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

// StartThinking copies cells and searches for mark in the background. It is a
// no-op while a search is already running.
func (a *AIPlayer) StartThinking(cells []engine.Mark, size int, mark engine.Mark) {
	if a.thinking.Load() || a.stopSignal.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.thinking.Store(true)
	a.moveReady.Store(false)

	cellsCopy := append([]engine.Mark(nil), cells...)
	done := make(chan struct{})
	a.workerDone = done
	go func() {
		defer close(done)
		start := time.Now()
		a.engine.Refresh(cellsCopy, size, mark)
		move := a.engine.ChooseMove()
		stats := a.engine.Stats()
		// Re-score the untouched snapshot so the overlay shows the position
		// the search started from.
		a.engine.Evaluate(engine.MarkEmpty)
		decision := AIDecision{
			Move:    move,
			Mark:    mark,
			Size:    size,
			Depth:   a.engine.Depth(),
			Stats:   stats,
			Scores:  a.engine.Scores(),
			Elapsed: time.Since(start),
		}
		if a.stopSignal.Load() {
			a.engine.Destroy()
			a.thinking.Store(false)
			return
		}
		a.logger.Debug().
			Str("mark", mark.String()).
			Stringer("move", move).
			Int64("nodes", stats.Nodes).
			Dur("elapsed", decision.Elapsed).
			Msg("ai decided")

		a.moveMutex.Lock()
		a.ready = decision
		a.moveMutex.Unlock()
		a.moveReady.Store(true)
		a.thinking.Store(false)
		if a.stopSignal.Load() {
			a.moveReady.Store(false)
			a.engine.Destroy()
		}
	}()
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

func (a *AIPlayer) TakeMove() AIDecision {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	a.moveReady.Store(false)
	return a.ready
}

// Close discards any running search. The engine is released by the worker
// when one is in flight, otherwise right away.
func (a *AIPlayer) Close() {
	if a.stopSignal.Swap(true) {
		return
	}
	a.moveReady.Store(false)
	if a.thinking.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.engine.Destroy()
}
