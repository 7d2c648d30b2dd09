package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/TheKrainBow/gomoku-core/engine"
)

var (
	ErrGameNotRunning  = errors.New("game not running")
	ErrNotHumanTurn    = errors.New("not human turn")
	ErrInvalidSettings = errors.New("invalid settings")
)

type Game struct {
	settings     GameSettings
	board        *engine.Board
	players      [2]IPlayer
	scores       [2]int
	history      MoveHistory
	status       GameStatus
	winReason    WinReason
	turnStart    time.Time
	gameNumber   int
	lastDecision *AIDecision
	logger       zerolog.Logger
	clock        func() time.Time
}

func NewGame(settings GameSettings, logger zerolog.Logger) (*Game, error) {
	g := &Game{
		logger: logger.With().Str("component", "game").Logger(),
		clock:  time.Now,
	}
	if err := g.Reset(settings); err != nil {
		return nil, err
	}
	return g, nil
}

func validateSettings(settings GameSettings) error {
	if settings.BoardSize < minPlayableBoardSize {
		return fmt.Errorf("%w: board size %d is below %d", ErrInvalidSettings, settings.BoardSize, minPlayableBoardSize)
	}
	if settings.AiDepth < 1 {
		return fmt.Errorf("%w: ai depth %d is below 1", ErrInvalidSettings, settings.AiDepth)
	}
	if settings.TurnTimeLimit < 0 {
		return fmt.Errorf("%w: negative turn time limit", ErrInvalidSettings)
	}
	return nil
}

// Reset installs new settings, new players and zeroed scores.
func (g *Game) Reset(settings GameSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	board, err := engine.NewBoard(engine.Layout{}, settings.BoardSize, g.onGameEnd)
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	players, err := g.createPlayers(settings)
	if err != nil {
		return err
	}
	g.closePlayers()
	g.settings = settings
	g.board = board
	g.players = players
	g.scores = [2]int{}
	g.gameNumber = 0
	g.startRound()
	g.logMatchup()
	return nil
}

// NextGame clears the board and keeps names and scores.
func (g *Game) NextGame() error {
	players, err := g.createPlayers(g.settings)
	if err != nil {
		return err
	}
	g.closePlayers()
	g.players = players
	g.board.Clear()
	g.startRound()
	return nil
}

func (g *Game) startRound() {
	g.history.Clear()
	g.status = StatusRunning
	g.winReason = WinNone
	g.lastDecision = nil
	g.gameNumber++
	g.turnStart = g.clock()
}

func (g *Game) createPlayers(settings GameSettings) ([2]IPlayer, error) {
	var players [2]IPlayer
	for i, seat := range settings.Seats {
		if seat.Type == PlayerHuman {
			players[i] = NewHumanPlayer()
			continue
		}
		logger := g.logger.With().Str("player", seat.Name).Logger()
		ai, err := NewAIPlayer(settings.AiDepth, logger)
		if err != nil {
			for _, p := range players[:i] {
				p.Close()
			}
			return [2]IPlayer{}, err
		}
		players[i] = ai
	}
	return players, nil
}

func (g *Game) closePlayers() {
	for _, p := range g.players {
		if p != nil {
			p.Close()
		}
	}
}

// onGameEnd runs inside Board.ApplyTurn when a five is completed.
func (g *Game) onGameEnd(winner engine.Seat) {
	g.scores[winner]++
	g.status = statusForWinner(winner)
	g.winReason = WinAlignment
	line, _ := g.board.WinningLine()
	g.logger.Info().
		Str("winner", g.settings.Seats[winner].Name).
		Stringer("from", line.Start).
		Stringer("to", line.End).
		Ints("score", g.scores[:]).
		Msg("five in a row")
}

func (g *Game) currentPlayer() IPlayer {
	return g.players[g.board.ActiveSeat()]
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

// TryApplyMove places the active seat's mark at move. A human whose turn
// has run out loses on time instead.
func (g *Game) TryApplyMove(move engine.Point) error {
	return g.applyMove(move, nil)
}

func (g *Game) applyMove(move engine.Point, decision *AIDecision) error {
	if g.status != StatusRunning {
		return ErrGameNotRunning
	}
	if decision == nil && g.turnExpired() {
		g.timeout()
		return fmt.Errorf("%w: turn time expired", ErrGameNotRunning)
	}
	seat := g.board.ActiveSeat()
	elapsed := g.clock().Sub(g.turnStart)
	if err := g.board.ApplyTurn(move.X, move.Y, seat.Mark()); err != nil {
		return fmt.Errorf("apply move %v: %w", move, err)
	}

	entry := HistoryEntry{
		Move:      move,
		Seat:      seat,
		ElapsedMs: float64(elapsed.Microseconds()) / 1000.0,
		IsAi:      decision != nil,
	}
	if decision != nil {
		entry.Depth = decision.Depth
		entry.Nodes = decision.Stats.Nodes
	}
	g.history.Push(entry)
	g.logger.Info().
		Str("player", g.settings.Seats[seat].Name).
		Stringer("move", move).
		Bool("ai", entry.IsAi).
		Float64("elapsed_ms", entry.ElapsedMs).
		Msg("move played")

	if g.status == StatusRunning && g.board.Full() {
		g.endInDraw("board full")
	}
	g.turnStart = g.clock()
	return nil
}

func (g *Game) endInDraw(reason string) {
	g.board.Abort()
	g.status = StatusDraw
	g.winReason = WinNone
	g.logger.Info().Str("reason", reason).Msg("draw")
}

// Tick advances the game by at most one move. It reports whether the
// state changed.
func (g *Game) Tick(overlaySink func(AIDecision)) bool {
	if g.status != StatusRunning {
		return false
	}
	switch player := g.currentPlayer().(type) {
	case *HumanPlayer:
		if g.turnExpired() {
			g.timeout()
			return true
		}
		if player.HasPendingMove() {
			move := player.TakePendingMove()
			if err := g.TryApplyMove(move); err != nil {
				g.logger.Debug().Err(err).Msg("queued move rejected")
				return false
			}
			return true
		}
		return false
	case *AIPlayer:
		if player.HasMoveReady() {
			decision := player.TakeMove()
			g.lastDecision = &decision
			if overlaySink != nil {
				overlaySink(decision)
			}
			if decision.Move == engine.NoMove {
				g.logger.Warn().Msg("ai found no move")
				g.endInDraw("no legal computer move")
				return true
			}
			if err := g.applyMove(decision.Move, &decision); err != nil {
				g.logger.Error().Err(err).Msg("ai move rejected")
				g.endInDraw("ai move rejected")
			}
			return true
		}
		if !player.IsThinking() {
			player.StartThinking(g.board.Cells(), g.board.Size(), g.board.ActiveMark())
		}
		return false
	}
	return false
}

func (g *Game) turnExpired() bool {
	limit := g.settings.TurnTimeLimit
	return limit > 0 && g.clock().Sub(g.turnStart) > limit
}

// timeout ends the game in favour of the seat that was waiting.
func (g *Game) timeout() {
	loser := g.board.ActiveSeat()
	winner := loser.Other()
	g.board.Abort()
	g.scores[winner]++
	g.status = statusForWinner(winner)
	g.winReason = WinTimeout
	g.logger.Info().
		Str("loser", g.settings.Seats[loser].Name).
		Dur("limit", g.settings.TurnTimeLimit).
		Ints("score", g.scores[:]).
		Msg("turn timed out")
}

func (g *Game) SubmitHumanMove(move engine.Point) bool {
	if g.status != StatusRunning {
		return false
	}
	human, ok := g.currentPlayer().(*HumanPlayer)
	if !ok {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) AiThinking() bool {
	ai, ok := g.currentPlayer().(*AIPlayer)
	return ok && ai.IsThinking()
}

func (g *Game) LastDecision() (AIDecision, bool) {
	if g.lastDecision == nil {
		return AIDecision{}, false
	}
	return *g.lastDecision, true
}

func (g *Game) History() MoveHistory {
	return MoveHistory{entries: g.history.All()}
}

func (g *Game) Settings() GameSettings {
	return g.settings
}

func (g *Game) TurnStartedAt() time.Time {
	return g.turnStart
}

func (g *Game) State() GameState {
	state := GameState{
		Cells:      g.board.Cells(),
		Size:       g.board.Size(),
		ToMove:     g.board.ActiveSeat(),
		Status:     g.status,
		WinReason:  g.winReason,
		AiThinking: g.AiThinking(),
		GameNumber: g.gameNumber,
	}
	if line, ok := g.board.WinningLine(); ok {
		state.WinningLine = &line
	}
	if last, ok := g.board.LastMove(); ok {
		state.LastMove = &last
	}
	for i, seat := range g.settings.Seats {
		state.Seats[i] = SeatState{
			Name:          seat.Name,
			Score:         g.scores[i],
			IsAI:          seat.Type == PlayerAI,
			TimeRemaining: g.timeRemaining(engine.Seat(i)),
		}
	}
	return state
}

func (g *Game) timeRemaining(seat engine.Seat) time.Duration {
	limit := g.settings.TurnTimeLimit
	if limit <= 0 || g.settings.Seats[seat].Type == PlayerAI {
		return 0
	}
	if g.status != StatusRunning || seat != g.board.ActiveSeat() {
		return limit
	}
	return max(limit-g.clock().Sub(g.turnStart), 0)
}

func (g *Game) logMatchup() {
	label := func(t PlayerType) string {
		if t == PlayerAI {
			return "AI"
		}
		return "Human"
	}
	g.logger.Info().
		Str("first", fmt.Sprintf("%s (%s)", g.settings.Seats[0].Name, label(g.settings.Seats[0].Type))).
		Str("second", fmt.Sprintf("%s (%s)", g.settings.Seats[1].Name, label(g.settings.Seats[1].Type))).
		Int("board_size", g.settings.BoardSize).
		Int("ai_depth", g.settings.AiDepth).
		Msg("new match")
}
