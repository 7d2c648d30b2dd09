package main

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/TheKrainBow/gomoku-core/engine"
)

// GameController serialises every access to the game behind one mutex.
type GameController struct {
	mu               sync.Mutex
	game             *Game
	overlayPublisher func(AIDecision)
}

func NewGameController(settings GameSettings, logger zerolog.Logger) (*GameController, error) {
	game, err := NewGame(settings, logger)
	if err != nil {
		return nil, err
	}
	return &GameController{game: game}, nil
}

func (gc *GameController) SetOverlayPublisher(publisher func(AIDecision)) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.overlayPublisher = publisher
}

func (gc *GameController) OnCellClicked(x, y int) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.SubmitHumanMove(engine.Point{X: x, Y: y})
}

func (gc *GameController) ApplyHumanMove(move engine.Point) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.game.status != StatusRunning {
		return ErrGameNotRunning
	}
	if !gc.game.CurrentPlayerIsHuman() {
		return ErrNotHumanTurn
	}
	return gc.game.TryApplyMove(move)
}

func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Tick(gc.overlayPublisher)
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Settings()
}

func (gc *GameController) History() MoveHistory {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History()
}

func (gc *GameController) HistorySize() int {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.history.Size()
}

func (gc *GameController) CurrentTurnStartedAtMs() int64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TurnStartedAt().UnixMilli()
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.history.Last()
}

func (gc *GameController) LastDecision() (AIDecision, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.LastDecision()
}

func (gc *GameController) AiThinking() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.AiThinking()
}

// StartGame reconfigures the players and starts a fresh match.
func (gc *GameController) StartGame(settings GameSettings) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Reset(settings)
}

func (gc *GameController) NextGame() error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.NextGame()
}

func (gc *GameController) Close() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.closePlayers()
}
