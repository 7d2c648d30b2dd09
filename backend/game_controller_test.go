package main

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheKrainBow/gomoku-core/engine"
)

func testSettings(size int, first, second PlayerType) GameSettings {
	return GameSettings{
		BoardSize:     size,
		AiDepth:       1,
		TurnTimeLimit: 0,
		Seats: [2]SeatSettings{
			{Name: "Alice", Type: first},
			{Name: "Bob", Type: second},
		},
	}
}

func newTestController(t *testing.T, settings GameSettings) *GameController {
	t.Helper()
	controller, err := NewGameController(settings, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(controller.Close)
	return controller
}

func tickUntil(t *testing.T, controller *GameController, timeout time.Duration, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		controller.Tick()
		if done() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %s", timeout)
}

func TestHumanGameScoresWinnerAndNextGameKeepsScores(t *testing.T) {
	controller := newTestController(t, testSettings(9, PlayerHuman, PlayerHuman))

	for x := 0; x < 4; x++ {
		require.NoError(t, controller.ApplyHumanMove(engine.Point{X: x, Y: 0}))
		require.NoError(t, controller.ApplyHumanMove(engine.Point{X: x, Y: 4}))
	}
	require.NoError(t, controller.ApplyHumanMove(engine.Point{X: 4, Y: 0}))

	state := controller.State()
	assert.Equal(t, StatusFirstWon, state.Status)
	assert.Equal(t, WinAlignment, state.WinReason)
	require.NotNil(t, state.WinningLine)
	assert.Equal(t, engine.Line{Start: engine.Point{X: 0, Y: 0}, End: engine.Point{X: 4, Y: 0}}, *state.WinningLine)
	assert.Equal(t, 1, state.Seats[0].Score)
	assert.Equal(t, 0, state.Seats[1].Score)
	assert.Equal(t, 9, controller.History().Size())

	err := controller.ApplyHumanMove(engine.Point{X: 8, Y: 8})
	require.ErrorIs(t, err, ErrGameNotRunning)

	require.NoError(t, controller.NextGame())
	state = controller.State()
	assert.Equal(t, StatusRunning, state.Status)
	assert.Equal(t, 2, state.GameNumber)
	assert.Equal(t, 1, state.Seats[0].Score)
	assert.Equal(t, "Alice", state.Seats[0].Name)
	assert.Equal(t, engine.SeatFirst, state.ToMove)
	assert.Nil(t, state.WinningLine)
	assert.Equal(t, 0, controller.History().Size())
	for _, cell := range state.Cells {
		if cell != engine.MarkEmpty {
			t.Fatalf("expected empty board after next game")
		}
	}
}

func TestStartGameResetsScores(t *testing.T) {
	controller := newTestController(t, testSettings(9, PlayerHuman, PlayerHuman))
	for x := 0; x < 4; x++ {
		require.NoError(t, controller.ApplyHumanMove(engine.Point{X: x, Y: 0}))
		require.NoError(t, controller.ApplyHumanMove(engine.Point{X: x, Y: 4}))
	}
	require.NoError(t, controller.ApplyHumanMove(engine.Point{X: 4, Y: 0}))

	settings := testSettings(11, PlayerHuman, PlayerHuman)
	settings.Seats[0].Name = "Carol"
	require.NoError(t, controller.StartGame(settings))

	state := controller.State()
	assert.Equal(t, 11, state.Size)
	assert.Equal(t, "Carol", state.Seats[0].Name)
	assert.Equal(t, 0, state.Seats[0].Score)
	assert.Equal(t, 1, state.GameNumber)
}

func TestStartGameRejectsInvalidSettings(t *testing.T) {
	controller := newTestController(t, testSettings(9, PlayerHuman, PlayerHuman))

	err := controller.StartGame(testSettings(4, PlayerHuman, PlayerHuman))
	require.ErrorIs(t, err, ErrInvalidSettings)

	bad := testSettings(9, PlayerHuman, PlayerAI)
	bad.AiDepth = 0
	require.ErrorIs(t, controller.StartGame(bad), ErrInvalidSettings)

	assert.Equal(t, 9, controller.State().Size)
}

func TestRejectedMoveKeepsTurn(t *testing.T) {
	controller := newTestController(t, testSettings(9, PlayerHuman, PlayerHuman))
	require.NoError(t, controller.ApplyHumanMove(engine.Point{X: 4, Y: 4}))

	err := controller.ApplyHumanMove(engine.Point{X: 4, Y: 4})
	require.ErrorIs(t, err, engine.ErrOccupied)
	err = controller.ApplyHumanMove(engine.Point{X: 9, Y: 0})
	require.ErrorIs(t, err, engine.ErrOutOfRange)

	state := controller.State()
	assert.Equal(t, engine.SeatSecond, state.ToMove)
	assert.Equal(t, 1, controller.History().Size())
}

func TestFullBoardEndsInDraw(t *testing.T) {
	controller := newTestController(t, testSettings(5, PlayerHuman, PlayerHuman))
	rows := []string{
		"XXOOX",
		"OOXXO",
		"XXOOX",
		"OOXXO",
		"XXOOX",
	}
	var xs, os []engine.Point
	for y, row := range rows {
		for x, c := range row {
			if c == 'X' {
				xs = append(xs, engine.Point{X: x, Y: y})
			} else {
				os = append(os, engine.Point{X: x, Y: y})
			}
		}
	}
	require.Len(t, xs, 13)
	require.Len(t, os, 12)

	for i := range xs {
		require.NoError(t, controller.ApplyHumanMove(xs[i]))
		if i < len(os) {
			require.NoError(t, controller.ApplyHumanMove(os[i]))
		}
	}

	state := controller.State()
	assert.Equal(t, StatusDraw, state.Status)
	assert.Nil(t, state.WinningLine)
	assert.Equal(t, 0, state.Seats[0].Score+state.Seats[1].Score)
}

func TestHumanTimeoutAwardsOpponent(t *testing.T) {
	settings := testSettings(9, PlayerHuman, PlayerHuman)
	settings.TurnTimeLimit = time.Second
	controller := newTestController(t, settings)

	now := time.Unix(1000, 0)
	controller.game.clock = func() time.Time { return now }
	require.NoError(t, controller.NextGame())

	assert.False(t, controller.Tick())
	assert.Equal(t, time.Second, controller.State().Seats[0].TimeRemaining)

	now = now.Add(400 * time.Millisecond)
	assert.Equal(t, 600*time.Millisecond, controller.State().Seats[0].TimeRemaining)

	now = now.Add(2 * time.Second)
	require.True(t, controller.Tick())

	state := controller.State()
	assert.Equal(t, StatusSecondWon, state.Status)
	assert.Equal(t, WinTimeout, state.WinReason)
	assert.Nil(t, state.WinningLine)
	assert.Equal(t, 0, state.Seats[0].Score)
	assert.Equal(t, 1, state.Seats[1].Score)
	assert.False(t, controller.Tick())
}

func TestQueuedClickIsAppliedOnTick(t *testing.T) {
	controller := newTestController(t, testSettings(9, PlayerHuman, PlayerHuman))

	require.True(t, controller.OnCellClicked(2, 3))
	assert.Equal(t, 0, controller.History().Size())
	require.True(t, controller.Tick())

	state := controller.State()
	assert.Equal(t, engine.MarkX, state.At(2, 3))
	entry, ok := controller.LatestHistoryEntry()
	require.True(t, ok)
	assert.Equal(t, engine.Point{X: 2, Y: 3}, entry.Move)
	assert.False(t, entry.IsAi)
}

func TestAIAnswersHumanMove(t *testing.T) {
	controller := newTestController(t, testSettings(7, PlayerHuman, PlayerAI))
	var decisions []AIDecision
	controller.SetOverlayPublisher(func(d AIDecision) {
		decisions = append(decisions, d)
	})

	require.NoError(t, controller.ApplyHumanMove(engine.Point{X: 3, Y: 3}))
	err := controller.ApplyHumanMove(engine.Point{X: 0, Y: 0})
	if !errors.Is(err, ErrNotHumanTurn) {
		t.Fatalf("expected ErrNotHumanTurn while the computer is to move, got %v", err)
	}

	tickUntil(t, controller, 5*time.Second, func() bool {
		return controller.History().Size() == 2
	})

	entry, ok := controller.LatestHistoryEntry()
	require.True(t, ok)
	assert.True(t, entry.IsAi)
	assert.Equal(t, engine.SeatSecond, entry.Seat)
	assert.Equal(t, 1, entry.Depth)
	assert.NotEqual(t, engine.Point{X: 3, Y: 3}, entry.Move)
	assert.Equal(t, engine.MarkO, controller.State().At(entry.Move.X, entry.Move.Y))

	require.Len(t, decisions, 1)
	assert.Equal(t, entry.Move, decisions[0].Move)
	assert.Len(t, decisions[0].Scores, 49)

	decision, ok := controller.LastDecision()
	require.True(t, ok)
	assert.Equal(t, entry.Move, decision.Move)
}

func TestComputerVersusComputerFinishes(t *testing.T) {
	controller := newTestController(t, testSettings(6, PlayerAI, PlayerAI))

	tickUntil(t, controller, 20*time.Second, func() bool {
		return controller.State().Status != StatusRunning
	})

	state := controller.State()
	switch state.Status {
	case StatusFirstWon, StatusSecondWon:
		require.NotNil(t, state.WinningLine)
		assert.Equal(t, 1, state.Seats[0].Score+state.Seats[1].Score)
	case StatusDraw:
		for _, cell := range state.Cells {
			assert.NotEqual(t, engine.MarkEmpty, cell)
		}
	default:
		t.Fatalf("unexpected status %v", state.Status)
	}
	for _, entry := range controller.History().All() {
		assert.True(t, entry.IsAi)
	}
}

func TestDirectMoveAfterDeadlineLosesOnTime(t *testing.T) {
	settings := testSettings(9, PlayerHuman, PlayerHuman)
	settings.TurnTimeLimit = time.Second
	controller := newTestController(t, settings)

	now := time.Unix(1000, 0)
	controller.game.clock = func() time.Time { return now }
	require.NoError(t, controller.NextGame())
	require.NoError(t, controller.ApplyHumanMove(engine.Point{X: 0, Y: 0}))

	now = now.Add(3 * time.Second)
	err := controller.ApplyHumanMove(engine.Point{X: 4, Y: 4})
	require.ErrorIs(t, err, ErrGameNotRunning)

	state := controller.State()
	assert.Equal(t, StatusFirstWon, state.Status)
	assert.Equal(t, WinTimeout, state.WinReason)
	assert.Equal(t, engine.MarkEmpty, state.At(4, 4))
	assert.Equal(t, 1, state.Seats[0].Score)
	assert.Equal(t, 0, state.Seats[1].Score)
	assert.Equal(t, 1, controller.History().Size())
}
