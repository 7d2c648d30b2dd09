package main

import (
	"time"

	"github.com/TheKrainBow/gomoku-core/engine"
)

type GameStatus int

const (
	StatusRunning GameStatus = iota
	StatusFirstWon
	StatusSecondWon
	StatusDraw
)

type WinReason string

const (
	WinNone      WinReason = ""
	WinAlignment WinReason = "alignment"
	WinTimeout   WinReason = "timeout"
)

type SeatState struct {
	Name          string
	Score         int
	IsAI          bool
	TimeRemaining time.Duration
}

// GameState is a detached copy of everything a renderer needs for one frame.
type GameState struct {
	Cells       []engine.Mark
	Size        int
	ToMove      engine.Seat
	Status      GameStatus
	WinReason   WinReason
	WinningLine *engine.Line
	LastMove    *engine.Point
	Seats       [2]SeatState
	AiThinking  bool
	GameNumber  int
}

func (s GameState) At(x, y int) engine.Mark {
	return s.Cells[y*s.Size+x]
}

func statusForWinner(winner engine.Seat) GameStatus {
	if winner == engine.SeatFirst {
		return StatusFirstWon
	}
	return StatusSecondWon
}
