package main

import "github.com/TheKrainBow/gomoku-core/engine"

type HumanPlayer struct {
	pending     bool
	pendingMove engine.Point
}

func NewHumanPlayer() *HumanPlayer {
	return &HumanPlayer{}
}

func (h *HumanPlayer) IsHuman() bool {
	return true
}

func (h *HumanPlayer) Close() {
	h.pending = false
}

// SetPendingMove queues a click; the next tick applies it.
func (h *HumanPlayer) SetPendingMove(move engine.Point) {
	h.pendingMove = move
	h.pending = true
}

func (h *HumanPlayer) HasPendingMove() bool {
	return h.pending
}

func (h *HumanPlayer) TakePendingMove() engine.Point {
	h.pending = false
	return h.pendingMove
}
