package main

import "github.com/TheKrainBow/gomoku-core/engine"

type HistoryEntry struct {
	Move      engine.Point
	Seat      engine.Seat
	ElapsedMs float64
	IsAi      bool
	Depth     int
	Nodes     int64
}

// MoveHistory lives for one game only and is never written to disk.
type MoveHistory struct {
	entries []HistoryEntry
}

func (h *MoveHistory) Clear() {
	h.entries = nil
}

func (h *MoveHistory) Push(entry HistoryEntry) {
	h.entries = append(h.entries, entry)
}

func (h MoveHistory) Size() int {
	return len(h.entries)
}

func (h MoveHistory) Last() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

func (h MoveHistory) All() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}
