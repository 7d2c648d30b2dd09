// Package engine holds the five-in-a-row board model and the computer
// opponent that searches it.
package engine

import "errors"

// Errors returned by NewBoard and ApplyTurn. A rejected turn changes nothing.
var (
	ErrBoardTooSmall = errors.New("board side must be at least 3")
	ErrGameOver      = errors.New("game already ended")
	ErrOutOfRange    = errors.New("out of bounds")
	ErrOccupied      = errors.New("occupied")
	ErrInvalidMark   = errors.New("invalid mark")
)

// MinBoardSize is the smallest side NewBoard accepts.
const MinBoardSize = 3

// Mark is the content of one cell.
type Mark int8

const (
	MarkEmpty Mark = iota
	MarkX
	MarkO
)

// Opponent returns the other player's mark. MarkEmpty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

func (m Mark) String() string {
	switch m {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return "."
	}
}

// Seat identifies which of the two players moved.
type Seat int

const (
	SeatFirst Seat = iota
	SeatSecond
)

// Mark is MarkX for the first seat and MarkO for the second.
func (s Seat) Mark() Mark {
	if s == SeatFirst {
		return MarkX
	}
	return MarkO
}

func (s Seat) Other() Seat {
	if s == SeatFirst {
		return SeatSecond
	}
	return SeatFirst
}

// GameEndFunc is called once per game with the seat that completed five in a row.
type GameEndFunc func(winner Seat)

// Layout is the on-screen placement of the board. The engine only stores it.
type Layout struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	SizePx int `json:"size_px"`
}

// Board is an N×N grid that alternates turns between two seats and ends the
// game on the first five in a row.
type Board struct {
	layout        Layout
	size          int
	cells         []Mark
	activeIsFirst bool
	gameOver      bool
	line          Line
	hasLine       bool
	lastMove      Point
	onGameEnd     GameEndFunc
}

// NewBoard returns an empty n×n board with the first seat to move.
// onGameEnd may be nil.
func NewBoard(layout Layout, n int, onGameEnd GameEndFunc) (*Board, error) {
	if n < MinBoardSize {
		return nil, ErrBoardTooSmall
	}
	b := &Board{
		layout:    layout,
		size:      n,
		cells:     make([]Mark, n*n),
		onGameEnd: onGameEnd,
	}
	b.Clear()
	return b, nil
}

// ApplyTurn places mark at (x, y). A rejected turn leaves the board untouched.
func (b *Board) ApplyTurn(x, y int, mark Mark) error {
	if b.gameOver {
		return ErrGameOver
	}
	if !b.InBounds(x, y) {
		return ErrOutOfRange
	}
	if mark != MarkX && mark != MarkO {
		return ErrInvalidMark
	}
	idx := b.index(x, y)
	if b.cells[idx] != MarkEmpty {
		return ErrOccupied
	}
	b.cells[idx] = mark
	b.lastMove = Point{X: x, Y: y}

	if line, ok := b.FindFiveInLine(); ok {
		b.line = line
		b.hasLine = true
		b.gameOver = true
		if b.onGameEnd != nil {
			b.onGameEnd(b.ActiveSeat())
		}
	}
	b.activeIsFirst = !b.activeIsFirst
	return nil
}

// Abort ends the current game without a winner line.
func (b *Board) Abort() {
	b.gameOver = true
}

// Clear empties the grid and starts a new game with the first seat to move.
func (b *Board) Clear() {
	for i := range b.cells {
		b.cells[i] = MarkEmpty
	}
	b.gameOver = false
	b.hasLine = false
	b.line = Line{Start: NoMove, End: NoMove}
	b.activeIsFirst = true
	b.lastMove = NoMove
}

func (b *Board) At(x, y int) Mark {
	return b.cells[b.index(x, y)]
}

// Cells returns a copy of the grid, indexed y*Size()+x.
func (b *Board) Cells() []Mark {
	return append([]Mark(nil), b.cells...)
}

func (b *Board) InBounds(x, y int) bool {
	return Point{X: x, Y: y}.IsValid(b.size)
}

// Full reports whether no empty cell is left.
func (b *Board) Full() bool {
	for _, cell := range b.cells {
		if cell == MarkEmpty {
			return false
		}
	}
	return true
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) Layout() Layout {
	return b.layout
}

func (b *Board) GameOver() bool {
	return b.gameOver
}

func (b *Board) ActiveIsFirst() bool {
	return b.activeIsFirst
}

// ActiveSeat is the seat whose turn it is.
func (b *Board) ActiveSeat() Seat {
	if b.activeIsFirst {
		return SeatFirst
	}
	return SeatSecond
}

func (b *Board) ActiveMark() Mark {
	return b.ActiveSeat().Mark()
}

// WinningLine reports the endpoints of the completed five, if the game ended on one.
func (b *Board) WinningLine() (Line, bool) {
	return b.line, b.hasLine
}

// LastMove is the most recently accepted turn since the last Clear.
func (b *Board) LastMove() (Point, bool) {
	return b.lastMove, b.lastMove != NoMove
}

func (b *Board) index(x, y int) int {
	return y*b.size + x
}
