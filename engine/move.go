package engine

import "fmt"

// Point is a cell coordinate, x to the right and y down.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NoMove is returned when the engine has nothing to play.
var NoMove = Point{X: -1, Y: -1}

// IsValid reports whether p lies on a boardSize×boardSize grid.
func (p Point) IsValid(boardSize int) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < boardSize && p.Y < boardSize
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Line holds the two end cells of a five in a row.
type Line struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}
