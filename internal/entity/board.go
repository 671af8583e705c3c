package entity

import (
	"encoding/json"

	"github.com/samber/lo"
)

const BoardSize = 9

type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"
)

type Cell string

const (
	CellEmpty Cell = ""
	CellX     Cell = Cell(SymbolX)
	CellO     Cell = Cell(SymbolO)
)

// WinLines - rows, columns and diagonals of the board.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board - cells 0-8, row by row.
type Board [BoardSize]Cell

func (that Symbol) Cell() Cell {
	return Cell(that)
}

func (that Symbol) Other() Symbol {
	if that == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// Winner - returns the symbol that completed a line, if any.
func (that Board) Winner() (Symbol, bool) {
	for _, line := range WinLines {
		a, b, c := that[line[0]], that[line[1]], that[line[2]]
		if a != CellEmpty && a == b && b == c {
			return Symbol(a), true
		}
	}

	return "", false
}

func (that Board) IsFull() bool {
	return lo.EveryBy(that[:], func(cell Cell) bool {
		return cell != CellEmpty
	})
}

// MarshalJSON - empty cells are sent as null, the way the browser client expects them.
func (that Board) MarshalJSON() ([]byte, error) {
	cells := lo.Map(that[:], func(cell Cell, _ int) *string {
		if cell == CellEmpty {
			return nil
		}
		value := string(cell)
		return &value
	})

	return json.Marshal(cells)
}

func EvaluateWin(board Board) bool {
	_, won := board.Winner()
	return won
}

// EvaluateDraw - a full board counts as a draw only when nobody has won on it.
func EvaluateDraw(board Board) bool {
	return board.IsFull() && !EvaluateWin(board)
}

func ValidPosition(position int) bool {
	return position >= 0 && position < BoardSize
}
