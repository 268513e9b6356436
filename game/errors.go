package game

import (
	"errors"
	"fmt"
)

var (
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnFull       = errors.New("column is full")
)

// InvalidMoveError reports a drop that cannot be played. Search code filters
// through rules.LegalMoves first, so seeing one means the caller has a bug.
type InvalidMoveError struct {
	Column int
	Err    error
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid move in column %d: %v", e.Column, e.Err)
}

func (e *InvalidMoveError) Unwrap() error { return e.Err }
