package apperror

import "errors"

var (
	ErrInvalidPosition  = errors.New("position is outside the board")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrSessionClosed    = errors.New("session is already closed")
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session already exists")
	ErrAlreadyInSession = errors.New("participant is already in a session")
)
