package entity

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/apperror"
)

type (
	ParticipantID string
	SessionID     string
)

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusWon        SessionStatus = "won"
	StatusDraw       SessionStatus = "draw"
	StatusAbandoned  SessionStatus = "abandoned"
)

// Outcome - what a single accepted move did to the session.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeWon        Outcome = "won"
	OutcomeDraw       Outcome = "draw"
)

// NewSessionID - the waiting participant (X) always comes first.
func NewSessionID(playerX, playerO ParticipantID) SessionID {
	return SessionID(fmt.Sprintf("%s:%s", playerX, playerO))
}

// Session is one match between two participants. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex
	// delivery orders the fan-out of state changes. It is taken while mu is still held.
	delivery sync.Mutex

	ID      SessionID
	Board   Board
	Turn    ParticipantID
	PlayerX ParticipantID
	PlayerO ParticipantID
	Status  SessionStatus
	Winner  ParticipantID
}

// MoveResult - the board after an accepted move and who has to hear about it.
type MoveResult struct {
	SessionID SessionID
	Board     Board
	Outcome   Outcome
	Mover     ParticipantID
	Opponent  ParticipantID
	Winner    ParticipantID
}

func NewSession(playerX, playerO ParticipantID) *Session {
	return &Session{
		ID:      NewSessionID(playerX, playerO),
		Turn:    playerX,
		PlayerX: playerX,
		PlayerO: playerO,
		Status:  StatusInProgress,
	}
}

// ApplyMove - validates and places the participant's symbol. A rejected move leaves the session untouched.
func (that *Session) ApplyMove(participant ParticipantID, position int) (MoveResult, error) {
	result, release, err := that.ApplyMoveOrdered(participant, position)
	if err != nil {
		return MoveResult{}, err
	}
	release()

	return result, nil
}

// ApplyMoveOrdered - ApplyMove that keeps the delivery lock of an accepted move.
// The caller fans the result out and then calls release.
func (that *Session) ApplyMoveOrdered(participant ParticipantID, position int) (MoveResult, func(), error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	result, err := that.applyMove(participant, position)
	if err != nil {
		return MoveResult{}, nil, err
	}

	that.delivery.Lock()

	return result, that.delivery.Unlock, nil
}

// HoldDelivery - blocks until earlier fan-outs are done; the caller calls release after its own.
func (that *Session) HoldDelivery() func() {
	that.delivery.Lock()
	return that.delivery.Unlock
}

func (that *Session) applyMove(participant ParticipantID, position int) (MoveResult, error) {
	if that.Status != StatusInProgress {
		return MoveResult{}, apperror.ErrSessionClosed
	}

	if !ValidPosition(position) {
		return MoveResult{}, fmt.Errorf("%w: %d", apperror.ErrInvalidPosition, position)
	}

	if that.Board[position] != CellEmpty {
		return MoveResult{}, fmt.Errorf("%w: %d", apperror.ErrCellOccupied, position)
	}

	if participant != that.Turn {
		return MoveResult{}, apperror.ErrNotYourTurn
	}

	symbol, _ := that.symbolOf(participant)
	opponent := that.opponent(participant)

	that.Board[position] = symbol.Cell()
	that.Turn = opponent

	result := MoveResult{
		SessionID: that.ID,
		Mover:     participant,
		Opponent:  opponent,
		Outcome:   OutcomeInProgress,
	}

	// win is checked first: a full board with a completed line is a win
	switch {
	case EvaluateWin(that.Board):
		that.Status = StatusWon
		that.Winner = participant
		result.Outcome = OutcomeWon
		result.Winner = participant
	case EvaluateDraw(that.Board):
		that.Status = StatusDraw
		result.Outcome = OutcomeDraw
	}

	result.Board = that.Board

	return result, nil
}

// Abandon - ends the session because leaving disconnected. Returns the participant to notify;
// ok is false when the session was already over.
func (that *Session) Abandon(leaving ParticipantID) (ParticipantID, bool) {
	remaining, release, ok := that.AbandonOrdered(leaving)
	if ok {
		release()
	}

	return remaining, ok
}

// AbandonOrdered - Abandon that keeps the delivery lock when the session was abandoned.
func (that *Session) AbandonOrdered(leaving ParticipantID) (ParticipantID, func(), bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.Status != StatusInProgress {
		return "", nil, false
	}

	that.Status = StatusAbandoned
	that.delivery.Lock()

	return that.opponent(leaving), that.delivery.Unlock, true
}

func (that *Session) Has(participant ParticipantID) bool {
	return participant == that.PlayerX || participant == that.PlayerO
}

func (that *Session) Opponent(participant ParticipantID) ParticipantID {
	return that.opponent(participant)
}

func (that *Session) SymbolOf(participant ParticipantID) (Symbol, bool) {
	return that.symbolOf(participant)
}

// Snapshot - a copy of the mutable state taken under the session lock.
func (that *Session) Snapshot() (Board, ParticipantID, SessionStatus) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.Board, that.Turn, that.Status
}

func (that *Session) opponent(participant ParticipantID) ParticipantID {
	if participant == that.PlayerX {
		return that.PlayerO
	}
	return that.PlayerX
}

func (that *Session) symbolOf(participant ParticipantID) (Symbol, bool) {
	switch participant {
	case that.PlayerX:
		return SymbolX, true
	case that.PlayerO:
		return SymbolO, true
	default:
		return "", false
	}
}
