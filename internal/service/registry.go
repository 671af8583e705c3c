package service

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
)

// SessionRegistry owns every live session, keyed by session id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[entity.SessionID]*entity.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[entity.SessionID]*entity.Session),
	}
}

// Create - playerX is the participant that was waiting in the matchmaking slot.
func (that *SessionRegistry) Create(playerX, playerO entity.ParticipantID) (*entity.Session, error) {
	session := entity.NewSession(playerX, playerO)

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[session.ID]; ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrDuplicateSession, session.ID)
	}

	that.sessions[session.ID] = session

	return session, nil
}

func (that *SessionRegistry) Get(id entity.SessionID) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return session, nil
}

func (that *SessionRegistry) Remove(id entity.SessionID) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, id)
}

// FindByParticipant - linear scan, only used on disconnect.
func (that *SessionRegistry) FindByParticipant(participant entity.ParticipantID) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, session := range that.sessions {
		if session.Has(participant) {
			return session, nil
		}
	}

	return nil, fmt.Errorf("%w: participant %s", apperror.ErrSessionNotFound, participant)
}

// ApplyMove - looks the session up and applies the move under the session lock.
// A move that ends the game removes the session before returning.
// On success the session's delivery lock is held until release is called.
func (that *SessionRegistry) ApplyMove(id entity.SessionID, participant entity.ParticipantID, position int) (entity.MoveResult, func(), error) {
	session, err := that.Get(id)
	if err != nil {
		return entity.MoveResult{}, nil, err
	}

	result, release, err := session.ApplyMoveOrdered(participant, position)
	if err != nil {
		return entity.MoveResult{}, nil, fmt.Errorf("session %s: %w", id, err)
	}

	if result.Outcome != entity.OutcomeInProgress {
		that.Remove(id)
	}

	return result, release, nil
}

func (that *SessionRegistry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}
