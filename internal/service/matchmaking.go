package service

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
)

// MatchResult - Paired is false when the participant was left waiting in the slot.
type MatchResult struct {
	Paired   bool
	Opponent entity.ParticipantID
}

// MatchmakingQueue holds at most one participant waiting for an opponent.
type MatchmakingQueue struct {
	mu       sync.Mutex
	waiting  entity.ParticipantID
	occupied bool
}

func NewMatchmakingQueue() *MatchmakingQueue {
	return &MatchmakingQueue{}
}

// RequestMatch - pairs participant with whoever is waiting, otherwise puts it in the slot.
func (that *MatchmakingQueue) RequestMatch(participant entity.ParticipantID) MatchResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.occupied || that.waiting == participant {
		that.waiting = participant
		that.occupied = true

		return MatchResult{}
	}

	opponent := that.waiting
	that.waiting = ""
	that.occupied = false

	return MatchResult{Paired: true, Opponent: opponent}
}

// RemoveIfWaiting - clears the slot if participant holds it.
func (that *MatchmakingQueue) RemoveIfWaiting(participant entity.ParticipantID) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.occupied || that.waiting != participant {
		return false
	}

	that.waiting = ""
	that.occupied = false

	return true
}

func (that *MatchmakingQueue) Waiting() (entity.ParticipantID, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.waiting, that.occupied
}
