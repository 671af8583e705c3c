package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchmakingQueue_RequestMatch(t *testing.T) {
	t.Run("First participant waits", func(t *testing.T) {
		// Given: an empty queue
		queue := NewMatchmakingQueue()

		// When: a participant asks for a match
		result := queue.RequestMatch("p1")

		// Then: it waits in the slot
		assert.False(t, result.Paired)
		waiting, ok := queue.Waiting()
		require.True(t, ok)
		assert.Equal(t, entity.ParticipantID("p1"), waiting)
	})

	t.Run("Second participant is paired with the waiting one", func(t *testing.T) {
		// Given: p1 is waiting
		queue := NewMatchmakingQueue()
		queue.RequestMatch("p1")

		// When: p2 asks for a match
		result := queue.RequestMatch("p2")

		// Then: p2 is paired with p1 and the slot is empty
		require.True(t, result.Paired)
		assert.Equal(t, entity.ParticipantID("p1"), result.Opponent)
		_, ok := queue.Waiting()
		assert.False(t, ok)
	})

	t.Run("Re-request by the waiting participant is idempotent", func(t *testing.T) {
		// Given: p1 is waiting
		queue := NewMatchmakingQueue()
		queue.RequestMatch("p1")

		// When: p1 asks again
		result := queue.RequestMatch("p1")

		// Then: p1 is still waiting and not paired with itself
		assert.False(t, result.Paired)
		waiting, ok := queue.Waiting()
		require.True(t, ok)
		assert.Equal(t, entity.ParticipantID("p1"), waiting)
	})

	t.Run("Third arrival after a pairing waits", func(t *testing.T) {
		queue := NewMatchmakingQueue()
		queue.RequestMatch("p1")
		queue.RequestMatch("p2")

		result := queue.RequestMatch("p3")

		assert.False(t, result.Paired)
	})
}

func TestMatchmakingQueue_RemoveIfWaiting(t *testing.T) {
	t.Run("Removes the waiting participant", func(t *testing.T) {
		// Given: p1 is waiting
		queue := NewMatchmakingQueue()
		queue.RequestMatch("p1")

		// When: p1 disconnects
		removed := queue.RemoveIfWaiting("p1")

		// Then: the slot is empty and a new participant waits instead of pairing
		assert.True(t, removed)
		result := queue.RequestMatch("p2")
		assert.False(t, result.Paired)
	})

	t.Run("Ignores participants that are not waiting", func(t *testing.T) {
		queue := NewMatchmakingQueue()
		queue.RequestMatch("p1")

		removed := queue.RemoveIfWaiting("p2")

		assert.False(t, removed)
		waiting, ok := queue.Waiting()
		require.True(t, ok)
		assert.Equal(t, entity.ParticipantID("p1"), waiting)
	})
}

func TestMatchmakingQueue_Concurrent(t *testing.T) {
	// Given: an even number of participants arriving at once
	const participants = 64
	queue := NewMatchmakingQueue()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		paired = make(map[entity.ParticipantID]int)
	)

	for i := 0; i < participants; i++ {
		wg.Add(1)
		go func(id entity.ParticipantID) {
			defer wg.Done()
			result := queue.RequestMatch(id)
			if !result.Paired {
				return
			}
			mu.Lock()
			paired[id]++
			paired[result.Opponent]++
			mu.Unlock()
		}(entity.ParticipantID(fmt.Sprintf("p%d", i)))
	}
	wg.Wait()

	// Then: everybody is paired exactly once
	assert.Len(t, paired, participants)
	for id, count := range paired {
		assert.Equal(t, 1, count, "participant %s", id)
	}
	_, ok := queue.Waiting()
	assert.False(t, ok)
}
