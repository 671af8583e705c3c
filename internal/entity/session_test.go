package entity

import (
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	playerOne ParticipantID = "p1"
	playerTwo ParticipantID = "p2"
)

func TestNewSession(t *testing.T) {
	// Given: two paired participants
	// When: a session is created
	session := NewSession(playerOne, playerTwo)

	// Then: the first participant is X and moves first
	assert.Equal(t, SessionID("p1:p2"), session.ID)
	assert.Equal(t, playerOne, session.PlayerX)
	assert.Equal(t, playerTwo, session.PlayerO)
	assert.Equal(t, playerOne, session.Turn)
	assert.Equal(t, StatusInProgress, session.Status)
	assert.Equal(t, Board{}, session.Board)
}

func TestSession_ApplyMove(t *testing.T) {
	t.Run("Successful move flips the turn", func(t *testing.T) {
		// Given: a new session
		session := NewSession(playerOne, playerTwo)

		// When: X plays the center
		result, err := session.ApplyMove(playerOne, 4)
		require.NoError(t, err)

		// Then: the board has X in the center and it is O's turn
		assert.Equal(t, CellX, result.Board[4])
		assert.Equal(t, OutcomeInProgress, result.Outcome)
		assert.Equal(t, playerOne, result.Mover)
		assert.Equal(t, playerTwo, result.Opponent)
		assert.Equal(t, playerTwo, session.Turn)
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: a session where X holds cell 2
		session := NewSession(playerOne, playerTwo)
		session.Board = Board{x, x, x, o, o, e, e, e, e}
		session.Turn = playerTwo
		before := session.Board

		// When: O plays cell 2
		_, err := session.ApplyMove(playerTwo, 2)

		// Then: the move is rejected and the board is unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, before, session.Board)
		assert.Equal(t, playerTwo, session.Turn)
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		// Given: a new session where it's X's turn
		session := NewSession(playerOne, playerTwo)

		// When: O tries to move
		_, err := session.ApplyMove(playerTwo, 0)

		// Then: the move is rejected and the board is still empty
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, Board{}, session.Board)
		assert.Equal(t, playerOne, session.Turn)
	})

	t.Run("Error on invalid position", func(t *testing.T) {
		session := NewSession(playerOne, playerTwo)

		_, err := session.ApplyMove(playerOne, 9)
		require.ErrorIs(t, err, apperror.ErrInvalidPosition)

		_, err = session.ApplyMove(playerOne, -1)
		require.ErrorIs(t, err, apperror.ErrInvalidPosition)
	})

	t.Run("Error on closed session", func(t *testing.T) {
		// Given: an abandoned session
		session := NewSession(playerOne, playerTwo)
		_, ok := session.Abandon(playerTwo)
		require.True(t, ok)

		// When: X tries to move
		_, err := session.ApplyMove(playerOne, 0)

		// Then: the session is reported closed
		require.ErrorIs(t, err, apperror.ErrSessionClosed)
	})

	t.Run("Closed check comes before position check", func(t *testing.T) {
		session := NewSession(playerOne, playerTwo)
		session.Status = StatusWon

		_, err := session.ApplyMove(playerOne, 42)
		require.ErrorIs(t, err, apperror.ErrSessionClosed)
	})

	t.Run("Completing a line wins", func(t *testing.T) {
		// Given: X holds 0 and 1, O holds 3 and 4
		session := NewSession(playerOne, playerTwo)
		for _, move := range []struct {
			player   ParticipantID
			position int
		}{{playerOne, 0}, {playerTwo, 3}, {playerOne, 1}, {playerTwo, 4}} {
			_, err := session.ApplyMove(move.player, move.position)
			require.NoError(t, err)
		}

		// When: X plays 2
		result, err := session.ApplyMove(playerOne, 2)
		require.NoError(t, err)

		// Then: X wins
		assert.Equal(t, OutcomeWon, result.Outcome)
		assert.Equal(t, playerOne, result.Winner)
		assert.Equal(t, StatusWon, session.Status)
	})

	t.Run("Last move that completes a line is a win, not a draw", func(t *testing.T) {
		// Given: eight cells filled, X to play 8 which fills the board and the main diagonal
		session := NewSession(playerOne, playerTwo)
		session.Board = Board{
			x, o, x,
			o, x, o,
			o, x, e,
		}

		// When: X plays 8
		result, err := session.ApplyMove(playerOne, 8)
		require.NoError(t, err)

		// Then: the result is a win
		assert.Equal(t, OutcomeWon, result.Outcome)
		assert.Equal(t, StatusWon, session.Status)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		session := NewSession(playerOne, playerTwo)
		session.Board = Board{
			x, o, x,
			x, o, o,
			o, x, e,
		}

		result, err := session.ApplyMove(playerOne, 8)
		require.NoError(t, err)

		assert.Equal(t, OutcomeDraw, result.Outcome)
		assert.Equal(t, StatusDraw, session.Status)
		assert.Empty(t, result.Winner)
	})
}

func TestSession_Abandon(t *testing.T) {
	// Given: a session in progress
	session := NewSession(playerOne, playerTwo)

	// When: O leaves
	remaining, ok := session.Abandon(playerTwo)

	// Then: X is the one to notify
	require.True(t, ok)
	assert.Equal(t, playerOne, remaining)
	assert.Equal(t, StatusAbandoned, session.Status)

	// And: a second abandon is a no-op
	_, ok = session.Abandon(playerOne)
	assert.False(t, ok)
	assert.Equal(t, StatusAbandoned, session.Status)
}

func TestSession_ConcurrentMovesOnSameCell(t *testing.T) {
	// Given: a session and many concurrent attempts by X on the same cell
	session := NewSession(playerOne, playerTwo)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := session.ApplyMove(playerOne, 4); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Then: exactly one of them is accepted
	assert.Equal(t, 1, accepted)
}

func TestSession_DeliveryFollowsMoveOrder(t *testing.T) {
	// Given: X's move was accepted and its fan-out has not finished
	session := NewSession(playerOne, playerTwo)
	_, release, err := session.ApplyMoveOrdered(playerOne, 0)
	require.NoError(t, err)

	// When: O plays next
	done := make(chan MoveResult, 1)
	go func() {
		result, next, err := session.ApplyMoveOrdered(playerTwo, 4)
		if err == nil {
			next()
		}
		done <- result
	}()

	// Then: O's result is held back until X's fan-out is released
	select {
	case <-done:
		t.Fatal("second move handed out before the first fan-out finished")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	result := <-done
	assert.Equal(t, CellX, result.Board[0])
	assert.Equal(t, CellO, result.Board[4])
}

func TestSession_AbandonWaitsForDelivery(t *testing.T) {
	// Given: the game start fan-out is still running
	session := NewSession(playerOne, playerTwo)
	release := session.HoldDelivery()

	// When: X leaves
	done := make(chan ParticipantID, 1)
	go func() {
		remaining, next, ok := session.AbandonOrdered(playerOne)
		if ok {
			next()
		}
		done <- remaining
	}()

	// Then: the notification waits for the game start to go out
	select {
	case <-done:
		t.Fatal("abandon handed out before the game start fan-out finished")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	assert.Equal(t, playerTwo, <-done)
}

func TestSession_TurnAlternates_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		session := NewSession(playerOne, playerTwo)
		positions := rapid.Permutation([]int{0, 1, 2, 3, 4, 5, 6, 7, 8}).Draw(t, "positions")

		expected := playerOne
		for _, position := range positions {
			if session.Turn != expected {
				t.Fatalf("turn = %s, want %s", session.Turn, expected)
			}

			result, err := session.ApplyMove(expected, position)
			if err != nil {
				t.Fatalf("valid move rejected: %v", err)
			}

			if result.Outcome != OutcomeInProgress {
				return
			}

			expected = session.Opponent(expected)
		}

		t.Fatalf("nine moves without a terminal outcome")
	})
}

func TestSession_RejectedMoveNeverMutates_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		session := NewSession(playerOne, playerTwo)
		positions := rapid.Permutation([]int{0, 1, 2, 3, 4, 5, 6, 7, 8}).Draw(t, "positions")
		played := rapid.IntRange(0, 4).Draw(t, "played")

		for _, position := range positions[:played] {
			if _, err := session.ApplyMove(session.Turn, position); err != nil {
				t.Fatalf("valid move rejected: %v", err)
			}
		}

		board, turn, status := session.Snapshot()
		if status != StatusInProgress {
			return
		}

		player := rapid.SampledFrom([]ParticipantID{playerOne, playerTwo}).Draw(t, "player")
		position := rapid.IntRange(-2, 10).Draw(t, "position")

		if _, err := session.ApplyMove(player, position); err == nil {
			return
		}

		afterBoard, afterTurn, afterStatus := session.Snapshot()
		if afterBoard != board || afterTurn != turn || afterStatus != status {
			t.Fatalf("rejected move changed the session")
		}
	})
}
