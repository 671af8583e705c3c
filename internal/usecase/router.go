package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/service"
)

// Emitter delivers an outbound event to one connected participant.
type Emitter interface {
	Emit(ctx context.Context, to entity.ParticipantID, event entity.Event) error
}

type matchmaker interface {
	RequestMatch(participant entity.ParticipantID) service.MatchResult
	RemoveIfWaiting(participant entity.ParticipantID) bool
}

type sessionStore interface {
	Create(playerX, playerO entity.ParticipantID) (*entity.Session, error)
	FindByParticipant(participant entity.ParticipantID) (*entity.Session, error)
	ApplyMove(id entity.SessionID, participant entity.ParticipantID, position int) (entity.MoveResult, func(), error)
	Remove(id entity.SessionID)
}

type statsRecorder interface {
	Record(ctx context.Context, event entity.StatsEvent) error
}

// Router turns inbound connection events into queue and session operations and fans the results out.
type Router struct {
	logger *slog.Logger

	queue    matchmaker
	registry sessionStore
	emitter  Emitter
	stats    statsRecorder

	// serializes pairing against disconnect cleanup
	lifecycleMu sync.Mutex
}

// NewRouter - stats may be nil.
func NewRouter(logger *slog.Logger, queue matchmaker, registry sessionStore, emitter Emitter, stats statsRecorder) *Router {
	if stats == nil {
		stats = nopRecorder{}
	}

	return &Router{
		logger:   logger.With("component", "router"),
		queue:    queue,
		registry: registry,
		emitter:  emitter,
		stats:    stats,
	}
}

// OnFindMatch - handles findPlayer.
func (that *Router) OnFindMatch(ctx context.Context, participant entity.ParticipantID) error {
	log := that.logger.With("method", "OnFindMatch", "participant", participant)

	session, release, err := that.pair(participant)
	if err != nil {
		return err
	}

	if session == nil {
		log.Info("participant is waiting for an opponent")
		return nil
	}
	defer release()

	log.Info("game started", "sessionID", session.ID)
	that.record(ctx, entity.StatsStarted)

	that.emit(ctx, session.PlayerX, entity.GameStart{Symbol: entity.SymbolX, SessionID: session.ID})
	that.emit(ctx, session.PlayerO, entity.GameStart{Symbol: entity.SymbolO, SessionID: session.ID})

	return nil
}

// OnMove - handles makeMove. The returned error is the reason the move was rejected.
func (that *Router) OnMove(ctx context.Context, participant entity.ParticipantID, sessionID entity.SessionID, position int) error {
	log := that.logger.With("method", "OnMove", "participant", participant, "sessionID", sessionID)

	result, release, err := that.registry.ApplyMove(sessionID, participant, position)
	if err != nil {
		log.Debug("move rejected", "position", position, "error", err)
		that.emit(ctx, participant, entity.InvalidMove{})

		return fmt.Errorf("failed to apply move: %w", err)
	}
	defer release()

	that.emit(ctx, result.Mover, entity.OpponentTurn{Board: result.Board})
	that.emit(ctx, result.Opponent, entity.YourTurn{Board: result.Board})

	switch result.Outcome {
	case entity.OutcomeWon:
		log.Info("game won", "winner", result.Winner)
		that.record(ctx, entity.StatsWon)

		that.emit(ctx, result.Winner, entity.GameOver{Message: entity.MessageWin})
		that.emit(ctx, loserOf(result), entity.GameOver{Message: entity.MessageLose})
	case entity.OutcomeDraw:
		log.Info("game ended in a draw")
		that.record(ctx, entity.StatsDraw)

		that.emit(ctx, result.Mover, entity.GameOver{Message: entity.MessageDraw})
		that.emit(ctx, result.Opponent, entity.GameOver{Message: entity.MessageDraw})
	case entity.OutcomeInProgress:
	}

	return nil
}

// OnDisconnect - releases the matchmaking slot and abandons the participant's session.
func (that *Router) OnDisconnect(ctx context.Context, participant entity.ParticipantID) {
	log := that.logger.With("method", "OnDisconnect", "participant", participant)

	session := that.release(participant)
	if session == nil {
		log.Info("participant left")
		return
	}

	remaining, release, abandoned := session.AbandonOrdered(participant)
	if !abandoned {
		log.Info("participant left after the game ended", "sessionID", session.ID)
		return
	}
	defer release()

	log.Info("game closed due to participant disconnect", "sessionID", session.ID)
	that.record(ctx, entity.StatsAbandoned)

	that.emit(ctx, remaining, entity.OpponentDisconnected{})
}

// pair - a nil session means the participant is waiting. A new session is returned with its
// delivery lock held, so nothing reaches its players before gameStart.
func (that *Router) pair(participant entity.ParticipantID) (*entity.Session, func(), error) {
	that.lifecycleMu.Lock()
	defer that.lifecycleMu.Unlock()

	if _, err := that.registry.FindByParticipant(participant); err == nil {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrAlreadyInSession, participant)
	}

	match := that.queue.RequestMatch(participant)
	if !match.Paired {
		return nil, nil, nil
	}

	session, err := that.registry.Create(match.Opponent, participant)
	if err != nil {
		// the slot was cleared by the pairing; give it back to the participant that held it
		that.queue.RequestMatch(match.Opponent)
		that.logger.Error("failed to create session, opponent put back in the slot",
			"method", "pair", "waiting", match.Opponent, "arrived", participant, "error", err)

		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, session.HoldDelivery(), nil
}

// release - frees the participant's slot and detaches its session from the registry.
// Abandoning happens outside the lifecycle lock since it waits for pending deliveries.
func (that *Router) release(participant entity.ParticipantID) *entity.Session {
	that.lifecycleMu.Lock()
	defer that.lifecycleMu.Unlock()

	that.queue.RemoveIfWaiting(participant)

	session, err := that.registry.FindByParticipant(participant)
	if err != nil {
		return nil
	}

	that.registry.Remove(session.ID)

	return session
}

func (that *Router) emit(ctx context.Context, to entity.ParticipantID, event entity.Event) {
	if err := that.emitter.Emit(ctx, to, event); err != nil {
		that.logger.Warn("failed to deliver event", "participant", to, "event", event.EventName(), "error", err)
	}
}

func (that *Router) record(ctx context.Context, event entity.StatsEvent) {
	if err := that.stats.Record(ctx, event); err != nil {
		that.logger.Error("failed to record stats", "event", event, "error", err)
	}
}

func loserOf(result entity.MoveResult) entity.ParticipantID {
	if result.Winner == result.Mover {
		return result.Opponent
	}
	return result.Mover
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, entity.StatsEvent) error { return nil }

// IsRejection - true for refused client requests: move rejections and a findPlayer from a player in a game.
func IsRejection(err error) bool {
	return errors.Is(err, apperror.ErrInvalidPosition) ||
		errors.Is(err, apperror.ErrCellOccupied) ||
		errors.Is(err, apperror.ErrNotYourTurn) ||
		errors.Is(err, apperror.ErrSessionClosed) ||
		errors.Is(err, apperror.ErrSessionNotFound) ||
		errors.Is(err, apperror.ErrAlreadyInSession)
}
