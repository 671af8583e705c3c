package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
)

var errMissingPosition = errors.New("position is required")

func (that *Server) handleFindPlayer(ctx context.Context, participant entity.ParticipantID, _ *Message) error {
	if err := that.router.OnFindMatch(ctx, participant); err != nil {
		return fmt.Errorf("failed to find match: %w", err)
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, participant entity.ParticipantID, message *Message) error {
	var payload MovePayload

	err := json.Unmarshal(message.Payload, &payload)
	if err == nil && payload.Position == nil {
		err = errMissingPosition
	}

	if err != nil {
		if emitErr := that.hub.Emit(ctx, participant, entity.InvalidMove{}); emitErr != nil {
			that.logger.Warn("failed to send invalidMove", "participant", participant, "error", emitErr)
		}

		return fmt.Errorf("failed to unmarshal move: %w", err)
	}

	if err = that.router.OnMove(ctx, participant, payload.SessionID, *payload.Position); err != nil {
		return fmt.Errorf("move rejected: %w", err)
	}

	return nil
}
