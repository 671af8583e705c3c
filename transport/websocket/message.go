package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
)

const (
	eventFindPlayer = "findPlayer"
	eventMakeMove   = "makeMove"
)

// Message represents a WebSocket message with an event name and a payload.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload - body of makeMove.
type MovePayload struct {
	SessionID entity.SessionID `json:"sessionId"`
	Position  *int             `json:"position"`
}

func encodeEvent(event entity.Event) ([]byte, error) {
	message := Message{Event: event.EventName()}

	switch event.(type) {
	case entity.InvalidMove, entity.OpponentDisconnected:
	default:
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", event.EventName(), err)
		}
		message.Payload = payload
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
