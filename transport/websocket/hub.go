package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
)

const writeWait = 10 * time.Second

var ErrConnectionNotFound = errors.New("connection not found")

// connection - gorilla allows one concurrent writer per conn.
type connection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (that *connection) write(messageType int, data []byte) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Hub maps participants to their live connections and delivers outbound events.
type Hub struct {
	logger *slog.Logger

	connectionsMutex sync.RWMutex
	connections      map[entity.ParticipantID]*connection
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger.With("component", "hub"),
		connections: make(map[entity.ParticipantID]*connection),
	}
}

func (that *Hub) register(participant entity.ParticipantID, conn *websocket.Conn) *connection {
	client := &connection{conn: conn}

	that.connectionsMutex.Lock()
	that.connections[participant] = client
	that.connectionsMutex.Unlock()

	return client
}

func (that *Hub) unregister(participant entity.ParticipantID) {
	that.connectionsMutex.Lock()
	delete(that.connections, participant)
	that.connectionsMutex.Unlock()
}

// Emit - sends event to the participant's connection.
func (that *Hub) Emit(ctx context.Context, to entity.ParticipantID, event entity.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	that.connectionsMutex.RLock()
	client, ok := that.connections[to]
	that.connectionsMutex.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, to)
	}

	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	if err = client.write(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", event.EventName(), err)
	}

	that.logger.Debug("event sent", "participant", to, "event", event.EventName())

	return nil
}

func (that *Hub) Len() int {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	return len(that.connections)
}
