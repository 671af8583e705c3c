package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/usecase"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	shutdownWait   = 5 * time.Second
)

type router interface {
	OnFindMatch(ctx context.Context, participant entity.ParticipantID) error
	OnMove(ctx context.Context, participant entity.ParticipantID, sessionID entity.SessionID, position int) error
	OnDisconnect(ctx context.Context, participant entity.ParticipantID)
}

type handlerFunc func(ctx context.Context, participant entity.ParticipantID, message *Message) error

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	router   router
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

// New - allowOrigin decides which browser origins may open a connection.
func New(logger *slog.Logger, hub *Hub, router router, allowOrigin func(origin string) bool) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		router: router,

		handlers: make(map[string]handlerFunc),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			origin := req.Header.Get("Origin")
			return origin == "" || allowOrigin(origin)
		},
	}

	server.handlers[eventFindPlayer] = server.handleFindPlayer
	server.handlers[eventMakeMove] = server.handleMakeMove

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.ServeWS)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownWait)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeWS - upgrades the connection and serves it until it closes.
func (that *Server) ServeWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	participant := entity.ParticipantID(uuid.NewString())
	client := that.hub.register(participant, conn)

	log = log.With("participant", participant)
	log.Info("WebSocket connection established")

	ctx := req.Context()
	done := make(chan struct{})

	defer func() {
		close(done)
		that.hub.unregister(participant)
		// the disconnect has to be handled even when the server is shutting down
		that.router.OnDisconnect(context.WithoutCancel(ctx), participant)

		if err = conn.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	go that.keepAlive(ctx, client, done)

	if err = that.handleMessages(ctx, participant, conn); err != nil {
		log.Info("connection closed", "reason", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, participant entity.ParticipantID, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleMessages", "participant", participant)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Event]
		if !ok {
			log.Warn("unknown event", "event", message.Event)
			continue
		}

		if err = handler(ctx, participant, &message); err != nil {
			if usecase.IsRejection(err) {
				log.Debug("event rejected", "event", message.Event, "error", err)
				continue
			}
			log.Warn("event not handled", "event", message.Event, "error", err)
		}
	}
}

// keepAlive - pings the peer and closes the connection on shutdown, which ends the read loop.
func (that *Server) keepAlive(ctx context.Context, client *connection, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = client.write(websocket.CloseMessage, message)
			_ = client.conn.Close()
			return
		case <-ticker.C:
			if err := client.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
