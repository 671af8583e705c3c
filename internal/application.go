package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/config"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/repository"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/service"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-matchmaker/transport/rest"
	"github.com/rocketscienceinc/tictactoe-matchmaker/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	queue := service.NewMatchmakingQueue()
	registry := service.NewSessionRegistry()
	hub := websocket.NewHub(logger)

	var statsHandler *rest.StatsHandler
	var router *usecase.Router

	if conf.Redis.Enabled {
		redisClient, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		statsRepo := repository.NewStatsRepository(redisClient)
		router = usecase.NewRouter(logger, queue, registry, hub, statsRepo)
		statsHandler = rest.NewStatsHandler(logger, registry, queue, statsRepo)
	} else {
		log.Info("Redis disabled, session totals are not recorded")
		router = usecase.NewRouter(logger, queue, registry, hub, nil)
		statsHandler = rest.NewStatsHandler(logger, registry, queue, nil)
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, rest.NewMux(statsHandler)); httpErr != nil {
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort, "allowedOrigin", conf.AllowedOrigin)
		wsServer := websocket.New(logger, hub, router, conf.AllowsOrigin)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
