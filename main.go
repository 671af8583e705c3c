package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	app "github.com/rocketscienceinc/tictactoe-matchmaker/internal"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/config"
	"github.com/spf13/pflag"
)

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	configPath := pflag.StringP("config", "c", "./config.yml", "path to the yml config file")
	pflag.Parse()

	// .env is optional, values already set in the environment win
	_ = godotenv.Load()

	conf := config.MustLoad(*configPath)
	logger := initLogger(conf)

	logger.Info("configuration loaded", "source", config.Source(*configPath))

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
