package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/arvanplay/gamecore/pkg/api"
	"github.com/arvanplay/gamecore/pkg/games"
	"github.com/arvanplay/gamecore/pkg/games/crash"
	"github.com/arvanplay/gamecore/pkg/games/hokm"
	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/log"
	"github.com/arvanplay/gamecore/pkg/notifier"
	"github.com/arvanplay/gamecore/pkg/repositories"
	"github.com/arvanplay/gamecore/pkg/workers"
)

func main() {
	apiPort := flag.Int("api-port", 8080, "API port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	sqlitePath := flag.String("sqlite-path", "gamecore.db", "SQLite database path (used when DATABASE_URL is not set)")
	sqliteMigrations := flag.String("sqlite-migrations", "migrations/sqlite", "SQLite migrations directory")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repository repositories.Repository
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		repository, err = repositories.NewPostgresRepository(ctx, connStr)
		if err != nil {
			panic(fmt.Sprintf("Failed to create postgres repository: %v", err))
		}
		log.Info("Using postgres repository")
	} else {
		repository, err = repositories.NewSQLiteRepository(ctx, *sqlitePath, *sqliteMigrations)
		if err != nil {
			panic(fmt.Sprintf("Failed to create sqlite repository: %v", err))
		}
		log.Info("Using sqlite repository at %s", *sqlitePath)
	}
	defer repository.Close(ctx)

	hub := notifier.NewHub()

	factory := games.NewFactory(games.Deps{
		Repository: repository,
		Notifier:   hub,
		Clock:      clock.New(),
		Rand:       rand.New(rand.NewSource(rand.Int63())),
	})
	factory.Register(types.GameVariantCrash, crash.New)
	factory.Register(types.GameVariantHokm, hokm.New)

	manager := workers.NewRunnerManager(workers.NewRunnerManagerOptions{
		Factory:      factory,
		Clock:        clock.New(),
		TickInterval: crash.TickInterval,
	})

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:    *apiPort,
		Manager: manager,
		Hub:     hub,
	})

	log.Info("Starting API server")
	apiServer.Start(ctx)
}
