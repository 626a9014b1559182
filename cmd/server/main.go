package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tabletally/internal/appconfig"
	"tabletally/internal/hub"
	"tabletally/internal/match"
	"tabletally/internal/rules"
	"tabletally/internal/storage/sqlite"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := appconfig.NewConfigFromEnv()

	matchRules, err := rules.Load(cfg.RulesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.RulesPath).Msg("invalid rules file")
	}

	clock := clockwork.NewRealClock()

	// Durability is best-effort: a store that cannot be opened means the
	// session runs without snapshots, not that it refuses to start.
	var saver *sqlite.Saver
	snapStore, err := sqlite.Open(cfg.SnapshotPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.SnapshotPath).Msg("snapshot store unavailable, running without durability")
	} else {
		defer snapStore.Close()
		saver = sqlite.NewSaver(snapStore)
	}

	m := match.NewMatch(matchRules.MaxRounds)
	var version uint64
	if snapStore != nil {
		if snap, ok := snapStore.Load(); ok {
			m = match.RestoreMatch(snap, matchRules.MaxRounds, clock.Now())
			version = snap.Version
			log.Info().Uint64("version", version).Str("phase", snap.Phase).Msg("restored match from snapshot")
		}
	}

	store := match.NewStore(m, version, clock)

	roller, err := match.NewRoller()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed dice roller")
	}

	h := hub.New(store, roller, matchRules, clock)
	store.SetOnCommit(func(snap match.Snapshot) {
		h.Broadcast(snap)
		if saver != nil {
			saver.Enqueue(snap)
		}
	})

	connMgr := hub.NewConnectionManager(h, hub.DefaultConnectionConfig())
	hubServer := hub.NewServer(h, connMgr, cfg.AssetDir)

	mux := http.NewServeMux()
	hubServer.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      cors.AllowAll().Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saverDone := make(chan struct{})
	if saver != nil {
		go func() {
			defer close(saverDone)
			saver.Run(ctx)
		}()
	} else {
		close(saverDone)
	}

	go h.Run(ctx, cfg.TickInterval)

	go func() {
		log.Info().Str("addr", server.Addr).Str("rules_path", cfg.RulesPath).Msg("tabletally server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Queue the final snapshot, then stop the saver so it flushes before
	// the process exits.
	if saver != nil {
		saver.Enqueue(store.Snapshot())
	}
	cancel()
	<-saverDone

	log.Info().Msg("tabletally server shutdown complete")
}
