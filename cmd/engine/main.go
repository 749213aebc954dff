package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veralis-app/salesdesk/go-engine/internal/config"
	"github.com/veralis-app/salesdesk/go-engine/internal/fetch"
	"github.com/veralis-app/salesdesk/go-engine/internal/history"
	"github.com/veralis-app/salesdesk/go-engine/internal/poller"
	"github.com/veralis-app/salesdesk/go-engine/internal/statusapi"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to engine.yaml")
	subject := flag.String("subject", "", "poll a single subject to a terminal reason and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	cfg.BackendURL = envOr("ANALYSIS_URL", cfg.BackendURL)
	cfg.DBPath = envOr("ENGINE_DB", cfg.DBPath)
	cfg.ListenAddr = envOr("ENGINE_ADDR", cfg.ListenAddr)

	store, err := history.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer store.Close()

	client := fetch.NewClient(cfg.BackendURL)
	manager := poller.NewManager(client, cfg.ToPollerConfig(), store)

	if *subject != "" {
		os.Exit(runOneShot(manager, *subject))
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: statusapi.NewServer(manager, store).Router(),
	}

	go func() {
		log.Printf("[ENGINE] listening on %s (backend: %s, db: %s)",
			cfg.ListenAddr, cfg.BackendURL, cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("[ENGINE] shutting down")
	manager.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ENGINE] shutdown: %v", err)
	}
}

// #endregion main

// #region one-shot

// runOneShot polls one subject to completion and prints the outcome.
// Exit code 0 for converged or awaiting-input, 1 for exhausted or cancelled.
func runOneShot(manager *poller.Manager, subject string) int {
	session, err := manager.Start(subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		return 2
	}
	<-session.Done()

	v := session.View()
	fmt.Printf("subject:   %s\n", v.SubjectID)
	fmt.Printf("reason:    %s\n", v.Reason)
	fmt.Printf("attempts:  %d/%d\n", v.Attempts, v.MaxAttempts)
	fmt.Printf("streak:    %d/%d\n", v.Streak, v.RequiredStreak)
	if v.Snapshot != nil && v.Snapshot.Archetype != "" {
		fmt.Printf("archetype: %s (%.0f%%)\n", v.Snapshot.Archetype, v.Snapshot.Confidence)
	}

	switch v.Reason {
	case poller.ReasonConverged, poller.ReasonAwaitingInput:
		return 0
	default:
		return 1
	}
}

// #endregion one-shot

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
