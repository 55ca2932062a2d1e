package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"driftworld/internal/persistence/chunkfile"
	"driftworld/internal/persistence/indexdb"
	persistlog "driftworld/internal/persistence/log"
	"driftworld/internal/sim/tuning"
	"driftworld/internal/sim/world"
	"driftworld/internal/transport/observer"
	"driftworld/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (overrides tuning)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir    = flag.String("data", "", "runtime data directory (overrides tuning)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			cfg = tuning.Default()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if strings.TrimSpace(*addr) != "" {
		cfg.Listen = *addr
	}
	if strings.TrimSpace(*dataDir) != "" {
		cfg.DataDir = *dataDir
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatalf("create data dir: %v", err)
	}

	store, err := chunkfile.NewStore(filepath.Join(cfg.DataDir, "chunks"))
	if err != nil {
		logger.Fatalf("open chunk store: %v", err)
	}

	idx, err := indexdb.OpenSQLite(filepath.Join(cfg.DataDir, "index.db"))
	if err != nil {
		logger.Fatalf("open chunk index: %v", err)
	}
	defer idx.Close()

	events := persistlog.NewEventLogger(cfg.DataDir)
	defer events.Close()
	hub := observer.NewHub(events)

	w, err := world.New(cfg)
	if err != nil {
		logger.Fatalf("create world: %v", err)
	}
	w.SetStore(store)
	w.SetIndex(idx)
	w.SetEventLogger(hub)
	w.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	wsSrv := ws.NewServer(w, logger)
	obsSrv := observer.NewServer(w, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/observer/v1/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/observer/v1/ws", obsSrv.WSHandler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Printf("listening on %s (seed=%d view_distance=%d)", cfg.Listen, cfg.Seed, cfg.ViewDistance)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("world loop: %v", err)
	}
	w.Stop()
	w.Flush()
	idx.Sync()
	logger.Printf("bye")
}
