package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/api"
	"github.com/ah-its-andy/vid2hevc/internal/config"
	"github.com/ah-its-andy/vid2hevc/internal/converter"
	"github.com/ah-its-andy/vid2hevc/internal/db"
	"github.com/ah-its-andy/vid2hevc/internal/livelog"
	"github.com/ah-its-andy/vid2hevc/internal/profile"
	"github.com/ah-its-andy/vid2hevc/internal/session"
	"github.com/ah-its-andy/vid2hevc/internal/watcher"
	"github.com/ah-its-andy/vid2hevc/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Printf("starting vid2hevc on port %d, db=%s, watch=%v", cfg.HTTPPort, cfg.DBPath, cfg.WatchDirs)

	dbConn, err := db.Init(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer func() {
		_sqlDB, _ := dbConn.DB()
		_ = _sqlDB.Close()
	}()

	registerConverters(cfg)

	sessions, err := session.NewManager(cfg.SessionDir, cfg.AutoSaveInterval)
	if err != nil {
		log.Fatalf("failed to init session manager: %v", err)
	}
	if removed := sessions.CleanupOrphanedTempFiles(); len(removed) > 0 {
		log.Printf("removed %d orphaned temp files", len(removed))
	}
	if sessions.HasResumableSession() {
		log.Printf("resumable session found; resume or cancel it via the API")
	}

	// Job queue and workers
	queue := worker.NewQueue(cfg.MaxWorkers)
	live := livelog.NewManager()
	driver := worker.NewDriver(cfg, sessions)
	wp := worker.NewPool(cfg, dbConn, queue, driver, sessions, live)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Run(ctx)

	// Watcher
	w, err := watcher.NewRecursiveWatcher(cfg, dbConn, queue)
	if err != nil {
		log.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Printf("watcher error: %v", err)
		}
	}()

	// Initial full scan
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := w.ScanAll(ctx); err != nil {
			log.Printf("initial scan error: %v", err)
		}
	}()

	// API server
	server := api.NewServer(cfg, dbConn, queue, w, sessions, live)
	httpSrv := &http.Server{Addr: cfg.HTTPAddr(), Handler: server.Router}
	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	log.Printf("received signal %s, shutting down...", s)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	w.Pause()
	queue.StopAccepting()
	_ = httpSrv.Shutdown(shutdownCtx)
	queue.Drain(shutdownCtx)
	cancel()
	wp.Drain()
	if err := sessions.Save(true); err != nil {
		log.Printf("session flush failed: %v", err)
	}
	log.Printf("shutdown complete")
}

// registerConverters installs the builtin HEVC converter plus every YAML
// profile found in the profile directory.
func registerConverters(cfg *config.Config) {
	converter.Register(converter.NewHEVCConverter())
	if cfg.ProfileDir == "" {
		return
	}
	specs, problems, err := profile.LoadDir(cfg.ProfileDir)
	if err != nil {
		log.Printf("profile dir unreadable, using builtin converter only: %v", err)
		return
	}
	for name, errs := range problems {
		log.Printf("skipping invalid profile %s: %v", name, errs)
	}
	for _, spec := range specs {
		converter.Register(converter.NewProfileConverter(spec))
		log.Printf("registered encoding profile: %s", spec.Name)
	}
}
