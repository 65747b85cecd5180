package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nyrahul/shellsight/internal/audit"
	"github.com/nyrahul/shellsight/internal/catalog"
	"github.com/nyrahul/shellsight/internal/config"
	"github.com/nyrahul/shellsight/internal/database"
	"github.com/nyrahul/shellsight/internal/handlers"
	"github.com/nyrahul/shellsight/internal/logging"
	"github.com/nyrahul/shellsight/internal/middleware"
	"github.com/nyrahul/shellsight/internal/storage"
)

func main() {
	// Handle CLI commands before starting the server
	if len(os.Args) > 1 && os.Args[1] == "--sync-audit" {
		runSyncAudit()
		return
	}

	config.Load()
	logging.Init(config.Cfg.LogPath)
	defer logging.Close()

	if err := database.Init(config.Cfg.DatabasePath); err != nil {
		log.Fatalf("Database init: %v", err)
	}
	defer database.Close()

	log.Printf("Config: Store=%s, KeyPrefix=%q, PerUserRecordings=%v, AuthDisabled=%v",
		config.Cfg.StoreBackend, config.Cfg.KeyPrefix, config.Cfg.PerUserRecordings, config.Cfg.AuthDisabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		log.Fatalf("Store init: %v", err)
	}
	cat := catalog.New(store, config.Cfg.KeyPrefix, config.Cfg.RecordingCacheSize)
	handlers.Store = store
	handlers.Catalog = cat

	// Recordings written in place are refetched on the next replay.
	if fs, ok := store.(*storage.FileStore); ok {
		if err := fs.Watch(ctx, func(key string) { cat.Invalidate(key) }); err != nil {
			log.Printf("WARNING: cannot watch %s: %v", config.Cfg.StoreDir, err)
		}
	}

	auditor := audit.NewAuditor(database.DB, config.Cfg.AuditRetentionDays)
	syncer := audit.NewSyncer(auditor, store, config.Cfg.KeyPrefix)
	handlers.Auditor = auditor
	handlers.AuditSyncer = syncer
	if config.Cfg.AuditSyncSchedule != "" {
		if err := syncer.Start(config.Cfg.AuditSyncSchedule); err != nil {
			log.Fatalf("Audit sync: %v", err)
		}
	}

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	// Health (no auth)
	r.Get("/health", handlers.HealthCheck)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireIdentity(auditor))

		r.Get("/recordings", handlers.ListRecordings)
		r.Get("/recordings/{folder}", handlers.GetRecording)
		r.Get("/recordings/{folder}/replay", handlers.ReplayWS)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/audit/logins", handlers.GetLoginAudit)
			r.Delete("/audit/logins", handlers.PurgeLoginAudit)
			r.Post("/audit/sync", handlers.SyncLoginAudit)

			r.Get("/server-logs", handlers.GetServerLogs)
			r.Delete("/server-logs", handlers.ClearServerLogs)
		})
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:    config.Cfg.ListenAddr,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", config.Cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	syncer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	// Push the final state of the login table before exiting.
	if err := syncer.Sync(shutdownCtx); err != nil {
		log.Printf("Final audit sync: %v", err)
	}
	log.Println("Server stopped")
}

// openStore builds the object store selected by STORE_BACKEND.
func openStore(ctx context.Context) (storage.Store, error) {
	switch config.Cfg.StoreBackend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3StoreConfig{
			Bucket:   config.Cfg.S3Bucket,
			Region:   config.Cfg.S3Region,
			Endpoint: config.Cfg.S3Endpoint,
		})
	case "file", "":
		return storage.NewFileStore(config.Cfg.StoreDir, 0)
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Cfg.StoreBackend)
	}
}

func runSyncAudit() {
	fs := flag.NewFlagSet("sync-audit", flag.ExitOnError)
	timeout := fs.Duration("timeout", time.Minute, "Upload timeout")
	purge := fs.Bool("purge", false, "Purge events past retention before uploading")
	fs.Parse(os.Args[2:])

	config.Load()
	if err := database.Init(config.Cfg.DatabasePath); err != nil {
		fmt.Fprintf(os.Stderr, "Database init: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Store init: %v\n", err)
		os.Exit(1)
	}

	auditor := audit.NewAuditor(database.DB, config.Cfg.AuditRetentionDays)
	if *purge {
		if _, err := auditor.PurgeOlderThan(0); err != nil {
			fmt.Fprintf(os.Stderr, "Purge: %v\n", err)
			os.Exit(1)
		}
	}

	syncer := audit.NewSyncer(auditor, store, config.Cfg.KeyPrefix)
	if err := syncer.Sync(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Sync: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Login audit uploaded to %s\n", syncer.Key())
}
