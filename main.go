package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aurorasocial/server/blob"
	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/db"
	"github.com/aurorasocial/server/mailer"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/router"
	"github.com/aurorasocial/server/store"
)

// cleanupInterval is how often expired sessions and tokens are purged.
const cleanupInterval = time.Hour

func main() {
	// A missing .env is fine; real deployments use the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, dialect, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn, dialect); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", dialect.Name)

	s := store.New(dbConn, dialect)

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		slog.Error("attachment storage unavailable", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	if err := bootstrap(ctx, s, cfg); err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	go cleanupExpired(ctx, s)

	// Create router
	mux := router.NewRouter(router.Deps{
		Store:  s,
		Blobs:  blobs,
		Mailer: newMailer(cfg),
		Config: cfg,
	})

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(cfg.CORSOrigins)(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "storage", cfg.StorageBackend)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

func newLogger(cfg cliparse.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newBlobStore(ctx context.Context, cfg cliparse.Config) (blob.Store, error) {
	if cfg.StorageBackend == "s3" {
		return blob.NewS3Store(ctx, blob.S3Options{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
	}
	return blob.NewLocalStore(cfg.StorageDir, cfg.BaseURL, cfg.DownloadURLSalt)
}

func newMailer(cfg cliparse.Config) mailer.Mailer {
	if cfg.ResendAPIKey == "" {
		slog.Warn("RESEND_API_KEY not set, emails will only be logged")
		return mailer.LogMailer{}
	}
	return mailer.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
}

// bootstrap creates the first municipality and its gestor. The gestor
// signs in through a magic link.
func bootstrap(ctx context.Context, s *store.Store, cfg cliparse.Config) error {
	if cfg.BootstrapTenant == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapEmail))
	if _, err := s.UserByEmailUnscoped(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	tenant, err := s.CreateTenant(ctx, cfg.BootstrapTenant)
	if err != nil {
		return err
	}
	user, err := s.CreateUserUnscoped(ctx, tenant.ID, email, models.DisplayNameFromEmail(email), models.RoleGestor, models.UserPending)
	if err != nil {
		return err
	}
	slog.Info("bootstrap tenant created", "tenant_id", tenant.ID, "gestor_id", user.ID)
	return nil
}

func cleanupExpired(ctx context.Context, s *store.Store) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				slog.Error("failed to purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purged expired sessions and tokens", "count", n)
			}
		}
	}
}
