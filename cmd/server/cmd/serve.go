package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherline/server/internal/api"
	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/config"
	"github.com/gatherline/server/internal/domain/events"
	"github.com/gatherline/server/internal/domain/rsvps"
	"github.com/gatherline/server/internal/domain/users"
	"github.com/gatherline/server/internal/email"
	"github.com/gatherline/server/internal/metrics"
	"github.com/gatherline/server/internal/realtime"
	"github.com/gatherline/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Gatherline HTTP server",
	Long: `Start the Gatherline HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap an admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
- Start the HTTP and WebSocket server
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting gatherline server")

	metrics.Init(Version, GitCommit)
	logger.Info().Str("version", Version).Msg("metrics initialized")

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminUser(bootstrapCtx, pool, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init failed: %w", err)
	}

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("email service init failed: %w", err)
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	hub := realtime.NewHub(logger)

	usersService := users.NewService(repo.Users(), tokens, mailer, logger)
	eventsService := events.NewService(repo.Events(), hub, mailer, logger)
	rsvpsService := rsvps.NewService(repo.RSVPs(), repo.Events(), hub, logger)

	router := api.NewRouter(api.Deps{
		Config:  cfg,
		Logger:  logger,
		Version: Version,
		JWT:     tokens,
		Users:   usersService,
		Events:  eventsService,
		RSVPs:   rsvpsService,
		Hub:     hub,
	})

	// No read/write timeouts: WebSocket connections are long-lived. The hub
	// drops connections on send failure and the per-write deadline bounds
	// broadcast stalls.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func bootstrapAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger zerolog.Logger) error {
	bootstrap := cfg.Bootstrap
	if bootstrap.AdminEmail == "" || bootstrap.AdminPassword == "" {
		logger.Debug().Msg("admin bootstrap env vars not set; skipping")
		return nil
	}

	const checkQuery = `SELECT id FROM users WHERE email = $1 LIMIT 1`
	row := pool.QueryRow(ctx, checkQuery, bootstrap.AdminEmail)
	var existingID string
	if err := row.Scan(&existingID); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrap.AdminPassword), auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	const insertQuery = `
INSERT INTO users (id, email, password_hash, role, created_at)
VALUES (gen_random_uuid(), $1, $2, 'ADMIN', now())`
	if _, err := pool.Exec(ctx, insertQuery, bootstrap.AdminEmail, string(hash)); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Info().Str("email", bootstrap.AdminEmail).Msg("bootstrapped admin user")
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
