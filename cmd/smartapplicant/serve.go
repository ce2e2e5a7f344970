package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/smartapplicant/internal/config"
	"github.com/jonathan/smartapplicant/internal/db"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/server"
	"github.com/jonathan/smartapplicant/internal/session"
)

var (
	servePort       int
	serveUseBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the wizard as a REST API with a server-sent event stream.

Sessions live in memory unless REDIS_URL is set. Finished applications are archived in
Postgres when DATABASE_URL is set. SESSION_SECRET signs the session tokens.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Render job pages in headless Chrome when plain fetching yields too little text")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = serveUseBrowser
	}

	sessionConfig, err := config.NewSessionConfig()
	if err != nil {
		return err
	}

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ttl := cfg.SessionTTLDuration()
	manager := session.NewManager(store, svc.generator, svc.refiner, ttl)
	manager.StartSweeper(time.Minute)

	serverConfig := server.Config{
		Port:       cfg.Port,
		Sessions:   manager,
		Tokens:     sessionConfig,
		JobOptions: &ingestion.JobOptions{UseBrowser: cfg.UseBrowser},
	}

	if cfg.DatabaseURL != "" {
		archive, err := connectArchive(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer archive.Close()
		serverConfig.Archive = archive
	}

	srv, err := server.New(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// newSessionStore picks Redis when configured, memory otherwise.
func newSessionStore(ctx context.Context, c *config.Config) (session.Store, func(), error) {
	ttl := c.SessionTTLDuration()
	if c.RedisURL == "" {
		logging.Info().Dur("ttl", ttl).Msg("sessions kept in memory")
		return session.NewMemoryStore(ttl), func() {}, nil
	}

	store, err := session.NewRedisStore(ctx, c.RedisURL, ttl)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logging.Info().Dur("ttl", ttl).Msg("sessions kept in redis")
	return store, func() { _ = store.Close() }, nil
}

// connectArchive opens the application archive and creates its table.
func connectArchive(ctx context.Context, databaseURL string) (*db.DB, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to prepare database: %w", err)
	}
	return database, nil
}
