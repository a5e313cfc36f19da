package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"poker-quiz-service/internal/app"
	"poker-quiz-service/internal/config"
	filestore "poker-quiz-service/internal/infra/file"
	"poker-quiz-service/internal/infra/memory"
	pgstore "poker-quiz-service/internal/infra/postgres"
	redisstore "poker-quiz-service/internal/infra/redis"
	transport "poker-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, cleanup, err := buildScoreStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	directoryTTL := config.TTLDuration(cfg.Directory.TTL, 10*time.Minute)
	members := memory.NewMemberDirectory(memory.NewStaticMemberSource(nil), directoryTTL)
	roles := memory.NewRolePlatform()

	service, err := app.NewQuizService(ctx, memory.NewSessionRegistry(), store, roles, members)
	if err != nil {
		return err
	}
	wsHandler := transport.NewWSHandler(service, cfg.Platform.AdminToken)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildScoreStore wires the configured persistence backend. The file backend
// needs no external services and is the default.
func buildScoreStore(ctx context.Context, cfg config.Config) (app.ScoreStore, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case "", "file":
		return filestore.NewScoreStore(cfg.Storage.File.Path), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		return redisstore.NewScoreStore(client, cfg.Platform.Community), func() { _ = client.Close() }, nil
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Storage.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewScoreStore(pool, cfg.Platform.Community), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
