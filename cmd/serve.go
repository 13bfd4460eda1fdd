package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/server"
)

var (
	serveListen      string
	serveCORSOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics as a JSON API and MCP endpoint",
	Long: `Start an HTTP server over the metrics database.

  GET  /health
  GET  /api/v1/seasons | squad | transfers | players | leaderboard | team
  GET  /api/v1/players/{name}/seasons | scout | trend
  GET  /api/v1/radar | scatter | tools
  POST /api/v1/transfers | matches
  POST /mcp  (Model Context Protocol, streamable HTTP)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default :8080)")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origins", nil, "allowed CORS origins (default *)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	c, closeCache, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	srv := server.New(server.Config{
		Store:       db,
		Cache:       c,
		Strict:      strictMeta,
		ScoreParser: scoreParser,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "db", dbPath, "redis", redisURL != "")
		serverErrors <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			return httpSrv.Close()
		}
	}
	logger.Info("shutdown complete")
	return nil
}
