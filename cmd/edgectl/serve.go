package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/config"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/db"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server/endpoints"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the edge context HTTP server",
	Long: `Run an HTTP server that decodes the edge context header of every request.

Token public keys are read from the configured secret store. With the
database store, migrations are run on startup unless --no-migrate is set.

Example:
  edgectl serve
  edgectl serve --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind-address") {
			cfg.BindAddress, _ = cmd.Flags().GetString("bind-address")
		}
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, !noMigrate)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "server listen port (overrides configuration)")
	serveCmd.Flags().StringP("bind-address", "b", "", "server bind address (overrides configuration)")
	serveCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	if migrate && cfg.SecretStore == config.SecretStoreDatabase {
		slog.Info("running database migrations")
		version, changed, err := db.MigrateUp(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		slog.Info("database schema ready", "version", version, "migrated", changed)
	}

	store, err := openSecretStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open secret store: %w", err)
	}
	ring, err := newRing(store, cfg)
	if err != nil {
		return err
	}
	factory := edgecontext.NewFactory(newValidator(ring, cfg), edgecontext.WithLogger(slog.Default()))

	s := server.NewServer(factory, ring, cfg.HeaderName, cfg.BindAddress, strconv.Itoa(cfg.Port))
	endpoints.RegisterAll(s)

	errc := make(chan error, 1)
	go func() {
		slog.Info("running server", "address", "http://"+s.Addr(), "secret_store", cfg.SecretStore)
		errc <- s.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
