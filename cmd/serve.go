package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/api"
	"github.com/jon4hz/foodgram/internal/api/auth"
	"github.com/jon4hz/foodgram/internal/scheduler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Foodgram server",
	Long:  `Start the Foodgram HTTP API and serve uploaded recipe images.`,
	Example: `foodgram serve --config config.yml
foodgram serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	var opts []api.Option
	if a.cfg.OIDC != nil && a.cfg.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(cmd.Context(), a.cfg.OIDC, a.svc, a.cfg.ServerURL+"/")
		if err != nil {
			return err
		}
		opts = append(opts, api.WithOIDC(provider))
		log.Info("OIDC sign in enabled", "issuer", a.cfg.OIDC.Issuer)
	}

	server, err := api.New(a.cfg, a.svc, a.images.Dir(), log.GetLevel() == log.DebugLevel, opts...)
	if err != nil {
		return err
	}

	sched, err := newScheduler(a)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	log.Info("foodgram started successfully")
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down API server", "error", err)
	}

	stats := a.svc.CatalogStats()
	if stats != nil && stats.Stats != nil {
		log.Info("catalog cache stats", "hits", stats.Hits, "misses", stats.Miss)
	}
	return nil
}

const pruneMediaJobID = "prune-media"

// newScheduler registers the background maintenance jobs.
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, err
	}
	if a.cfg.Media.PruneInterval > 0 {
		grace := a.cfg.Media.PruneGrace
		err := sched.AddJob(pruneMediaJobID, "Prune orphaned images", a.cfg.Media.PruneInterval,
			func(ctx context.Context) error {
				_, err := a.svc.PruneMedia(ctx, grace)
				return err
			}, false)
		if err != nil {
			return nil, err
		}
	}
	return sched, nil
}
