package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/cache"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/jon4hz/foodgram/internal/foodgram"
	"github.com/jon4hz/foodgram/internal/imagestore"
	"github.com/jon4hz/foodgram/internal/notify/email"
	"github.com/jon4hz/foodgram/internal/notify/webpush"
	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.foodgram, /etc/foodgram)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

var rootCmd = &cobra.Command{
	Use:   "foodgram",
	Short: "Foodgram is a recipe sharing service",
	Long:  `Foodgram lets users publish recipes, follow authors, bookmark recipes and build a shopping list from the recipes in their cart.`,
	Example: `foodgram serve --config config.yml
  foodgram import --ingredients ingredients.json --tags tags.json
  foodgram create-user --email admin@example.com --username admin --admin`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setLogLevel(rootCmdPersistentFlags.LogLevel)
		logToFile()
	},
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("unknown log level %s, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
	}
}

func logToFile() {
	if rootCmdPersistentFlags.LogFile == "" {
		return
	}
	file, err := os.OpenFile(rootCmdPersistentFlags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Errorf("failed to open log file: %v", err)
		return
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.Info("logging to both console and file", "file", rootCmdPersistentFlags.LogFile)
}

// app bundles the collaborators every command works with.
type app struct {
	cfg    *config.Config
	db     *database.Client
	images *imagestore.Store
	svc    *foodgram.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database.Path, log.GetLevel() == log.DebugLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	images, err := imagestore.New(cfg.Media.Path, cfg.Media.MaxWidth, cfg.Media.MaxHeight)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	opts := []foodgram.Option{
		foodgram.WithCatalogCache(cache.NewCatalogCache(cfg.Cache)),
		foodgram.WithGravatar(cfg.Gravatar),
	}
	if cfg.Email != nil && cfg.Email.Enabled {
		opts = append(opts, foodgram.WithNotifier(email.New(cfg.Email, cfg.ServerURL)))
	}
	if cfg.WebPush != nil && cfg.WebPush.Enabled {
		opts = append(opts, foodgram.WithNotifier(webpush.NewClient(cfg.WebPush, db, cfg.ServerURL, nil)))
	}
	svc := foodgram.New(db, images, opts...)
	return &app{cfg: cfg, db: db, images: images, svc: svc}, nil
}

func (a *app) Close() error {
	a.svc.Wait()
	return a.db.Close()
}

// Execute runs the root command.
func Execute() error {
	return fang.Execute(context.Background(), rootCmd)
}
