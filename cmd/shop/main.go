package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/config"
	"MiniCatalog/internal/i18n"
	"MiniCatalog/internal/storage"
	"MiniCatalog/pkg/kit"
)

const service = "shop"

// shop is the wired process: configuration, logger, file store and the
// catalog loaded from the data directory.
type shop struct {
	cfg     config.Config
	log     *zap.Logger
	reg     *prometheus.Registry
	locales *i18n.Registry
	files   *storage.FileStore
	pm      *catalog.Manager
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(&state{})
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "shop:", err)
		os.Exit(1)
	}
}

// state carries the process across shell lines so the catalog is loaded once.
type state struct {
	shop *shop
}

func newApp(st *state) *cli.App {
	return &cli.App{
		Name:  service,
		Usage: "manage products, reviews and ratings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "product and review records directory"},
			&cli.StringFlag{Name: "reports-dir", Usage: "product report output directory"},
			&cli.StringFlag{Name: "temp-dir", Usage: "snapshot directory"},
			&cli.StringFlag{Name: "locale", Aliases: []string{"l"}, Usage: "display locale, e.g. en-GB, fr-FR"},
		},
		Before: func(c *cli.Context) error {
			if st.shop != nil {
				return nil
			}
			s, err := bootstrap(c)
			if err != nil {
				return err
			}
			st.shop = s
			return nil
		},
		After: func(c *cli.Context) error {
			if st.shop != nil {
				_ = st.shop.log.Sync()
			}
			return nil
		},
		Commands: commands(st),
	}
}

func bootstrap(c *cli.Context) (*shop, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("reports-dir") {
		cfg.ReportsDir = c.String("reports-dir")
	}
	if c.IsSet("temp-dir") {
		cfg.TempDir = c.String("temp-dir")
	}
	if c.IsSet("locale") {
		cfg.Locale = c.String("locale")
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	reg := prometheus.NewRegistry()
	metrics := kit.NewMetrics(reg)

	locales, err := i18n.NewRegistry()
	if err != nil {
		return nil, err
	}

	files := storage.NewFileStore(cfg, log, metrics)

	// Load before serve: a missing data directory starts an empty catalog,
	// any other listing failure stops startup.
	entries, err := files.LoadAll(c.Context)
	if err != nil {
		if _, statErr := os.Stat(cfg.DataDir); !os.IsNotExist(statErr) {
			return nil, err
		}
		log.Warn("data directory missing, starting with an empty catalog", zap.String("dir", cfg.DataDir))
	}

	pm := catalog.NewManager(catalog.Deps{
		Log:     log,
		Metrics: metrics,
		Locales: locales,
		Reports: files,
		Archive: files,
	}, entries...)

	return &shop{cfg: cfg, log: log, reg: reg, locales: locales, files: files, pm: pm}, nil
}
