package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/samirrijal/aptscout/internal/adapters/craigslist"
	natsadapter "github.com/samirrijal/aptscout/internal/adapters/nats"
	"github.com/samirrijal/aptscout/internal/adapters/postgres"
	"github.com/samirrijal/aptscout/internal/adapters/valkey"
	"github.com/samirrijal/aptscout/internal/core/poi"
	"github.com/samirrijal/aptscout/internal/core/ports"
	"github.com/samirrijal/aptscout/internal/core/usecases"
	"github.com/samirrijal/aptscout/internal/pkg/config"
	"github.com/samirrijal/aptscout/internal/pkg/logging"
	"github.com/samirrijal/aptscout/internal/pkg/metrics"
	"github.com/samirrijal/aptscout/internal/pkg/staticmap"
	"github.com/samirrijal/aptscout/internal/pkg/telemetry"
)

func main() {
	once := flag.Bool("once", false, "run a single scrape cycle and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load("aptscout-scraper")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("aptscout-scraper", cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	loc, _ := cfg.Scrape.Location() // validated by config.Load

	source := craigslist.New(craigslist.Config{
		Site:           cfg.Scrape.Site,
		Category:       cfg.Scrape.Category,
		MinPrice:       cfg.Scrape.MinPrice,
		MaxPrice:       cfg.Scrape.MaxPrice,
		ZipCode:        cfg.Scrape.ZipCode,
		SearchDistance: cfg.Scrape.SearchDistance,
		Limit:          cfg.Scrape.LimitPerArea,
		UserAgent:      cfg.Scrape.UserAgent,
		Location:       loc,
		MinDelay:       time.Duration(cfg.Scrape.MinRequestDelay) * time.Second,
		MaxDelay:       time.Duration(cfg.Scrape.MaxRequestDelay) * time.Second,
	})

	var seen ports.SeenStore
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, using database for seen checks", "error", err)
	} else {
		defer vc.Close()
		seen = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, matched listings will not be forwarded", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	var maps ports.MapRenderer
	if cfg.Maps.APIKey != "" {
		maps = staticmap.New(cfg.Maps.APIKey, cfg.Maps.Zoom, cfg.Maps.Size)
	}

	svc := usecases.NewScrapeService(
		source,
		postgres.NewListingRepo(db),
		seen,
		publisher,
		maps,
		poi.NewResolver(cfg.POI()),
	)

	if cfg.Scrape.MetricsPort > 0 {
		go serveMetrics(cfg.Scrape.MetricsPort)
	}

	slog.Info("scraper started",
		"site", cfg.Scrape.Site,
		"areas", cfg.Scrape.Areas,
		"once", *once,
	)

	for {
		report, err := svc.RunCycle(ctx, cfg.Scrape.Areas)
		db.ReportStats()
		if err != nil {
			slog.Warn("scrape cycle interrupted", "error", err)
		} else {
			slog.Info("scrape cycle done",
				"duration", report.Duration.String(),
				"matched", len(report.Matched),
			)
		}
		if *once || ctx.Err() != nil {
			break
		}

		wait := sleepDuration(cfg.Scrape.MinSleep, cfg.Scrape.MaxSleep)
		slog.Info("sleeping until next cycle", "wait", wait.String())
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	slog.Info("scraper stopped")
}

// sleepDuration picks a random pause in [minSec, maxSec] seconds.
func sleepDuration(minSec, maxSec int) time.Duration {
	if maxSec <= minSec {
		return time.Duration(minSec) * time.Second
	}
	return time.Duration(minSec+rand.N(maxSec-minSec+1)) * time.Second
}

// serveMetrics exposes /metrics and a liveness probe for the scraper.
func serveMetrics(port int) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", metrics.Handler())
	app.Get("/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	addr := fmt.Sprintf(":%d", port)
	slog.Info("metrics server starting", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}
