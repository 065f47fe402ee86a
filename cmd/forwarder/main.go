package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/aptscout/internal/adapters/airtable"
	natsadapter "github.com/samirrijal/aptscout/internal/adapters/nats"
	"github.com/samirrijal/aptscout/internal/adapters/slack"
	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/ports"
	"github.com/samirrijal/aptscout/internal/core/usecases"
	"github.com/samirrijal/aptscout/internal/pkg/config"
	"github.com/samirrijal/aptscout/internal/pkg/logging"
	"github.com/samirrijal/aptscout/internal/pkg/telemetry"
	"github.com/samirrijal/aptscout/internal/workflows"
)

const durableName = "aptscout-forwarder"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("aptscout-forwarder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Setup("aptscout-forwarder", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	loc, _ := cfg.Scrape.Location() // validated by config.Load

	var table ports.TableSink
	if at := airtable.New(cfg.Airtable.APIKey, cfg.Airtable.BaseID, cfg.Airtable.Table, cfg.Airtable.BaseURL, nil); at.Configured() {
		table = at
	} else {
		slog.Warn("airtable not configured, table posts disabled")
	}

	var chat ports.ChatNotifier
	if sc := slack.New(cfg.Slack.Token, cfg.Slack.Channel, cfg.Slack.BaseURL, nil); sc.Configured() {
		chat = sc
	} else {
		slog.Warn("slack not configured, chat posts disabled")
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ForwardListingWorkflow)
	w.RegisterActivity(&workflows.ForwardActivities{
		Forward: usecases.NewForwardService(table, chat, loc),
	})

	// Every matched listing event starts one forward workflow.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, durableName)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeMatchedListings(ctx, func(ctx context.Context, l *domain.Listing) error {
		return workflows.StartForward(ctx, c, cfg.Temporal.TaskQueue, l)
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("forwarder worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
	slog.Info("forwarder stopped")
}
