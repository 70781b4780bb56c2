package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"dealtracker/internal/amqp"
	"dealtracker/internal/cache"
	"dealtracker/internal/cli"
	"dealtracker/internal/config"
	"dealtracker/internal/export"
	apphttp "dealtracker/internal/http"
	"dealtracker/internal/ledger"
	applog "dealtracker/internal/log"
	"dealtracker/internal/metrics"
	"dealtracker/internal/services"

	gcs "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, logger := cli.Setup()
	cli.MustValidate(cfg, logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(cli.ExitFailure)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	store, err := cli.OpenBackend(ctx, cfg, logger, "")
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tableCache := cache.NewTableCache(cfg.CacheTTL, cache.WithObserver(m.CacheLookup))
	book := ledger.New(store.Store, tableCache, ledger.WithLogger(logger), ledger.WithMetrics(m))

	dealOpts := []services.DealOption{services.WithDealMetrics(m), services.WithDealLogger(logger)}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(amqp.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
			Queue:      cfg.AMQPQueue,
		}, logger)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()
		dealOpts = append(dealOpts, services.WithNotifier(client))
		logger.Info("Status change publishing enabled", "exchange", cfg.AMQPExchange)
	}

	var uploader apphttp.ExportUploader
	if cfg.ExportGCSBucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("initialize GCS client: %w", err)
		}
		defer client.Close()
		uploader = export.NewGCSUploader(client, cfg.ExportGCSBucket, logger)
		logger.Info("Export upload enabled", "bucket", cfg.ExportGCSBucket)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		Deals:     services.NewDealService(book, dealOpts...),
		Dashboard: services.NewDashboardService(book, services.WithDashboardLogger(logger)),
		Metrics:   m,
		Logger:    logger,
		Ready: func(ctx context.Context) error {
			_, err := book.LoadDeals(ctx)
			return err
		},
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Uploader:       uploader,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting dealtracker server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
