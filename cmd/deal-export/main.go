// Command deal-export writes the filtered dashboard to an xlsx workbook
// and, when EXPORT_GCS_BUCKET is set, uploads a copy to Cloud Storage.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"dealtracker/internal/cli"
	"dealtracker/internal/config"
	"dealtracker/internal/core"
	"dealtracker/internal/export"
	"dealtracker/internal/ledger"
	applog "dealtracker/internal/log"
	"dealtracker/internal/services"

	gcs "cloud.google.com/go/storage"
)

type options struct {
	out        string
	party      string
	contractor string
	from       string
	to         string
	quickRange string
}

func main() {
	var opts options
	flag.StringVar(&opts.out, "out", export.Filename, "output file, or - for stdout")
	flag.StringVar(&opts.party, "party", "", "party name contains")
	flag.StringVar(&opts.contractor, "contractor", "", "contractor name contains")
	flag.StringVar(&opts.from, "from", "", "start date lower bound (YYYY-MM-DD)")
	flag.StringVar(&opts.to, "to", "", "start date upper bound (YYYY-MM-DD)")
	flag.StringVar(&opts.quickRange, "range", "", "quick range: last_week, last_month, last_year")
	flag.Parse()

	cfg, logger := cli.Setup()
	if opts.out == "-" {
		// stdout carries the workbook
		lvl, _ := applog.ParseLevel(cfg.LogLevel)
		logger = applog.New(applog.Config{Level: lvl, Format: cfg.LogFormat, Output: os.Stderr})
		applog.SetDefault(logger)
	}

	filter, err := opts.filter()
	if err != nil {
		logger.Error("Invalid filter", applog.FieldError, err)
		os.Exit(cli.ExitUsage)
	}

	if err := run(cfg, logger, filter, opts.out); err != nil {
		logger.Error("Export failed", applog.FieldError, err)
		os.Exit(cli.ExitFailure)
	}
}

func (o options) filter() (core.Filter, error) {
	f := core.Filter{Party: o.party, Contractor: o.contractor}
	var err error
	if o.from != "" {
		if f.From, err = core.ParseDate(o.from); err != nil {
			return f, fmt.Errorf("-from: %w", err)
		}
	}
	if o.to != "" {
		if f.To, err = core.ParseDate(o.to); err != nil {
			return f, fmt.Errorf("-to: %w", err)
		}
	}
	f.Range, err = core.ParseQuickRange(o.quickRange)
	return f, err
}

func run(cfg *config.Config, logger *applog.Logger, filter core.Filter, out string) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	store, err := cli.OpenBackend(ctx, cfg, logger, "")
	if err != nil {
		return err
	}
	defer store.Close()

	dashboard := services.NewDashboardService(ledger.New(store.Store, nil, ledger.WithLogger(logger)), services.WithDashboardLogger(logger))
	report, err := dashboard.Report(ctx, filter)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report.Rows); err != nil {
		return err
	}
	if out == "-" {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
	} else {
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		logger.Info("Workbook written", "path", out, applog.FieldRows, len(report.Rows))
	}

	if cfg.ExportGCSBucket == "" {
		return nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("initialize GCS client: %w", err)
	}
	defer client.Close()

	uri, err := export.NewGCSUploader(client, cfg.ExportGCSBucket, logger).Upload(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	logger.Info("Workbook uploaded", "uri", uri)
	return nil
}
