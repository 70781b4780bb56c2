package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dealtracker/internal/ledger"
	applog "dealtracker/internal/log"
	"dealtracker/internal/sheets"
)

// MirrorConfig holds configuration for the mirror processor
type MirrorConfig struct {
	// Interval between copies when running continuously (default: 5m)
	Interval time.Duration
	// Tables to copy, in order (default: Deals then Transactions)
	Tables []string
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		Interval: 5 * time.Minute,
		Tables:   []string{sheets.TableDeals, sheets.TableTransactions},
	}
}

// MirrorResult counts the rows copied per table in one pass.
type MirrorResult map[string]int

// MirrorProcessor copies whole tables from a source ledger into a
// destination ledger, e.g. a local SQLite book into the shared spreadsheet.
type MirrorProcessor struct {
	source *ledger.Ledger
	dest   *ledger.Ledger
	config MirrorConfig
	logger *applog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorProcessor(source, dest *ledger.Ledger, config MirrorConfig, logger *applog.Logger) *MirrorProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultMirrorConfig().Interval
	}
	if len(config.Tables) == 0 {
		config.Tables = DefaultMirrorConfig().Tables
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &MirrorProcessor{
		source: source,
		dest:   dest,
		config: config,
		logger: logger.WithComponent(applog.ComponentMirror),
	}
}

// RunOnce copies every configured table. All source tables are read
// before anything is written, so a failing read leaves the destination
// untouched.
func (p *MirrorProcessor) RunOnce(ctx context.Context) (MirrorResult, error) {
	snapshot := make(map[string][]sheets.Record, len(p.config.Tables))
	for _, table := range p.config.Tables {
		recs, err := p.source.LoadRecords(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("read %s from source: %w", table, err)
		}
		snapshot[table] = recs
	}

	result := MirrorResult{}
	for _, table := range p.config.Tables {
		if err := p.dest.ReplaceTable(ctx, table, snapshot[table]); err != nil {
			return result, fmt.Errorf("write %s to destination: %w", table, err)
		}
		result[table] = len(snapshot[table])
		p.logger.InfoContext(ctx, "Table mirrored", applog.FieldTable, table, applog.FieldRows, len(snapshot[table]))
	}
	return result, nil
}

// Start begins the copy loop. Returns an error if already running.
func (p *MirrorProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Mirror processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for the current pass.
func (p *MirrorProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Mirror processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Mirror processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *MirrorProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *MirrorProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.pass(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pass(ctx)
		}
	}
}

func (p *MirrorProcessor) pass(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Mirror pass failed", applog.FieldError, err)
	}
}
