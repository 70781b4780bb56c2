package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealtracker/internal/sheets"
	"dealtracker/internal/sheets/memory"
)

func TestMirrorRunOnceCopiesTables(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	_ = src.Append(ctx, sheets.TableDeals, sheets.Record{sheets.ColDealID: 1, sheets.ColParty: "Acme"})
	_ = src.Append(ctx, sheets.TableDeals, sheets.Record{sheets.ColDealID: 2, sheets.ColParty: "Globex"})
	_ = src.Append(ctx, sheets.TableTransactions, sheets.Record{sheets.ColDealID: 1})

	dst := memory.New()
	_ = dst.Append(ctx, sheets.TableDeals, sheets.Record{sheets.ColDealID: 99})

	p := NewMirrorProcessor(newLedger(src), newLedger(dst), MirrorConfig{}, nil)
	res, err := p.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res[sheets.TableDeals] != 2 || res[sheets.TableTransactions] != 1 {
		t.Fatalf("result = %v", res)
	}
	rows, _ := dst.Load(ctx, sheets.TableDeals)
	if len(rows) != 2 || rows[1][sheets.ColParty] != "Globex" {
		t.Fatalf("destination deals = %v", rows)
	}
}

func TestMirrorReadFailureLeavesDestination(t *testing.T) {
	ctx := context.Background()
	dst := memory.New()
	_ = dst.Append(ctx, sheets.TableDeals, sheets.Record{sheets.ColDealID: 99})

	p := NewMirrorProcessor(newLedger(failingStore{}), newLedger(dst), DefaultMirrorConfig(), nil)
	if _, err := p.RunOnce(ctx); !errors.Is(err, sheets.ErrStoreNotFound) {
		t.Fatalf("expected source error, got %v", err)
	}
	rows, _ := dst.Load(ctx, sheets.TableDeals)
	if len(rows) != 1 {
		t.Fatalf("destination modified after failed read: %v", rows)
	}
}

func TestMirrorLifecycle(t *testing.T) {
	p := NewMirrorProcessor(newLedger(memory.New()), newLedger(memory.New()), MirrorConfig{Interval: 10 * time.Millisecond}, nil)
	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop when not running: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error when starting twice")
	}
	time.Sleep(30 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("processor still running after Stop")
	}
}
