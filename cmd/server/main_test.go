package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/infrastructure/config"
	"github.com/iho/bobpool/internal/infrastructure/eventpublisher"
	"github.com/iho/bobpool/internal/infrastructure/idgen"
)

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{DataBackend: config.BackendMemory}

	st, err := openStore(context.Background(), cfg, idgen.NewULIDGenerator(), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.close()

	if st.outbox != nil {
		t.Fatal("memory backend should not expose an outbox")
	}
	if len(st.pingers) != 0 {
		t.Fatalf("expected no readiness probes, got %v", st.pingers)
	}

	entry, err := st.entries.Create(context.Background(), &domain.EntryDraft{
		RestaurantID:     1,
		ParticipantNames: []string{"A"},
		SpendAmount:      12000,
		Contribution:     -2000,
		Kind:             domain.KindDeposit,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sum, count, err := st.ledger.SumContributions(context.Background(), entry.RestaurantID)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if sum != -2000 || count != 1 {
		t.Fatalf("expected sum -2000 over 1 row, got %d over %d", sum, count)
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		DataBackend: config.BackendSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "nested", "bobpool.db"),
	}

	st, err := openStore(context.Background(), cfg, idgen.NewULIDGenerator(), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.close()

	probe, ok := st.pingers["sqlite"]
	if !ok {
		t.Fatal("expected sqlite readiness probe")
	}
	if err := probe.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	entries, err := st.entries.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(entries))
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := &config.Config{DataBackend: "bolt"}

	if _, err := openStore(context.Background(), cfg, idgen.NewULIDGenerator(), zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewPublisher_FallsBackToLog(t *testing.T) {
	p, closeFn, err := newPublisher(&config.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if _, ok := p.(*eventpublisher.LogPublisher); !ok {
		t.Fatalf("expected log publisher, got %T", p)
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := loadCatalog("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.List()) != 4 {
		t.Fatalf("expected embedded catalog with 4 restaurants, got %d", len(c.List()))
	}

	if _, err := loadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}
