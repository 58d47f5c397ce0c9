package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/paymaster/internal/domain"
	"github.com/iho/paymaster/internal/ledger"
)

func seededLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New()

	req := domain.PaymentRequirement{
		Scheme:  "exact",
		Network: "base",
		Asset:   "usdc",
		PayTo:   "0xf00d",
		Amount:  decimal.NewFromInt(500000),
	}
	if err := l.RecordAuthorization("auth-1", "agent-a", "search", req, &domain.PaymentInstrument{ID: "inst-1"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := l.UpdateStatus("auth-1", domain.EntryStatusAccepted, ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := l.RecordAuthorization("auth-2", "agent-b", "translate", req, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	return l
}

func assertRestored(t *testing.T, restored *ledger.Ledger) {
	t.Helper()
	if !restored.TotalSpent().Equal(decimal.NewFromInt(500000)) {
		t.Errorf("TotalSpent = %s, want 500000", restored.TotalSpent())
	}
	if !restored.SpentByAgent("agent-a").Equal(decimal.NewFromInt(500000)) {
		t.Errorf("SpentByAgent = %s, want 500000", restored.SpentByAgent("agent-a"))
	}
	entry, err := restored.Entry("auth-2")
	if err != nil {
		t.Fatalf("entry auth-2 missing: %v", err)
	}
	if entry.Status != domain.EntryStatusPending {
		t.Errorf("auth-2 status = %s, want pending", entry.Status)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "ledger.json"))
	l := seededLedger(t)

	if err := store.Save(ctx, l.Export()); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	restored := ledger.New()
	if err := restored.Import(doc); err != nil {
		t.Fatalf("import: %v", err)
	}
	assertRestored(t, restored)
}

func TestFileStoreMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ledger.json")
	store := NewFileStore(path)

	if err := store.Save(context.Background(), ledger.New().Export()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, "")
	l := seededLedger(t)

	if err := store.Save(ctx, l.Export()); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	restored := ledger.New()
	if err := restored.Import(doc); err != nil {
		t.Fatalf("import: %v", err)
	}
	assertRestored(t, restored)
}

func TestRedisStoreMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err := NewRedisStore(client, "custom:key").Load(context.Background())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

// flakyStore fails a fixed number of saves before succeeding.
type flakyStore struct {
	inner    Store
	failures int
	attempts int
}

func (s *flakyStore) Save(ctx context.Context, doc *ledger.Document) error {
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("transient store failure")
	}
	return s.inner.Save(ctx, doc)
}

func (s *flakyStore) Load(ctx context.Context) (*ledger.Document, error) {
	return s.inner.Load(ctx)
}

func newTestPersister(l *ledger.Ledger, store Store) *Persister {
	p := NewPersister(l, store, nil, nil, zerolog.Nop())
	p.initialInterval = time.Millisecond
	p.maxInterval = 5 * time.Millisecond
	p.maxElapsedTime = time.Second
	return p
}

func TestPersisterSaveRetriesTransientFailures(t *testing.T) {
	l := seededLedger(t)
	store := &flakyStore{inner: NewFileStore(filepath.Join(t.TempDir(), "ledger.json")), failures: 2}
	p := newTestPersister(l, store)

	if err := p.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.attempts != 3 {
		t.Fatalf("attempts = %d, want 3", store.attempts)
	}
}

func TestPersisterSaveGivesUpEventually(t *testing.T) {
	store := &flakyStore{inner: NewFileStore(filepath.Join(t.TempDir(), "ledger.json")), failures: 100}
	p := newTestPersister(ledger.New(), store)

	if err := p.Save(context.Background()); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestPersisterRestore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := NewFileStore(path)

	saver := newTestPersister(seededLedger(t), store)
	if err := saver.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := ledger.New()
	if err := newTestPersister(restored, store).Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	assertRestored(t, restored)
}

func TestPersisterRestoreWithoutSnapshot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	if err := newTestPersister(ledger.New(), store).Restore(context.Background()); err != nil {
		t.Fatalf("missing snapshot must not be an error: %v", err)
	}
}
