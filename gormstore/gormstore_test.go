package gormstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sesskit/sesskit"
	"github.com/sesskit/sesskit/internal/storetest"
)

func newStoreTest(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sessions.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, db
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&session{}).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) sesskit.Store {
		store, _ := newStoreTest(t)
		return store
	})
}

func TestExpiredRecordLoadsAsAbsent(t *testing.T) {
	store, db := newStoreTest(t)
	ctx := context.Background()

	rec := storetest.NewRecord("sid-stale", time.Now().Add(-time.Minute))
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "sid-stale")
	if err != nil {
		t.Fatalf("load expired: %v", err)
	}
	if got != nil {
		t.Fatalf("expected expired record to be absent, got %#v", got)
	}
	// The row stays until the cleanup sweep runs.
	if n := countRows(t, db); n != 1 {
		t.Fatalf("expected expired row to remain, count=%d", n)
	}
}

func TestLoadCorruptRowReportsDecodeError(t *testing.T) {
	store, db := newStoreTest(t)

	row := session{ID: "sid-bad", Payload: []byte("plainly not msgpack"), ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	got, err := store.Load(context.Background(), "sid-bad")
	if !errors.Is(err, sesskit.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no record alongside error, got %#v", got)
	}
}

func TestSaveUnencodableRecordReportsEncodeError(t *testing.T) {
	store, db := newStoreTest(t)

	rec := sesskit.NewRecord("sid-chan", time.Now().Add(time.Hour))
	rec.Data["ch"] = make(chan int)

	if err := store.Save(context.Background(), rec); !errors.Is(err, sesskit.ErrEncode) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected nothing stored after encode failure, count=%d", n)
	}
}

func TestDeleteExpiredSweepsOnlyExpired(t *testing.T) {
	store, db := newStoreTest(t)
	ctx := context.Background()
	now := time.Now()

	live := storetest.NewRecord("sid-live", now.Add(time.Hour))
	stale := storetest.NewRecord("sid-stale", now.Add(time.Minute))
	for _, rec := range []*sesskit.Record{live, stale} {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.ID, err)
		}
	}

	if err := store.deleteExpired(ctx, now.Add(30*time.Minute)); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if n := countRows(t, db); n != 1 {
		t.Fatalf("expected 1 row after sweep, got %d", n)
	}
	got, err := store.Load(ctx, "sid-live")
	if err != nil {
		t.Fatalf("load survivor: %v", err)
	}
	storetest.AssertEqual(t, live, got)
}

func TestPeriodicCleanUp(t *testing.T) {
	store, db := newStoreTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := storetest.NewRecord("sid-live", time.Now().Add(time.Hour))
	stale := storetest.NewRecord("sid-stale", time.Now().Add(5*time.Millisecond))
	for _, rec := range []*sesskit.Record{live, stale} {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.ID, err)
		}
	}

	go store.PeriodicCleanUp(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for countRows(t, db) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("cleanup did not sweep expired row, count=%d", countRows(t, db))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExpiryPrecisionSurvivesRoundTrip(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	// The payload carries the authoritative expiry; column precision must
	// not leak into loaded records.
	expiry := time.Unix(1893456000, 123456789)
	rec := storetest.NewRecord("sid-precise", expiry)
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "sid-precise")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Expiry.UnixNano() != expiry.UnixNano() {
		t.Fatalf("expected %d ns, got %d ns", expiry.UnixNano(), got.Expiry.UnixNano())
	}
}
