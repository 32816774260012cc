// Package storetest holds the conformance suite for session store backends.
// Every adapter's tests call [Run] against a fresh store so the
// save/load/delete contract stays identical across backends.
package storetest

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sesskit/sesskit"
)

// NewRecord returns a record populated with one value of every type the
// codec round-trips losslessly.
func NewRecord(id string, expiry time.Time) *sesskit.Record {
	rec := sesskit.NewRecord(id, expiry)
	rec.Data["user_id"] = "u-1"
	rec.Data["visits"] = int64(42)
	rec.Data["ratio"] = 0.25
	rec.Data["admin"] = true
	rec.Data["roles"] = []any{"reader", "writer"}
	rec.Data["prefs"] = map[string]any{"theme": "dark", "pages": int64(3)}
	return rec
}

// AssertEqual fails the test unless got carries the same id, data, and
// expiry instant as want.
func AssertEqual(t testing.TB, want, got *sesskit.Record) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected record %q, got none", want.ID)
	}
	if got.ID != want.ID {
		t.Fatalf("expected id %q, got %q", want.ID, got.ID)
	}
	if !got.Expiry.Equal(want.Expiry) {
		t.Fatalf("expected expiry %v, got %v", want.Expiry, got.Expiry)
	}
	if !reflect.DeepEqual(got.Data, want.Data) {
		t.Fatalf("expected data %#v, got %#v", want.Data, got.Data)
	}
}

// Run exercises the contract every backend must satisfy. factory is called
// once per subtest and must return an empty store. Expiration behavior is
// clock-dependent and stays in each backend's own tests.
func Run(t *testing.T, factory func(t *testing.T) sesskit.Store) {
	t.Run("SaveThenLoad", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		rec := NewRecord(sesskit.NewID(), time.Now().Add(time.Hour))

		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := store.Load(ctx, rec.ID)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		AssertEqual(t, rec, got)
	})

	t.Run("LoadMissing", func(t *testing.T) {
		store := factory(t)
		got, err := store.Load(context.Background(), "no-such-session")
		if err != nil {
			t.Fatalf("load missing: %v", err)
		}
		if got != nil {
			t.Fatalf("expected no record, got %#v", got)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		id := sesskit.NewID()

		first := NewRecord(id, time.Now().Add(time.Hour))
		if err := store.Save(ctx, first); err != nil {
			t.Fatalf("save first: %v", err)
		}

		second := sesskit.NewRecord(id, time.Now().Add(2*time.Hour))
		second.Data["user_id"] = "u-2"
		if err := store.Save(ctx, second); err != nil {
			t.Fatalf("save second: %v", err)
		}

		got, err := store.Load(ctx, id)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		AssertEqual(t, second, got)
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		rec := NewRecord(sesskit.NewID(), time.Now().Add(time.Hour))

		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := store.Delete(ctx, rec.ID); err != nil {
			t.Fatalf("first delete: %v", err)
		}
		if err := store.Delete(ctx, rec.ID); err != nil {
			t.Fatalf("second delete: %v", err)
		}
		if err := store.Delete(ctx, "never-existed"); err != nil {
			t.Fatalf("delete absent: %v", err)
		}

		got, err := store.Load(ctx, rec.ID)
		if err != nil {
			t.Fatalf("load after delete: %v", err)
		}
		if got != nil {
			t.Fatalf("expected record gone, got %#v", got)
		}
	})
}
