package sesskit

import (
	"testing"
	"time"
)

func TestNewRecordAllocatesData(t *testing.T) {
	rec := NewRecord("sid-1", time.Unix(1700003600, 0))
	if rec.ID != "sid-1" {
		t.Fatalf("expected id %q, got %q", "sid-1", rec.ID)
	}
	if rec.Data == nil {
		t.Fatal("expected allocated data map")
	}
	rec.Data["user_id"] = "u-1"
	if !rec.Expiry.Equal(time.Unix(1700003600, 0)) {
		t.Fatalf("unexpected expiry %v", rec.Expiry)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("expected non-empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
