// Package filestore provides a session store backed by one file per record.
//
// Records are written atomically (temporary file plus rename), so readers
// never observe a torn write. Expired records are dropped lazily on read and
// swept by [Store.PeriodicCleanUp]. The store suits single-host deployments
// that want sessions to survive restarts without running a database.
package filestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sesskit/sesskit"
)

const recordExt = ".session"

// Store persists each session record as a file under a base directory.
// Record IDs are base64url-encoded to form file names, so arbitrary IDs,
// including ones containing path separators, stay confined to the directory.
type Store struct {
	dir   string
	codec sesskit.Codec
}

var _ sesskit.Store = (*Store)(nil)

// New creates a file-backed session store rooted at dir, creating the
// directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return &Store{dir: dir, codec: sesskit.MsgpackCodec{}}, nil
}

func (s *Store) path(id string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(id))
	return filepath.Join(s.dir, name+recordExt)
}

// Save writes the encoded record to a temporary file and renames it into
// place, replacing any previous record under the same ID.
func (s *Store) Save(ctx context.Context, rec *sesskit.Record) error {
	payload, err := s.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrEncode, err)
	}

	tmp, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	if err := os.Rename(tmp.Name(), s.path(rec.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return nil
}

// Load reads the record stored under id. Missing files and records whose
// expiry has passed return (nil, nil); expired files are removed lazily.
func (s *Store) Load(ctx context.Context, id string) (*sesskit.Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}

	rec, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrDecode, err)
	}
	if time.Now().After(rec.Expiry) {
		_ = os.Remove(s.path(id))
		return nil, nil
	}
	return rec, nil
}

// Delete removes the record file. Deleting an absent record is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return nil
}

// PeriodicCleanUp deletes expired record files every interval until ctx is
// done. Run it on its own goroutine:
//
//	go store.PeriodicCleanUp(ctx, time.Hour)
func (s *Store) PeriodicCleanUp(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.deleteExpired(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// deleteExpired removes record files whose expiry has passed. Files that
// fail to read or decode are left in place for Load to classify.
func (s *Store) deleteExpired(now time.Time) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		rec, err := s.codec.Decode(data)
		if err != nil {
			continue
		}
		if now.After(rec.Expiry) {
			_ = os.Remove(path)
		}
	}
	return nil
}
