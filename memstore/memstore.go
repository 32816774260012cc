// Package memstore provides an in-memory session store.
//
// Records are held in their encoded form, so saved state is isolated from
// later mutations of the caller's record and the store behaves exactly like
// a persistent backend, including encode and decode failure classification.
//
// The store is suitable for single-process applications and tests. It is
// not persistent and does not share state across processes.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sesskit/sesskit"
)

type entry struct {
	payload []byte
	expiry  time.Time
}

// Store is an in-memory session store. It is safe for concurrent use by
// multiple goroutines.
type Store struct {
	mu      sync.RWMutex
	codec   sesskit.Codec
	records map[string]entry
}

var _ sesskit.Store = (*Store)(nil)

// New creates an empty in-memory session store.
func New() *Store {
	return &Store{
		codec:   sesskit.MsgpackCodec{},
		records: make(map[string]entry),
	}
}

// Save stores the encoded record under its ID, replacing any previous entry.
func (s *Store) Save(ctx context.Context, rec *sesskit.Record) error {
	payload, err := s.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrEncode, err)
	}

	s.mu.Lock()
	s.records[rec.ID] = entry{payload: payload, expiry: rec.Expiry}
	s.mu.Unlock()
	return nil
}

// Load returns the record stored under id, or (nil, nil) when the entry is
// absent or its expiry has passed. Expired entries are evicted on read.
func (s *Store) Load(ctx context.Context, id string) (*sesskit.Record, error) {
	s.mu.RLock()
	e, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(e.expiry) {
		s.evictIfUnchanged(id, e.expiry)
		return nil, nil
	}

	rec, err := s.codec.Decode(e.payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrDecode, err)
	}
	return rec, nil
}

// Delete removes the entry stored under id. Deleting an absent entry is a
// no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// Count returns the number of entries currently held, expired or not.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// PeriodicCleanUp deletes expired entries every interval until ctx is done.
// Run it on its own goroutine:
//
//	go store.PeriodicCleanUp(ctx, time.Minute)
func (s *Store) PeriodicCleanUp(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (s *Store) deleteExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.records {
		if now.After(e.expiry) {
			delete(s.records, id)
		}
	}
}

// evictIfUnchanged drops the entry only if it still carries the expiry the
// reader observed. A concurrent overwrite wins.
func (s *Store) evictIfUnchanged(id string, seen time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.records[id]; ok && e.expiry.Equal(seen) {
		delete(s.records, id)
	}
}
