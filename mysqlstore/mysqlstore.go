// Package mysqlstore persists session records in a MySQL (or MariaDB)
// table using database/sql.
//
// Records are stored in their encoded form. The expires_at column mirrors
// the deadline inside the payload so that SQL can filter dead rows and the
// cleanup sweep can delete them, but the payload stays authoritative.
package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sesskit/sesskit"
)

// The id column is VARCHAR(191) so the primary key fits within the index
// limit of older utf8mb4 InnoDB configurations. DATETIME(6) keeps
// microsecond precision without TIMESTAMP's 2038 range cutoff.
const createTableStmt = `
CREATE TABLE IF NOT EXISTS sessions (
	id VARCHAR(191) COLLATE utf8mb4_bin PRIMARY KEY,
	payload BLOB NOT NULL,
	expires_at DATETIME(6) NOT NULL,
	INDEX sessions_expires_at_idx (expires_at)
)`

// Store persists session records in a sessions table.
type Store struct {
	db    *sql.DB
	codec sesskit.Codec
}

var _ sesskit.Store = (*Store)(nil)

// New creates the sessions table if it does not exist and returns a store
// backed by db. The *sql.DB pool remains owned by the caller.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return &Store{db: db, codec: sesskit.MsgpackCodec{}}, nil
}

// Save writes rec, replacing any row that shares its ID.
//
//	Performance: 1 INSERT ... ON DUPLICATE KEY UPDATE.
func (s *Store) Save(ctx context.Context, rec *sesskit.Record) error {
	payload, err := s.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrEncode, err)
	}
	// The column is compared against UTC_TIMESTAMP(6), so the deadline is
	// stored in UTC. The driver drops the zone when formatting DATETIME.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, payload, expires_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), expires_at = VALUES(expires_at)`,
		rec.ID, payload, rec.Expiry.UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return nil
}

// Load returns the record stored under id, or (nil, nil) when the row is
// missing or already past its deadline.
//
//	Performance: 1 SELECT by primary key.
func (s *Store) Load(ctx context.Context, id string) (*sesskit.Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM sessions
		WHERE id = ? AND expires_at >= UTC_TIMESTAMP(6)`,
		id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	rec, err := s.codec.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrDecode, err)
	}
	return rec, nil
}

// Delete removes the row stored under id. Deleting an absent id is not an
// error.
//
//	Performance: 1 DELETE by primary key.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return nil
}

// PeriodicCleanUp deletes expired rows every interval until ctx is
// cancelled. Load already hides expired rows, so the sweep only reclaims
// disk space and index entries.
func (s *Store) PeriodicCleanUp(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.deleteExpired(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Store) deleteExpired(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < UTC_TIMESTAMP(6)`); err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return nil
}
