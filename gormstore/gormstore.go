// Package gormstore provides a session store backed by any GORM-supported
// SQL database.
//
// Records live in a sessions table created on construction. The expires_at
// column mirrors the record's expiry so SQL can filter dead rows and
// [Store.PeriodicCleanUp] can sweep them; the authoritative expiry rides
// inside the encoded payload.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sesskit/sesskit"
)

// session is a single stored record.
type session struct {
	ID        string `gorm:"primaryKey;type:varchar(191)"`
	Payload   []byte
	ExpiresAt time.Time `gorm:"index"`
}

// Store persists session records through a *gorm.DB handle.
type Store struct {
	db    *gorm.DB
	codec sesskit.Codec
}

var _ sesskit.Store = (*Store)(nil)

// New creates a GORM-backed session store. The sessions table is created if
// it does not exist.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&session{}); err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return &Store{db: db, codec: sesskit.MsgpackCodec{}}, nil
}

// Save upserts the record row, replacing payload and expiry on conflict.
func (s *Store) Save(ctx context.Context, rec *sesskit.Record) error {
	payload, err := s.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrEncode, err)
	}

	row := session{ID: rec.ID, Payload: payload, ExpiresAt: rec.Expiry}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at"}),
	}).Create(&row)
	if tx.Error != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, tx.Error)
	}
	return nil
}

// Load returns the record stored under id, or (nil, nil) when the row is
// absent or expired. Expired rows stay in the table until swept.
func (s *Store) Load(ctx context.Context, id string) (*sesskit.Record, error) {
	var row session
	tx := s.db.WithContext(ctx).
		Where("id = ? AND expires_at >= ?", id, time.Now()).
		Limit(1).
		Find(&row)
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrBackend, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, nil
	}

	rec, err := s.codec.Decode(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrDecode, err)
	}
	return rec, nil
}

// Delete removes the record row. Deleting an absent row is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Delete(&session{}, "id = ?", id)
	if tx.Error != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, tx.Error)
	}
	return nil
}

// PeriodicCleanUp deletes expired rows every interval until ctx is done.
// Run it on its own goroutine:
//
//	go store.PeriodicCleanUp(ctx, time.Hour)
func (s *Store) PeriodicCleanUp(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.deleteExpired(ctx, time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (s *Store) deleteExpired(ctx context.Context, now time.Time) error {
	tx := s.db.WithContext(ctx).Delete(&session{}, "expires_at < ?", now)
	if tx.Error != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, tx.Error)
	}
	return nil
}
