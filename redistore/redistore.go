package redistore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sesskit/sesskit"
)

// KeyPrefix is prepended to every record ID to form its Redis key. The
// prefix matches the keyspace used by the tower-sessions family of stores,
// so records written here are readable by other processes sharing that
// layout, and vice versa.
const KeyPrefix = "tower_session:"

// Store persists session records in Redis. Every operation is exactly one
// Redis command; there are no retries, no timeouts, and no caching beyond
// what the client itself is configured to do.
type Store struct {
	client redis.UniversalClient
	codec  sesskit.Codec
}

var _ sesskit.Store = (*Store)(nil)

// New creates a session [Store] backed by the given Redis client. Clients
// are cheap to share; the store never closes them.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client, codec: sesskit.MsgpackCodec{}}
}

func (s *Store) key(id string) string {
	return KeyPrefix + id
}

// Save writes the record under its key, replacing any previous value and
// deadline.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, rec *sesskit.Record) error {
	payload, err := s.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrEncode, err)
	}

	// EXAT ships the expiry as an absolute unix timestamp, sent on every
	// save without inspection. A deadline the backend considers invalid or
	// already passed is the backend's to reject or enforce, not ours.
	err = s.client.Do(ctx, "set", s.key(rec.ID), payload, "exat", rec.Expiry.Unix()).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return nil
}

// Load fetches the record stored under id. A missing or expired key returns
// (nil, nil); a payload that exists but does not decode returns
// [sesskit.ErrDecode].
//
//	Performance: 1 Redis GET.
func (s *Store) Load(ctx context.Context, id string) (*sesskit.Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}

	rec, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sesskit.ErrDecode, err)
	}
	return rec, nil
}

// Delete removes the record stored under id. Deleting an absent record is
// not an error.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", sesskit.ErrBackend, err)
	}
	return nil
}
