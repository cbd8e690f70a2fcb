// Package token implements one-time, time-limited download tokens.
//
// A token is an opaque credential handed to a member in a download URL.
// It is bound to a single song or album at issuance and can be redeemed
// at most once before its TTL runs out.
package token

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minkhant/sandaya/internal/snowflake"
)

// ErrNotFound is returned by Consume for tokens that are unknown,
// already redeemed, or expired. The three cases are deliberately
// indistinguishable to the caller.
var ErrNotFound = errors.New("token not found")

// A Target is what a token redeems to: exactly one of SongID or AlbumID
// is set.
type Target struct {
	SongID  snowflake.ID
	AlbumID snowflake.ID
}

// SongTarget returns a Target for a single song.
func SongTarget(id snowflake.ID) Target {
	return Target{SongID: id}
}

// AlbumTarget returns a Target for an album folder.
func AlbumTarget(id snowflake.ID) Target {
	return Target{AlbumID: id}
}

// Album reports whether the target is an album folder.
func (t Target) Album() bool {
	return t.AlbumID != 0
}

// A Store issues and redeems one-time download tokens.
type Store interface {
	// Issue stores a fresh token for the target and returns it.
	Issue(target Target) string

	// Consume redeems a token, deleting it in the same step. A token can
	// be consumed at most once; concurrent calls on the same token yield
	// exactly one success. Expired tokens are deleted and reported as
	// ErrNotFound.
	Consume(tok string) (Target, error)
}

type record struct {
	target   Target
	issuedAt time.Time
}

// MemoryStore is an in-process Store. Outstanding tokens do not survive
// a restart, which is acceptable: members just press the button again.
type MemoryStore struct {
	songTTL  time.Duration
	albumTTL time.Duration

	mu      sync.Mutex
	records map[string]record

	now func() time.Time
}

// NewMemoryStore returns a MemoryStore with the given TTLs for song and
// album tokens.
func NewMemoryStore(songTTL, albumTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		songTTL:  songTTL,
		albumTTL: albumTTL,
		records:  make(map[string]record),
		now:      time.Now,
	}
}

func (s *MemoryStore) Issue(target Target) string {
	// 122 bits of randomness; collisions with live tokens are not checked
	// because they are negligible at this width.
	tok := uuid.New().String()
	s.mu.Lock()
	s.records[tok] = record{target: target, issuedAt: s.now()}
	s.mu.Unlock()
	return tok
}

func (s *MemoryStore) Consume(tok string) (Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[tok]
	if !ok {
		return Target{}, ErrNotFound
	}
	delete(s.records, tok)
	if s.expired(rec) {
		return Target{}, ErrNotFound
	}
	return rec.target, nil
}

// Sweep drops expired unredeemed tokens to bound memory growth. It is
// called periodically; Consume does not depend on it for correctness.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, rec := range s.records {
		if s.expired(rec) {
			delete(s.records, tok)
		}
	}
}

func (s *MemoryStore) expired(rec record) bool {
	ttl := s.songTTL
	if rec.target.Album() {
		ttl = s.albumTTL
	}
	return s.now().Sub(rec.issuedAt) > ttl
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
