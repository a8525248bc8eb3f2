package session

import (
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"tikdl.local/internal/app/tiktok/viewstate"
)

const CookieName = "tikdl_sid"

var ErrStoreClosed = errors.New("session store closed")

// Factory builds the controller for a new visitor.
type Factory func() *viewstate.Controller

// Store keeps one controller per visitor in memory. Entries expire after ttl
// without access; an expired or evicted visitor starts over in idle.
type Store struct {
	cache   *ristretto.Cache
	ttl     time.Duration
	factory Factory

	mu     sync.Mutex // serializes get-or-create
	closed bool
}

func NewStore(maxEntries int64, ttl time.Duration, factory Factory) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries, // cost 1 per visitor
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item) {
			// stop any lookup the visitor left running
			if c, ok := item.Value.(*viewstate.Controller); ok {
				c.Reset()
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, ttl: ttl, factory: factory}, nil
}

// get returns the controller for sid and refreshes its ttl.
func (s *Store) get(sid string) (*viewstate.Controller, bool) {
	if !ValidID(sid) {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	return s.getLocked(sid)
}

// Resolve returns the controller for sid, creating a new visitor when sid is
// unknown or malformed. The returned id is the one to hand back in the cookie.
func (s *Store) Resolve(sid string) (*viewstate.Controller, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, "", ErrStoreClosed
	}
	if ValidID(sid) {
		if c, ok := s.getLocked(sid); ok {
			return c, sid, nil
		}
	}

	id, err := NewID()
	if err != nil {
		return nil, "", err
	}
	c := s.factory()
	s.cache.SetWithTTL(id, c, 1, s.ttl)
	s.cache.Wait()
	return c, id, nil
}

// remove drops sid and stops its lookup.
func (s *Store) remove(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if c, ok := s.cache.Get(sid); ok {
		c.(*viewstate.Controller).Reset()
	}
	s.cache.Del(sid)
	s.cache.Wait()
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cache.Close()
}

func (s *Store) getLocked(sid string) (*viewstate.Controller, bool) {
	v, ok := s.cache.Get(sid)
	if !ok {
		return nil, false
	}
	c := v.(*viewstate.Controller)
	s.cache.SetWithTTL(sid, c, 1, s.ttl)
	return c, true
}

// NewID returns a random v4 UUID as 32 hex chars, no dashes.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(u[:]), nil
}

// ValidID reports whether sid has the shape NewID produces.
func ValidID(sid string) bool {
	if len(sid) != 32 {
		return false
	}
	_, err := uuid.Parse(sid)
	return err == nil
}
