// Package profiles implements the three-tier (dirty / pool / trusted)
// LRU of known peer profiles, with promotion and demotion between tiers.
package profiles

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/profile"
)

// Default tier capacities per the engine's documented defaults.
const (
	DefaultDirty   = 128
	DefaultPool    = 256
	DefaultTrusted = 512
)

type key = string // ed25519 public key, as a map-comparable string

func keyOf(id ed25519.PublicKey) key { return string(id) }

// Store is the three-tier profile cache. A profile lives in exactly one
// tier at a time.
type Store struct {
	dirty, pool, trusted *lru.Cache[key, *profile.Profile]
	trustedCap           int
}

// New builds a store with the given per-tier capacities.
func New(dirtyCap, poolCap, trustedCap int) *Store {
	dirty, _ := lru.New[key, *profile.Profile](dirtyCap)
	pool, _ := lru.New[key, *profile.Profile](poolCap)
	trusted, _ := lru.New[key, *profile.Profile](trustedCap)
	return &Store{dirty: dirty, pool: pool, trusted: trusted, trustedCap: trustedCap}
}

// NewDefault builds a store at the engine's default tier capacities.
func NewDefault() *Store {
	return New(DefaultDirty, DefaultPool, DefaultTrusted)
}

// Promote moves a profile pool->trusted (demoting the trusted tier's
// least-recently-used entry to pool if trusted is full) and dirty->pool.
func (s *Store) Promote(id ed25519.PublicKey) {
	k := keyOf(id)

	if p, ok := s.pool.Peek(k); ok {
		s.pool.Remove(k)
		for s.trusted.Len() >= s.trustedCap {
			evictedKey, evictedVal, ok := s.trusted.RemoveOldest()
			if !ok {
				break
			}
			s.pool.Add(evictedKey, evictedVal)
		}
		s.trusted.Add(k, p)
	}

	if p, ok := s.dirty.Peek(k); ok {
		s.dirty.Remove(k)
		s.pool.Add(k, p)
	}
}

// Demote moves a profile pool->dirty and trusted->pool.
func (s *Store) Demote(id ed25519.PublicKey) {
	k := keyOf(id)
	if p, ok := s.pool.Peek(k); ok {
		s.pool.Remove(k)
		s.dirty.Add(k, p)
		return
	}
	if p, ok := s.trusted.Peek(k); ok {
		s.trusted.Remove(k)
		s.pool.Add(k, p)
	}
}

// Put inserts p, overwriting the stored record for its id only if p is
// newer. Returns true if a pool or trusted entry was added or replaced;
// a dirty-tier entry is still replaced when p is newer, but Put reports
// false for it. A brand-new id lands in the pool tier.
func (s *Store) Put(p *profile.Profile) bool {
	k := keyOf(p.ID())

	if existing, ok := s.dirty.Peek(k); ok {
		if existing.LastUpdate() < p.LastUpdate() {
			s.dirty.Add(k, p)
		}
		return false
	}
	if existing, ok := s.trusted.Peek(k); ok {
		if existing.LastUpdate() < p.LastUpdate() {
			s.trusted.Add(k, p)
			return true
		}
		return false
	}
	if existing, ok := s.pool.Peek(k); ok {
		if existing.LastUpdate() < p.LastUpdate() {
			s.pool.Add(k, p)
			return true
		}
		return false
	}

	s.pool.Add(k, p)
	return true
}

// Get searches trusted, then pool, then dirty.
func (s *Store) Get(id ed25519.PublicKey) (*profile.Profile, bool) {
	k := keyOf(id)
	if p, ok := s.trusted.Get(k); ok {
		return p, true
	}
	if p, ok := s.pool.Get(k); ok {
		return p, true
	}
	if p, ok := s.dirty.Get(k); ok {
		return p, true
	}
	return nil, false
}
