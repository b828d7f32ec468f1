// Package nodes implements the membership store: a capacity-bounded LRU
// of full per-peer records plus three disjoint lifecycle buckets
// (available / unreachable / quarantined), mutated only through an
// entry-style API that re-runs the Policy after every change.
package nodes

import (
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/ed25519"
)

type key = string

func keyOf(id ed25519.PublicKey) key { return string(id) }

type bucket int

const (
	bucketNone bucket = iota
	bucketAvailable
	bucketUnreachable
	bucketQuarantined
)

// Store is the membership store.
type Store struct {
	cache   *lru.Cache[key, *Node]
	buckets map[key]bucket

	available   map[key]struct{}
	unreachable map[key]struct{}
	quarantined map[key]struct{}
}

// New builds a store bounded at capacity peers.
func New(capacity int) *Store {
	s := &Store{
		buckets:     make(map[key]bucket, capacity),
		available:   make(map[key]struct{}),
		unreachable: make(map[key]struct{}),
		quarantined: make(map[key]struct{}),
	}
	cache, _ := lru.NewWithEvict[key, *Node](capacity, s.onEvict)
	s.cache = cache
	return s
}

func (s *Store) onEvict(k key, _ *Node) {
	s.unbucket(k)
}

func (s *Store) unbucket(k key) {
	switch s.buckets[k] {
	case bucketAvailable:
		delete(s.available, k)
	case bucketUnreachable:
		delete(s.unreachable, k)
	case bucketQuarantined:
		delete(s.quarantined, k)
	}
	delete(s.buckets, k)
}

func (s *Store) bucketize(k key, n *Node) {
	s.unbucket(k)
	var b bucket
	var set map[key]struct{}
	switch {
	case n.isQuarantined():
		b, set = bucketQuarantined, s.quarantined
	case n.Discoverable():
		b, set = bucketAvailable, s.available
	default:
		b, set = bucketUnreachable, s.unreachable
	}
	set[k] = struct{}{}
	s.buckets[k] = b
}

func (n *Node) isQuarantined() bool {
	_, ok := n.Logs.Quarantined()
	return ok
}

// Len is the number of peers currently held.
func (s *Store) Len() int { return s.cache.Len() }

// Get returns a peer's node, counting as a touch (LRU-refreshing) read.
func (s *Store) Get(id ed25519.PublicKey) (*Node, bool) {
	return s.cache.Get(keyOf(id))
}

// Peek returns a peer's node without affecting LRU recency.
func (s *Store) Peek(id ed25519.PublicKey) (*Node, bool) {
	return s.cache.Peek(keyOf(id))
}

// Remove deletes a peer outright.
func (s *Store) Remove(id ed25519.PublicKey) {
	k := keyOf(id)
	s.cache.Remove(k)
	s.unbucket(k)
}

// Available, Unreachable and Quarantined return the ids currently in
// each lifecycle bucket.
func (s *Store) Available() []ed25519.PublicKey   { return s.idsOf(s.available) }
func (s *Store) Unreachable() []ed25519.PublicKey { return s.idsOf(s.unreachable) }
func (s *Store) Quarantined() []ed25519.PublicKey { return s.idsOf(s.quarantined) }

func (s *Store) idsOf(set map[key]struct{}) []ed25519.PublicKey {
	out := make([]ed25519.PublicKey, 0, len(set))
	for k := range set {
		out = append(out, ed25519.PublicKey(k))
	}
	return out
}

// ErrKeyMismatch is returned by VacantEntry.Insert when the supplied
// node's id does not match the entry's key.
var ErrKeyMismatch = errors.New("nodes: node id does not match entry key")

// VacantEntry is returned by Entry when no node exists yet for the id.
type VacantEntry struct {
	store *Store
	id    ed25519.PublicKey
}

// Insert places node in the store and classifies it into the
// appropriate lifecycle bucket.
func (v VacantEntry) Insert(n *Node) error {
	if keyOf(n.ID()) != keyOf(v.id) {
		return ErrKeyMismatch
	}
	k := keyOf(v.id)
	v.store.cache.Add(k, n)
	v.store.bucketize(k, n)
	return nil
}

// OccupiedEntry is returned by Entry when a node already exists for the
// id.
type OccupiedEntry struct {
	store *Store
	id    ed25519.PublicKey
	node  *Node
}

// Node returns the current record without mutating it.
func (o OccupiedEntry) Node() *Node { return o.node }

// Modify applies f to the occupied node, re-runs the policy, and
// atomically reclassifies the peer based on the resulting report and any
// change in address discoverability. A ReportForget removes the node
// entirely.
func (o OccupiedEntry) Modify(policy Policy, now time.Time, f func(*Node)) PolicyReport {
	f(o.node)

	report := policy.Check(o.node, now)
	switch report {
	case ReportQuarantine:
		o.node.Logs.Quarantine(now)
	case ReportLiftQuarantine:
		o.node.Logs.LiftQuarantine()
	case ReportForget:
		o.store.Remove(o.id)
		return report
	}

	k := keyOf(o.id)
	o.store.bucketize(k, o.node)
	return report
}

// Entry looks up id and returns exactly one of (occupied, vacant).
func (s *Store) Entry(id ed25519.PublicKey) (*OccupiedEntry, *VacantEntry) {
	if n, ok := s.cache.Peek(keyOf(id)); ok {
		return &OccupiedEntry{store: s, id: id, node: n}, nil
	}
	return nil, &VacantEntry{store: s, id: id}
}

// Reset walks every peer, re-runs the policy, and applies the resulting
// reports in one pass. This is the only way peers are bulk-pruned.
func (s *Store) Reset(policy Policy, now time.Time) {
	ids := make([]ed25519.PublicKey, 0, s.cache.Len())
	for _, k := range s.cache.Keys() {
		ids = append(ids, ed25519.PublicKey(k))
	}
	for _, id := range ids {
		occ, _ := s.Entry(id)
		if occ == nil {
			continue
		}
		occ.Modify(policy, now, func(*Node) {})
	}
}
