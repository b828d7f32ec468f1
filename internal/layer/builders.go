// Package layer implements the three topology layers (Cyclon, Vicinity,
// Rings) and the thin collector objects they fill in: ViewBuilder and
// GossipsBuilder.
package layer

import (
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/gossip"
	"poldercast/internal/nodes"
	"poldercast/internal/profile"
	"poldercast/internal/profiles"
	"poldercast/internal/topic"
)

type key = string

func keyOf(id ed25519.PublicKey) key { return string(id) }

// Selection picks which ring slots (and, for View, which kind of peers)
// a builder collects: every peer, or only those relevant to one topic.
type Selection struct {
	topic *topic.Topic
}

// Any selects without regard to topic.
func Any() Selection { return Selection{} }

// ForTopic restricts a selection to a single topic's neighborhood.
func ForTopic(t topic.Topic) Selection { return Selection{topic: &t} }

// Topic returns the selected topic, if any.
func (s Selection) Topic() (topic.Topic, bool) {
	if s.topic == nil {
		return topic.Topic{}, false
	}
	return *s.topic, true
}

// PeerInfo is a resolved, addressable peer: the id plus the profile it
// was current for at collection time.
type PeerInfo struct {
	ID      ed25519.PublicKey
	Profile *profile.Profile
}

// ViewBuilder accumulates the set of peers layers propose contacting in
// the next round.
type ViewBuilder struct {
	selection Selection
	origin    *ed25519.PublicKey

	order []ed25519.PublicKey
	seen  map[key]struct{}
}

// NewViewBuilder starts a fresh collector for the given selection.
func NewViewBuilder(selection Selection) *ViewBuilder {
	return &ViewBuilder{selection: selection, seen: make(map[key]struct{})}
}

// WithOrigin records the peer that triggered this view request, letting
// Rings suppress back-propagation toward it.
func (b *ViewBuilder) WithOrigin(origin ed25519.PublicKey) *ViewBuilder {
	o := append(ed25519.PublicKey(nil), origin...)
	b.origin = &o
	return b
}

// Origin returns the triggering peer, if one was set.
func (b *ViewBuilder) Origin() (ed25519.PublicKey, bool) {
	if b.origin == nil {
		return nil, false
	}
	return *b.origin, true
}

// Selection returns the selection this builder was constructed with.
func (b *ViewBuilder) Selection() Selection { return b.selection }

// Add places a peer in the view. While the selection targets a specific
// topic, adding a node stamps last_use_of(topic) on its logs.
func (b *ViewBuilder) Add(id ed25519.PublicKey, allNodes *nodes.Store) {
	k := keyOf(id)
	if _, ok := b.seen[k]; ok {
		return
	}
	b.seen[k] = struct{}{}
	b.order = append(b.order, id)

	if t, ok := b.selection.Topic(); ok {
		if n, ok := allNodes.Peek(id); ok {
			n.Logs.UseOf(t, n.Logs.LastUpdate())
		}
	}
}

// Build resolves the accumulated ids against the membership store and
// returns deduplicated peer infos, in insertion order.
func (b *ViewBuilder) Build(allNodes *nodes.Store) []PeerInfo {
	out := make([]PeerInfo, 0, len(b.order))
	for _, id := range b.order {
		n, ok := allNodes.Peek(id)
		if !ok {
			continue
		}
		out = append(out, PeerInfo{ID: id, Profile: n.Profile})
	}
	return out
}

// GossipsBuilder accumulates the set of peer profiles to ship to a
// chosen recipient.
type GossipsBuilder struct {
	recipient ed25519.PublicKey

	order []ed25519.PublicKey
	seen  map[key]struct{}
}

// NewGossipsBuilder starts a fresh collector addressed to recipient.
func NewGossipsBuilder(recipient ed25519.PublicKey) *GossipsBuilder {
	return &GossipsBuilder{recipient: recipient, seen: make(map[key]struct{})}
}

// Recipient returns who this gossip set is addressed to.
func (b *GossipsBuilder) Recipient() ed25519.PublicKey { return b.recipient }

// Add places a peer id in the outgoing set.
func (b *GossipsBuilder) Add(id ed25519.PublicKey) {
	k := keyOf(id)
	if _, ok := b.seen[k]; ok {
		return
	}
	b.seen[k] = struct{}{}
	b.order = append(b.order, id)
}

// Gossips is the outgoing set a GossipsBuilder resolves to: every picked
// peer's latest gossip record plus the local one. A small named type
// rather than a bare slice, so hosts can log a count without reaching
// into the records themselves.
type Gossips struct {
	records []*gossip.Gossip
}

// NewGossips wraps a batch of decoded wire records, e.g. ones the host
// just read off a transport, as the type accept_gossips expects.
func NewGossips(records []*gossip.Gossip) Gossips {
	return Gossips{records: records}
}

// Len is the number of records in the set.
func (g Gossips) Len() int { return len(g.records) }

// Records returns the underlying gossip records, local profile last.
func (g Gossips) Records() []*gossip.Gossip { return g.records }

// Build resolves every accumulated id to its latest gossip record and
// appends the local profile's record unconditionally, so the recipient
// always learns about us regardless of what the layers picked. A peer
// present in the trust-tiered profiles store (promoted by prior
// successful exchanges) resolves from there first, the same lookup
// order the original implementation's gossips_for uses against its own
// Profiles cache; the membership store is the fallback for peers the
// profiles store hasn't caught up with yet. profilesStore may be nil,
// in which case resolution falls back to allNodes unconditionally.
func (b *GossipsBuilder) Build(local *profile.Profile, allNodes *nodes.Store, profilesStore *profiles.Store) Gossips {
	out := make([]*gossip.Gossip, 0, len(b.order)+1)
	for _, id := range b.order {
		if keyOf(id) == keyOf(local.ID()) {
			continue
		}
		if profilesStore != nil {
			if p, ok := profilesStore.Get(id); ok {
				out = append(out, p.Gossip())
				continue
			}
		}
		n, ok := allNodes.Peek(id)
		if !ok {
			continue
		}
		out = append(out, n.Profile.Gossip())
	}
	out = append(out, local.Gossip())
	return Gossips{records: out}
}

// Layer is the common shape every topology layer implements.
type Layer interface {
	Name() string
	Reset()
	Populate(selfProfile *profile.Profile, allNodes *nodes.Store)
	View(builder *ViewBuilder, allNodes *nodes.Store)
	Gossips(selfProfile *profile.Profile, builder *GossipsBuilder, allNodes *nodes.Store)
}
