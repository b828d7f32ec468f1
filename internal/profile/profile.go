// Package profile holds the in-memory projection of a peer derived from
// its most recent gossip record, plus the priority-ordered map of
// subscriptions carried by that record.
package profile

import (
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/gossip"
	"poldercast/internal/prioritymap"
	"poldercast/internal/topic"
)

func lessInterest(a, b topic.InterestLevel) bool { return a < b }

// Profile is derived entirely from a Gossip record: its latest valid
// advertisement plus a priority-ordered InterestLevel -> Topic map of
// exactly the subscriptions that record carries.
type Profile struct {
	gossip        *gossip.Gossip
	subscriptions *prioritymap.Map[topic.InterestLevel, topic.Topic]
}

// New creates the local profile for addr, signing an empty subscription
// set with id.
func New(addr address.Address, id ed25519.PrivateKey) (*Profile, error) {
	g, err := gossip.Encode(addr, id, topic.NewSubscriptions())
	if err != nil {
		return nil, err
	}
	return FromGossip(g), nil
}

// FromGossip derives a Profile from an already-validated gossip record.
func FromGossip(g *gossip.Gossip) *Profile {
	subs := prioritymap.New[topic.InterestLevel, topic.Topic](topic.MaxSubscriptions, lessInterest)
	for _, sub := range g.Subscriptions.Iter() {
		subs.Put(sub.Level, sub.Topic)
	}
	return &Profile{gossip: g, subscriptions: subs}
}

// Gossip returns the gossip record this profile was derived from.
func (p *Profile) Gossip() *gossip.Gossip { return p.gossip }

// ID returns the peer's Ed25519 public key, the canonical store key.
func (p *Profile) ID() ed25519.PublicKey { return p.gossip.ID }

// LastUpdate is the gossip record's time field, used as a version clock.
func (p *Profile) LastUpdate() uint32 { return p.gossip.Time }

// Address is the endpoint encoded in the gossip record.
func (p *Profile) Address() address.Address { return p.gossip.Address }

// ClearSubscriptions drops every tracked subscription.
func (p *Profile) ClearSubscriptions() { p.subscriptions.Clear() }

// Unsubscribe removes a single topic from the tracked subscriptions.
func (p *Profile) Unsubscribe(t topic.Topic) { p.subscriptions.Remove(t) }

// SubscriptionsMap exposes the underlying priority map for mutation by
// the owning topology (subscribe/unsubscribe) and by the Rings layer,
// which republishes each topic's interest level from its ring fill.
func (p *Profile) SubscriptionsMap() *prioritymap.Map[topic.InterestLevel, topic.Topic] {
	return p.subscriptions
}

// Subscriptions rebuilds a wire-ready Subscriptions list from the
// current priority map, in descending-interest order. Entries at
// NoInterest are left out.
func (p *Profile) Subscriptions() *topic.Subscriptions {
	out := topic.NewSubscriptions()
	for _, pair := range p.subscriptions.Iter() {
		if pair.Key.NoInterest() {
			continue
		}
		_ = out.Push(topic.NewSubscription(pair.Value, pair.Key))
	}
	return out
}

// CommitGossip re-signs a fresh gossip record from the current
// subscription set and address, replacing the stored record.
func (p *Profile) CommitGossip(addr address.Address, id ed25519.PrivateKey) (*gossip.Gossip, error) {
	g, err := gossip.Encode(addr, id, p.Subscriptions())
	if err != nil {
		return nil, err
	}
	p.gossip = g
	return g, nil
}

// Proximity is a two-field score between two profiles: priority first,
// proximity second. Ordering is lexicographic on (priority, proximity).
type Proximity struct {
	Priority  int
	Proximity int
}

// Less reports whether p sorts strictly below other.
func (p Proximity) Less(other Proximity) bool {
	if p.Priority != other.Priority {
		return p.Priority < other.Priority
	}
	return p.Proximity < other.Proximity
}

// ProximityTo scores self's subscriptions against to's: proximity counts
// shared topics, priority sums the interest-level priority score over
// those shared topics.
func (p *Profile) ProximityTo(to *Profile) Proximity {
	var prox Proximity
	for _, pair := range p.subscriptions.Iter() {
		level, topicID := pair.Key, pair.Value
		if otherLevel, ok := to.subscriptions.Get(topicID); ok {
			prox.Proximity++
			prox.Priority += level.PriorityScore(otherLevel)
		}
	}
	return prox
}

// CommonSubscriptions returns the topics both self and to subscribe to.
// Supplemental helper recovered from the original implementation's
// NodeProfile::common_subscriptions, used by the Rings layer to pick the
// topics it gossips ring neighbors for.
func (p *Profile) CommonSubscriptions(to *Profile) []topic.Topic {
	var common []topic.Topic
	for _, pair := range p.subscriptions.Iter() {
		if to.subscriptions.Contains(pair.Value) {
			common = append(common, pair.Value)
		}
	}
	return common
}
