package layer

import (
	"sort"

	"golang.org/x/crypto/ed25519"

	"poldercast/internal/nodes"
	"poldercast/internal/profile"
	"poldercast/internal/topic"
)

// RingsMaxViewSize bounds each topic's ring to its two nearest
// predecessors plus its two nearest successors.
const RingsMaxViewSize = 4

type ringSlots struct {
	predecessors []ed25519.PublicKey // closest first (largest id below local)
	successors   []ed25519.PublicKey // closest first (smallest id above local)
}

func (s ringSlots) filled() int { return len(s.predecessors) + len(s.successors) }

// Rings maintains, for every topic the local peer subscribes to, the up
// to two nearest predecessors and two nearest successors among peers
// that also subscribe to that topic. The emptier a ring, the higher the
// interest level Rings republishes for that topic in the local profile.
type Rings struct {
	self    ed25519.PublicKey
	byTopic map[topic.Topic]ringSlots
}

// NewRings builds an empty Rings layer.
func NewRings() *Rings {
	return &Rings{byTopic: make(map[topic.Topic]ringSlots)}
}

func (r *Rings) Name() string { return "rings" }

func (r *Rings) Reset() {
	r.byTopic = make(map[topic.Topic]ringSlots)
}

// Populate rebuilds every topic's ring by walking the membership in id
// order from the local id, then republishes each topic's interest level
// based on how full its ring ended up.
func (r *Rings) Populate(selfProfile *profile.Profile, allNodes *nodes.Store) {
	r.self = selfProfile.ID()
	r.byTopic = make(map[topic.Topic]ringSlots)

	for _, pair := range selfProfile.SubscriptionsMap().Iter() {
		t := pair.Value
		slots := r.ringFor(t, r.self, allPeers(allNodes), allNodes)
		r.byTopic[t] = slots

		level := topic.InterestLevel((RingsMaxViewSize - slots.filled()) * (255 / RingsMaxViewSize))
		selfProfile.Unsubscribe(t)
		selfProfile.SubscriptionsMap().Put(level, t)
	}
}

// ringFor computes the predecessor/successor slots for topic t around
// center, restricted to candidates (excluding center itself) that also
// subscribe to t.
func (r *Rings) ringFor(t topic.Topic, center ed25519.PublicKey, candidates []ed25519.PublicKey, allNodes *nodes.Store) ringSlots {
	var lower, higher []ed25519.PublicKey
	for _, id := range candidates {
		if keyOf(id) == keyOf(center) {
			continue
		}
		n, ok := allNodes.Peek(id)
		if !ok {
			continue
		}
		if _, has := n.Profile.SubscriptionsMap().Get(t); !has {
			continue
		}
		if string(id) < string(center) {
			lower = append(lower, id)
		} else if string(id) > string(center) {
			higher = append(higher, id)
		}
	}

	sort.Slice(lower, func(i, j int) bool { return string(lower[i]) > string(lower[j]) }) // nearest (largest) first
	sort.Slice(higher, func(i, j int) bool { return string(higher[i]) < string(higher[j]) }) // nearest (smallest) first

	const perSide = RingsMaxViewSize / 2
	if len(lower) > perSide {
		lower = lower[:perSide]
	}
	if len(higher) > perSide {
		higher = higher[:perSide]
	}
	return ringSlots{predecessors: lower, successors: higher}
}

// View contributes ring slots: every topic's slots under Any, or a
// single topic's slots under Topic{t}. If the request carries an origin
// that is itself one of a topic's predecessors, only that topic's
// successors are emitted (and vice versa), preventing back-propagation
// of an event along the ring it arrived on.
func (r *Rings) View(b *ViewBuilder, allNodes *nodes.Store) {
	origin, hasOrigin := b.Origin()

	emit := func(t topic.Topic, slots ringSlots) {
		suppressPred, suppressSucc := false, false
		if hasOrigin {
			for _, id := range slots.predecessors {
				if keyOf(id) == keyOf(origin) {
					suppressPred = true
				}
			}
			for _, id := range slots.successors {
				if keyOf(id) == keyOf(origin) {
					suppressSucc = true
				}
			}
		}
		if !suppressPred {
			for _, id := range slots.predecessors {
				b.Add(id, allNodes)
			}
		}
		if !suppressSucc {
			for _, id := range slots.successors {
				b.Add(id, allNodes)
			}
		}
	}

	if t, ok := b.Selection().Topic(); ok {
		if slots, ok := r.byTopic[t]; ok {
			emit(t, slots)
		}
		return
	}
	for t, slots := range r.byTopic {
		emit(t, slots)
	}
}

// Gossips computes the topics shared by the local peer and the
// recipient, and for each contributes the up to four best ring
// neighbors of the recipient among peers that also carry that topic.
func (r *Rings) Gossips(selfProfile *profile.Profile, b *GossipsBuilder, allNodes *nodes.Store) {
	recipient, ok := allNodes.Peek(b.Recipient())
	if !ok {
		return
	}

	common := selfProfile.CommonSubscriptions(recipient.Profile)
	candidates := allPeers(allNodes)
	for _, t := range common {
		slots := r.ringFor(t, recipient.ID(), candidates, allNodes)
		for _, id := range slots.predecessors {
			b.Add(id)
		}
		for _, id := range slots.successors {
			b.Add(id)
		}
	}
}
