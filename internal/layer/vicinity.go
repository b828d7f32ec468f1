package layer

import (
	"sort"

	"golang.org/x/crypto/ed25519"

	"poldercast/internal/nodes"
	"poldercast/internal/profile"
)

// Vicinity defaults, per the engine's documented view/gossip sizes.
const (
	DefaultVicinityK = 20
	DefaultVicinityG = 10
)

// Vicinity ranks peers by proximity to a reference profile and keeps the
// top K. populate ranks against the local profile; gossips ranks against
// the recipient's.
type Vicinity struct {
	k, g int
	view []ed25519.PublicKey
}

// NewVicinity builds a Vicinity layer holding up to k view peers and
// offering up to g peers per gossip round.
func NewVicinity(k, g int) *Vicinity {
	return &Vicinity{k: k, g: g}
}

// DefaultVicinity builds a Vicinity layer at the engine's default sizes.
func DefaultVicinity() *Vicinity { return NewVicinity(DefaultVicinityK, DefaultVicinityG) }

func (v *Vicinity) Name() string { return "vicinity" }

func (v *Vicinity) Reset() { v.view = nil }

// Populate ranks every other eligible peer (see allPeers) by proximity
// to the local profile and keeps the top k.
func (v *Vicinity) Populate(selfProfile *profile.Profile, allNodes *nodes.Store) {
	v.view = rankByProximity(selfProfile, allNodes, v.k)
}

func (v *Vicinity) View(b *ViewBuilder, allNodes *nodes.Store) {
	for _, id := range v.view {
		b.Add(id, allNodes)
	}
}

// Gossips ranks by proximity to the recipient's own profile rather than
// the local one, and contributes up to g peers.
func (v *Vicinity) Gossips(_ *profile.Profile, b *GossipsBuilder, allNodes *nodes.Store) {
	recipient, ok := allNodes.Peek(b.Recipient())
	if !ok {
		return
	}
	ranked := rankByProximity(recipient.Profile, allNodes, v.g)
	for _, id := range ranked {
		b.Add(id)
	}
}

// rankByProximity orders every eligible peer (see allPeers, other than ref itself)
// by descending proximity to ref, breaking ties by ascending peer-id
// order, and returns up to limit ids.
func rankByProximity(ref *profile.Profile, allNodes *nodes.Store, limit int) []ed25519.PublicKey {
	type candidate struct {
		id    ed25519.PublicKey
		score profile.Proximity
	}

	var candidates []candidate
	for _, id := range allPeers(allNodes) {
		if keyOf(id) == keyOf(ref.ID()) {
			continue
		}
		n, ok := allNodes.Peek(id)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{id: id, score: ref.ProximityTo(n.Profile)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return b.score.Less(a.score)
		}
		return string(a.id) < string(b.id)
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]ed25519.PublicKey, limit)
	for i := 0; i < limit; i++ {
		out[i] = candidates[i].id
	}
	return out
}

// allPeers returns every peer eligible for layer selection: available and
// unreachable peers, but never quarantined ones. Quarantine is a timed
// exclusion from layer selection (see the glossary); a quarantined peer
// must not be ranked into a Vicinity view/gossip set or occupy a Rings
// slot while it is excluded.
func allPeers(allNodes *nodes.Store) []ed25519.PublicKey {
	ids := allNodes.Available()
	ids = append(ids, allNodes.Unreachable()...)
	return ids
}
