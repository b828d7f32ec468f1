package layer

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/ed25519"

	"poldercast/internal/nodes"
	"poldercast/internal/profile"
)

// Cyclon defaults, per the engine's documented view/gossip sizes.
const (
	DefaultCyclonK = 20
	DefaultCyclonG = 10
)

// Cyclon maintains a uniformly-random sample of the available set, drawn
// fresh on every populate, and offers an independent fresh sample for
// every outgoing gossip.
type Cyclon struct {
	k, g   int
	sample []ed25519.PublicKey
}

// NewCyclon builds a Cyclon layer holding up to k view peers and
// offering up to g peers per gossip round.
func NewCyclon(k, g int) *Cyclon {
	return &Cyclon{k: k, g: g}
}

// DefaultCyclon builds a Cyclon layer at the engine's default sizes.
func DefaultCyclon() *Cyclon { return NewCyclon(DefaultCyclonK, DefaultCyclonG) }

func (c *Cyclon) Name() string { return "cyclon" }

func (c *Cyclon) Reset() { c.sample = nil }

// Populate replaces the held sample with a fresh uniform-without-
// replacement draw from the current available set.
func (c *Cyclon) Populate(_ *profile.Profile, allNodes *nodes.Store) {
	c.sample = selectRandomPeers(allNodes.Available(), c.k)
}

func (c *Cyclon) View(b *ViewBuilder, allNodes *nodes.Store) {
	for _, id := range c.sample {
		b.Add(id, allNodes)
	}
}

// Gossips draws an independent fresh sample (not the held view sample)
// of up to g peers and adds them to the outgoing set.
func (c *Cyclon) Gossips(_ *profile.Profile, b *GossipsBuilder, allNodes *nodes.Store) {
	fresh := selectRandomPeers(allNodes.Available(), c.g)
	for _, id := range fresh {
		b.Add(id)
	}
}

// selectRandomPeers performs an in-place Fisher-Yates partial shuffle
// using crypto/rand, selecting up to count entries without replacement.
func selectRandomPeers(pool []ed25519.PublicKey, count int) []ed25519.PublicKey {
	if count > len(pool) {
		count = len(pool)
	}
	selected := make([]ed25519.PublicKey, 0, count)
	for i := 0; i < count; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool)-i)))
		if err != nil {
			break
		}
		selectedIdx := int(idx.Int64()) + i
		pool[i], pool[selectedIdx] = pool[selectedIdx], pool[i]
		selected = append(selected, pool[i])
	}
	return selected
}
