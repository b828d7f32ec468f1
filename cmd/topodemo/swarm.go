package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/gossip"
	"poldercast/internal/layer"
	"poldercast/internal/nodes"
	"poldercast/internal/policy"
	"poldercast/internal/topic"
	"poldercast/internal/topology"
)

// peer bundles one simulated node's topology engine with the identity
// material the demo host needs to address it. The secret key is not held
// here: the engine keeps its own copy to re-sign the local profile.
type peer struct {
	id   int
	addr address.Address
	topo *topology.Topology
}

func (p *peer) publicID() ed25519.PublicKey { return p.topo.LocalProfile().ID() }

// Swarm simulates nodeCount local topology.Topology instances gossiping
// in-process, round by round, on a ticker. It never opens a socket: every
// "exchange" is a direct in-memory call from one peer's InitiateGossips
// into another's AcceptGossips, standing in for the transport the core
// intentionally does not own.
type Swarm struct {
	mu     sync.RWMutex
	peers  []*peer
	byKey  map[string]*peer
	rng    *rand.Rand
	round  int
	topics []topic.Topic
}

// NewSwarm builds nodeCount peers, each subscribed to a random subset of
// topicCount synthetic topics at a random interest level, seeded from
// seed for reproducible demo runs.
func NewSwarm(nodeCount, topicCount int, seed int64) (*Swarm, error) {
	rng := rand.New(rand.NewSource(seed))

	topics := make([]topic.Topic, topicCount)
	for i := range topics {
		var t topic.Topic
		rng.Read(t[:])
		topics[i] = t
	}

	s := &Swarm{rng: rng, topics: topics, byKey: make(map[string]*peer, nodeCount)}

	for i := 0; i < nodeCount; i++ {
		seedBytes := make([]byte, ed25519.SeedSize)
		rng.Read(seedBytes)
		sk := ed25519.NewKeyFromSeed(seedBytes)

		addr, err := address.Parse(fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 9000+i))
		if err != nil {
			return nil, err
		}

		topo, err := topology.New(sk, addr, policy.Default{}, topology.DefaultLayers(), 512)
		if err != nil {
			return nil, fmt.Errorf("peer %d: %w", i, err)
		}

		p := &peer{id: i, addr: addr, topo: topo}
		s.peers = append(s.peers, p)
		s.byKey[string(p.publicID())] = p

		for _, t := range s.randomSubset(topics, 1+rng.Intn(topicCount)) {
			level := topic.InterestLevel(1 + rng.Intn(255))
			if err := topo.Subscribe(t, level); err != nil {
				return nil, fmt.Errorf("peer %d subscribe: %w", i, err)
			}
		}
	}

	// Seed every peer's membership with every other peer's initial
	// gossip record, the in-process equivalent of a bootstrap list: the
	// core has no discovery mechanism of its own (out of scope per §1),
	// so something external has to hand out the first contacts.
	now := time.Now()
	for _, p := range s.peers {
		for _, other := range s.peers {
			if other.id == p.id {
				continue
			}
			g := other.topo.LocalProfile().Gossip()
			p.topo.AcceptGossips(other.publicID(), layer.NewGossips([]*gossip.Gossip{g}), now)
		}
	}

	return s, nil
}

func (s *Swarm) randomSubset(topics []topic.Topic, n int) []topic.Topic {
	if n > len(topics) {
		n = len(topics)
	}
	idx := s.rng.Perm(len(topics))[:n]
	out := make([]topic.Topic, n)
	for i, j := range idx {
		out[i] = topics[j]
	}
	return out
}

// Step runs one gossip round: every peer picks a random peer from its
// current view (falling back to a random other simulated peer if its
// view is still empty) and exchanges gossip with it directly, in-process.
func (s *Swarm) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.round++
	now := time.Now()

	for _, p := range s.peers {
		view := p.topo.View(nil, layer.Any())
		var target *peer
		if len(view) > 0 {
			target = s.byKey[string(view[s.rng.Intn(len(view))].ID)]
		}
		if target == nil {
			target = s.randomOtherPeer(p.id)
		}
		if target == nil {
			continue
		}

		outgoing := p.topo.InitiateGossips(target.publicID(), now)
		reply := target.topo.ExchangeGossips(p.publicID(), outgoing, now)
		p.topo.AcceptGossips(target.publicID(), reply, now)
	}

	for _, p := range s.peers {
		p.topo.ForceResetLayers(now)
	}
}

func (s *Swarm) randomOtherPeer(excludeID int) *peer {
	if len(s.peers) < 2 {
		return nil
	}
	for {
		p := s.peers[s.rng.Intn(len(s.peers))]
		if p.id != excludeID {
			return p
		}
	}
}

// Snapshot is the demo host's view of the swarm at a point in time,
// shaped for the status endpoints and the websocket feed.
type Snapshot struct {
	Round int          `json:"round"`
	Peers []PeerStatus `json:"peers"`
}

// PeerStatus summarizes one simulated peer's membership store.
type PeerStatus struct {
	ID          int      `json:"id"`
	Address     string   `json:"address"`
	Available   int      `json:"available"`
	Unreachable int      `json:"unreachable"`
	Quarantined int      `json:"quarantined"`
	Topics      []string `json:"topics"`
}

func (s *Swarm) snapshotLocked() Snapshot {
	out := Snapshot{Round: s.round}
	for _, p := range s.peers {
		topics := make([]string, 0)
		for _, pair := range p.topo.LocalProfile().SubscriptionsMap().Iter() {
			str := pair.Value.String()
			if len(str) > 8 {
				str = str[:8]
			}
			topics = append(topics, str)
		}
		out.Peers = append(out.Peers, PeerStatus{
			ID:          p.id,
			Address:     p.addr.String(),
			Available:   len(p.topo.Nodes().Available()),
			Unreachable: len(p.topo.Nodes().Unreachable()),
			Quarantined: len(p.topo.Nodes().Quarantined()),
			Topics:      topics,
		})
	}
	return out
}

// Snapshot returns a read-locked copy of the swarm's current state.
func (s *Swarm) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Peer looks up a simulated peer by its demo-assigned integer id.
func (s *Swarm) Peer(id int) (*peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.peers {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// StrikePeer records a strike against target as observed by observer,
// exercising Topology.UpdateNode and the policy engine from outside a
// gossip round, the way a host would after a failed connection attempt.
func (s *Swarm) StrikePeer(observerID, targetID int, reason string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var observer, target *peer
	for _, p := range s.peers {
		if p.id == observerID {
			observer = p
		}
		if p.id == targetID {
			target = p
		}
	}
	if observer == nil || target == nil {
		return "", false
	}

	now := time.Now()
	report, found := observer.topo.UpdateNode(target.publicID(), now, func(n *nodes.Node) {
		n.Record.Strike(strikeReasonOf(reason), now)
	})
	if !found {
		return "", false
	}
	return report.String(), true
}

// strikeReasonOf maps the demo host's free-form reason strings onto the
// engine's closed StrikeReason type, defaulting to InvalidData for any
// value the host doesn't recognize.
func strikeReasonOf(reason string) nodes.StrikeReason {
	switch reason {
	case "cannot_connect":
		return nodes.CannotConnect
	case "invalid_public_id":
		return nodes.InvalidPublicID
	default:
		return nodes.InvalidData
	}
}
