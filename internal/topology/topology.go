// Package topology implements the facade that owns a peer's local
// profile, its membership store, and the ordered stack of layers that
// decide whom to view and whom to gossip with.
package topology

import (
	"time"

	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/gossip"
	"poldercast/internal/layer"
	"poldercast/internal/nodes"
	"poldercast/internal/profile"
	"poldercast/internal/profiles"
	"poldercast/internal/topic"
)

// DefaultLayers builds the engine's standard layer stack at its
// documented sizes. Rings is last: its topic-guided picks must not be
// diluted by Cyclon's or Vicinity's random/proximity picks running
// after it in the same view or gossip round.
func DefaultLayers() []layer.Layer {
	return []layer.Layer{
		layer.DefaultCyclon(),
		layer.DefaultVicinity(),
		layer.NewRings(),
	}
}

// Topology is the synchronous, single-threaded core of the engine. The
// host is responsible for serialising calls to it; nothing here is
// internally locked.
type Topology struct {
	local     *profile.Profile
	secretKey ed25519.PrivateKey
	localAddr address.Address
	nodes     *nodes.Store
	profiles  *profiles.Store
	layers    []layer.Layer
	policy    nodes.Policy
}

// New builds a topology for a local peer at addr, owning secretKey, a
// membership store bounded at capacity, the given policy, and the given
// ordered layer stack.
func New(secretKey ed25519.PrivateKey, addr address.Address, policy nodes.Policy, layers []layer.Layer, capacity int) (*Topology, error) {
	p, err := profile.New(addr, secretKey)
	if err != nil {
		return nil, err
	}
	return &Topology{
		local:     p,
		secretKey: secretKey,
		localAddr: addr,
		nodes:     nodes.New(capacity),
		profiles:  profiles.NewDefault(),
		layers:    layers,
		policy:    policy,
	}, nil
}

// Nodes exposes the membership store for read-mostly inspection by the
// host (e.g. listing peers for a status page).
func (t *Topology) Nodes() *nodes.Store { return t.nodes }

// Profiles exposes the trust-tiered profile cache promoted by successful
// gossip exchanges, for read-mostly inspection by the host.
func (t *Topology) Profiles() *profiles.Store { return t.profiles }

// LocalProfile returns the local peer's current profile.
func (t *Topology) LocalProfile() *profile.Profile { return t.local }

// Subscribe adds or raises a local subscription, then re-signs the
// local gossip record to reflect it.
func (t *Topology) Subscribe(tpc topic.Topic, level topic.InterestLevel) error {
	t.local.Unsubscribe(tpc)
	t.local.SubscriptionsMap().Put(level, tpc)
	return t.UpdateProfileSubscriptions()
}

// Unsubscribe drops a local subscription and re-signs the local gossip
// record.
func (t *Topology) Unsubscribe(tpc topic.Topic) error {
	t.local.Unsubscribe(tpc)
	return t.UpdateProfileSubscriptions()
}

// UpdateProfileSubscriptions re-signs a fresh gossip record from the
// local peer's current subscription set. The only way the local profile
// ever changes.
func (t *Topology) UpdateProfileSubscriptions() error {
	_, err := t.local.CommitGossip(t.localAddr, t.secretKey)
	return err
}

// admissible reports whether an incoming gossip record may be admitted:
// it must not claim the local id, and it must not claim the local
// address.
func (t *Topology) admissible(g *gossip.Gossip) bool {
	if string(g.ID) == string(t.local.ID()) {
		return false
	}
	if g.Address.Equal(t.localAddr) {
		return false
	}
	return true
}

// View resets nothing; it is a pure query that runs every layer's view
// over the current membership and returns the deduplicated result.
// origin, if non-nil, lets Rings suppress back-propagation toward the
// peer that triggered this view request.
func (t *Topology) View(origin *ed25519.PublicKey, selection layer.Selection) []layer.PeerInfo {
	b := layer.NewViewBuilder(selection)
	if origin != nil {
		b.WithOrigin(*origin)
	}
	for _, l := range t.layers {
		l.View(b, t.nodes)
	}
	return b.Build(t.nodes)
}

// InitiateGossips stamps last_gossip on the recipient and asks every
// layer to contribute to an outgoing gossip set addressed to it.
func (t *Topology) InitiateGossips(peer ed25519.PublicKey, now time.Time) layer.Gossips {
	if n, ok := t.nodes.Get(peer); ok {
		n.Logs.Gossiping(now)
	}

	b := layer.NewGossipsBuilder(peer)
	for _, l := range t.layers {
		l.Gossips(t.local, b, t.nodes)
	}
	return b.Build(t.local, t.nodes, t.profiles)
}

// AcceptGossips stamps last_gossip on from, admits every incoming
// record that passes admissible (silently dropping the rest), then
// resets and repopulates every layer from the refreshed membership.
func (t *Topology) AcceptGossips(from ed25519.PublicKey, incoming layer.Gossips, now time.Time) {
	if n, ok := t.nodes.Get(from); ok {
		n.Logs.Gossiping(now)
	}

	for _, g := range incoming.Records() {
		if !t.admissible(g) {
			continue
		}
		t.admit(g, now)
	}

	for _, l := range t.layers {
		l.Reset()
		l.Populate(t.local, t.nodes)
	}
}

// admit inserts a brand-new peer or updates an existing one's profile,
// provided the incoming record is strictly newer (the monotonic-update
// guarantee: accept_gossips never regresses a peer's recorded time). The
// transport-observed address falls back to the record's own claimed
// address; the core has no independent channel to learn a better one.
// Every admitted profile is also put into the trust-tiered profiles
// store, keeping it in sync with the freshest data the membership store
// has accepted.
func (t *Topology) admit(g *gossip.Gossip, now time.Time) {
	occ, vac := t.nodes.Entry(g.ID)
	if vac != nil {
		n := nodes.NewNode(profile.FromGossip(g), g.Address, now)
		_ = vac.Insert(n)
		t.profiles.Put(n.Profile)
		return
	}

	report := occ.Modify(t.policy, now, func(n *nodes.Node) {
		if g.Time > n.Profile.LastUpdate() {
			n.Profile = profile.FromGossip(g)
		}
	})
	if report != nodes.ReportForget {
		t.profiles.Put(occ.Node().Profile)
	}
}

// ExchangeGossips fuses AcceptGossips and InitiateGossips: it admits
// with's records, repopulates layers, and returns a fresh outgoing set
// built from the refreshed state. A completed exchange is this engine's
// equivalent of the original implementation's successful handshake
// signal, so the peer's profile is promoted in the trust-tiered cache.
func (t *Topology) ExchangeGossips(with ed25519.PublicKey, incoming layer.Gossips, now time.Time) layer.Gossips {
	t.AcceptGossips(with, incoming, now)
	out := t.InitiateGossips(with, now)
	t.profiles.Promote(with)
	return out
}

// UpdateNode applies f to a tracked peer through the entry API and
// returns the resulting policy report. Returns false if the peer is not
// tracked. A report of Quarantine or Forget demotes the peer's cached
// profile, the same reaction the original implementation's remove_peer
// has on a connection failure.
func (t *Topology) UpdateNode(id ed25519.PublicKey, now time.Time, f func(*nodes.Node)) (nodes.PolicyReport, bool) {
	occ, _ := t.nodes.Entry(id)
	if occ == nil {
		return nodes.ReportNone, false
	}
	report := occ.Modify(t.policy, now, f)
	switch report {
	case nodes.ReportQuarantine, nodes.ReportForget:
		t.profiles.Demote(id)
	}
	return report, true
}

// ForceResetLayers runs the policy across every tracked peer, pruning or
// transitioning them, then repopulates every layer from the result.
func (t *Topology) ForceResetLayers(now time.Time) {
	t.nodes.Reset(t.policy, now)
	for _, l := range t.layers {
		l.Reset()
		l.Populate(t.local, t.nodes)
	}
}
