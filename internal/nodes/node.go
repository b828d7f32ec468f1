package nodes

import (
	"time"

	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/profile"
)

// Node is the complete per-peer bookkeeping held by the membership
// store: its current profile, a transport-observed fallback address,
// behavioral logs, and a strike record.
type Node struct {
	Profile        *profile.Profile
	TransportAddr  address.Address
	Logs           *Logs
	Record         *Record
}

// NewNode wraps a freshly admitted profile.
func NewNode(p *profile.Profile, transportAddr address.Address, now time.Time) *Node {
	return &Node{
		Profile:       p,
		TransportAddr: transportAddr,
		Logs:          NewLogs(now),
		Record:        NewRecord(),
	}
}

// ID is the peer's Ed25519 public key, the canonical store key.
func (n *Node) ID() ed25519.PublicKey { return n.Profile.ID() }

// EffectiveAddress is the profile's advertised address, falling back to
// the transport-observed address when the profile is non-discoverable.
func (n *Node) EffectiveAddress() address.Address {
	if !n.Profile.Address().IsZero() {
		return n.Profile.Address()
	}
	return n.TransportAddr
}

// Discoverable reports whether this peer has any usable address at all.
func (n *Node) Discoverable() bool {
	return !n.EffectiveAddress().IsZero()
}

// PolicyReport is the lifecycle transition a Policy computes for a node.
type PolicyReport int

const (
	ReportNone PolicyReport = iota
	ReportQuarantine
	ReportLiftQuarantine
	ReportForget
)

func (r PolicyReport) String() string {
	switch r {
	case ReportQuarantine:
		return "quarantine"
	case ReportLiftQuarantine:
		return "lift_quarantine"
	case ReportForget:
		return "forget"
	default:
		return "none"
	}
}

// Policy is the pure decision function the membership store re-runs
// after every mutation and during a bulk reset. Defined here, alongside
// Node, so implementations (internal/policy) depend on this package
// rather than the reverse.
type Policy interface {
	Check(n *Node, now time.Time) PolicyReport
}
