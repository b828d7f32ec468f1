package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/gossip"
	"poldercast/internal/nodes"
	"poldercast/internal/profile"
	"poldercast/internal/topic"
)

func newTestNode(t *testing.T, now time.Time) *nodes.Node {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	addr, err := address.Parse("/ip4/127.0.0.1/tcp/9000")
	require.NoError(t, err)
	g, err := gossip.Encode(addr, priv, topic.NewSubscriptions())
	require.NoError(t, err)
	p := profile.FromGossip(g)
	return nodes.NewNode(p, addr, now)
}

// Scenario: a peer with one strike and a last-update timestamp 31 minutes
// newer than its quarantine start passes through Check and returns
// LiftQuarantine; its strike queue is then empty.
func TestQuarantineLiftedOnProofOfLife(t *testing.T) {
	since := time.Unix(0, 0)
	n := newTestNode(t, since)
	n.Record.Strike(nodes.CannotConnect, since)
	n.Logs.Quarantine(since)
	n.Logs.Updated(since.Add(31 * time.Minute))

	report := Default{}.Check(n, since.Add(31*time.Minute))

	require.Equal(t, nodes.ReportLiftQuarantine, report)
	require.True(t, n.Record.IsClear())
	require.Equal(t, uint64(1), n.Record.LifetimeStrikes())
}

// A silent peer (no update since quarantine began) is forgotten once its
// deadline passes.
func TestQuarantineForgetsSilentPeer(t *testing.T) {
	since := time.Unix(0, 0)
	n := newTestNode(t, since)
	n.Record.Strike(nodes.CannotConnect, since)
	n.Logs.Quarantine(since)

	report := Default{}.Check(n, since.Add(31*time.Minute))

	require.Equal(t, nodes.ReportForget, report)
}

// Before the deadline, a quarantined peer is left untouched regardless of
// update activity.
func TestQuarantineHoldsBeforeDeadline(t *testing.T) {
	since := time.Unix(0, 0)
	n := newTestNode(t, since)
	n.Record.Strike(nodes.CannotConnect, since)
	n.Logs.Quarantine(since)
	n.Logs.Updated(since.Add(29 * time.Minute))

	report := Default{}.Check(n, since.Add(29*time.Minute))

	require.Equal(t, nodes.ReportNone, report)
}

// P9: a clear record with no quarantine is idempotent under repeated
// checks; a struck, non-quarantined record moves to Quarantine and stays
// there under repeated checks until a deadline is reached.
func TestResetIdempotence(t *testing.T) {
	now := time.Unix(0, 0)

	clear := newTestNode(t, now)
	for i := 0; i < 3; i++ {
		require.Equal(t, nodes.ReportNone, Default{}.Check(clear, now))
	}

	struck := newTestNode(t, now)
	struck.Record.Strike(nodes.CannotConnect, now)

	report := Default{}.Check(struck, now)
	require.Equal(t, nodes.ReportQuarantine, report)
	struck.Logs.Quarantine(now)

	for i := 0; i < 3; i++ {
		require.Equal(t, nodes.ReportNone, Default{}.Check(struck, now.Add(time.Duration(i)*time.Minute)))
	}
}
