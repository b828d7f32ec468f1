package nodes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/gossip"
	"poldercast/internal/profile"
	"poldercast/internal/topic"
)

type fakePolicy struct{ report PolicyReport }

func (f fakePolicy) Check(*Node, time.Time) PolicyReport { return f.report }

func newTestNode(t *testing.T, port uint16) *Node {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	addr, err := address.Parse("/ip4/127.0.0.1/tcp/" + portStr(port))
	require.NoError(t, err)
	g, err := gossip.Encode(addr, priv, topic.NewSubscriptions())
	require.NoError(t, err)
	p := profile.FromGossip(g)
	return NewNode(p, addr, time.Unix(0, 0))
}

func portStr(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func TestEntryVacantInsertClassifiesAvailable(t *testing.T) {
	s := New(10)
	n := newTestNode(t, 1)

	_, vac := s.Entry(n.ID())
	require.NotNil(t, vac)
	require.NoError(t, vac.Insert(n))

	require.Len(t, s.Available(), 1)
	require.Len(t, s.Unreachable(), 0)
	require.Len(t, s.Quarantined(), 0)
}

func TestEntryVacantInsertRejectsMismatchedKey(t *testing.T) {
	s := New(10)
	n := newTestNode(t, 1)
	other := newTestNode(t, 2)

	_, vac := s.Entry(other.ID())
	require.ErrorIs(t, vac.Insert(n), ErrKeyMismatch)
}

func TestModifyQuarantineMovesBucket(t *testing.T) {
	s := New(10)
	n := newTestNode(t, 1)
	_, vac := s.Entry(n.ID())
	require.NoError(t, vac.Insert(n))

	occ, _ := s.Entry(n.ID())
	require.NotNil(t, occ)
	report := occ.Modify(fakePolicy{report: ReportQuarantine}, time.Unix(10, 0), func(*Node) {})

	require.Equal(t, ReportQuarantine, report)
	require.Len(t, s.Quarantined(), 1)
	require.Len(t, s.Available(), 0)
}

func TestModifyForgetRemovesNode(t *testing.T) {
	s := New(10)
	n := newTestNode(t, 1)
	_, vac := s.Entry(n.ID())
	require.NoError(t, vac.Insert(n))

	occ, _ := s.Entry(n.ID())
	occ.Modify(fakePolicy{report: ReportForget}, time.Unix(10, 0), func(*Node) {})

	require.Equal(t, 0, s.Len())
	_, ok := s.Peek(n.ID())
	require.False(t, ok)
}

// P5: after any sequence of inserts/modifies/resets the three buckets
// stay pairwise disjoint and their union is exactly the LRU's key set.
func TestBucketsStayDisjointAcrossOperations(t *testing.T) {
	s := New(10)
	var ids []ed25519.PublicKey
	for i := 0; i < 5; i++ {
		n := newTestNode(t, uint16(i+1))
		_, vac := s.Entry(n.ID())
		require.NoError(t, vac.Insert(n))
		ids = append(ids, n.ID())
	}

	occ, _ := s.Entry(ids[0])
	occ.Modify(fakePolicy{report: ReportQuarantine}, time.Unix(1, 0), func(*Node) {})

	s.Reset(fakePolicy{report: ReportNone}, time.Unix(2, 0))

	assertDisjointAndComplete(t, s)
}

func assertDisjointAndComplete(t *testing.T, s *Store) {
	t.Helper()
	seen := make(map[string]int)
	for _, id := range s.Available() {
		seen[string(id)]++
	}
	for _, id := range s.Unreachable() {
		seen[string(id)]++
	}
	for _, id := range s.Quarantined() {
		seen[string(id)]++
	}
	for k, count := range seen {
		require.Equal(t, 1, count, "id %x counted in more than one bucket", k)
	}
	require.Equal(t, s.Len(), len(seen))
}
