package profiles

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/gossip"
	"poldercast/internal/profile"
	"poldercast/internal/topic"
)

func newProfile(t *testing.T, port uint16) *profile.Profile {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	addr, err := address.Parse("/ip4/127.0.0.1/tcp/" + itoa(port))
	require.NoError(t, err)
	g, err := gossip.Encode(addr, priv, topic.NewSubscriptions())
	require.NoError(t, err)
	return profile.FromGossip(g)
}

func itoa(v uint16) string {
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

func TestPutNewProfileLandsInPool(t *testing.T) {
	s := New(2, 2, 2)
	p := newProfile(t, 1)

	require.True(t, s.Put(p))
	got, ok := s.Get(p.ID())
	require.True(t, ok)
	require.Equal(t, p, got)
}

func TestPromoteMovesPoolToTrusted(t *testing.T) {
	s := New(2, 2, 2)
	p := newProfile(t, 1)
	s.Put(p)

	s.Promote(p.ID())

	_, inPool := s.pool.Peek(keyOf(p.ID()))
	require.False(t, inPool)

	_, inTrusted := s.trusted.Peek(keyOf(p.ID()))
	require.True(t, inTrusted)
}

func TestDemoteMovesTrustedToPool(t *testing.T) {
	s := New(2, 2, 2)
	p := newProfile(t, 1)
	s.Put(p)
	s.Promote(p.ID())

	s.Demote(p.ID())

	_, inTrusted := s.trusted.Peek(keyOf(p.ID()))
	require.False(t, inTrusted)
	_, inPool := s.pool.Peek(keyOf(p.ID()))
	require.True(t, inPool)
}

func TestPromoteDemotesTrustedLRUWhenFull(t *testing.T) {
	s := New(2, 2, 1)
	first := newProfile(t, 1)
	second := newProfile(t, 2)
	s.Put(first)
	s.Put(second)

	s.Promote(first.ID())
	require.Equal(t, 1, s.trusted.Len())

	s.Promote(second.ID())
	require.Equal(t, 1, s.trusted.Len())

	_, firstStillTrusted := s.trusted.Peek(keyOf(first.ID()))
	require.False(t, firstStillTrusted)
	_, firstDemotedToPool := s.pool.Peek(keyOf(first.ID()))
	require.True(t, firstDemotedToPool)
}
