package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/gossip"
	"poldercast/internal/topic"
)

func newKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

func TestProximityOrderingMatchesPriorityThenProximity(t *testing.T) {
	require.True(t, Proximity{Priority: 1, Proximity: 100}.Less(Proximity{Priority: 2, Proximity: 0}))
	require.True(t, Proximity{Priority: 2, Proximity: 1}.Less(Proximity{Priority: 2, Proximity: 2}))
	require.False(t, Proximity{Priority: 2, Proximity: 2}.Less(Proximity{Priority: 2, Proximity: 1}))
}

func TestProximityToCountsSharedTopicsAndScores(t *testing.T) {
	addr, err := address.Parse("/ip4/127.0.0.1/tcp/1")
	require.NoError(t, err)
	key := newKey(t)

	var t1, t2, t3 topic.Topic
	t1[0], t2[0], t3[0] = 1, 2, 3

	subsA := topic.NewSubscriptions()
	require.NoError(t, subsA.Push(topic.NewSubscription(t1, 10)))
	require.NoError(t, subsA.Push(topic.NewSubscription(t2, 5)))
	gA, err := gossip.Encode(addr, key, subsA)
	require.NoError(t, err)
	a := FromGossip(gA)

	subsB := topic.NewSubscriptions()
	require.NoError(t, subsB.Push(topic.NewSubscription(t1, 10)))
	require.NoError(t, subsB.Push(topic.NewSubscription(t3, 7)))
	gB, err := gossip.Encode(addr, key, subsB)
	require.NoError(t, err)
	b := FromGossip(gB)

	prox := a.ProximityTo(b)
	require.Equal(t, 1, prox.Proximity) // only t1 shared
	require.Equal(t, 20, prox.Priority) // 10 == 10 -> sum 20
}
