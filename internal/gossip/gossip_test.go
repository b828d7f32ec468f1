package gossip

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/topic"
)

func zeroSeedKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	return ed25519.NewKeyFromSeed(seed)
}

func TestEncodeDecodeIPv4RoundTrip(t *testing.T) {
	secret := zeroSeedKey(t)
	addr, err := address.Parse("/ip4/127.0.0.1/tcp/9876")
	require.NoError(t, err)

	g, err := Encode(addr, secret, topic.NewSubscriptions())
	require.NoError(t, err)

	decoded, err := Decode(g.Bytes())
	require.NoError(t, err)

	require.Equal(t, g.Bytes(), decoded.Bytes())
	require.True(t, decoded.Address.Equal(addr))
	require.Equal(t, "/ip4/127.0.0.1/tcp/9876", decoded.Address.String())
}

func TestEncodeDecodeIPv6RoundTrip(t *testing.T) {
	secret := zeroSeedKey(t)
	addr, err := address.Parse("/ip6/::1/tcp/9876")
	require.NoError(t, err)

	g, err := Encode(addr, secret, topic.NewSubscriptions())
	require.NoError(t, err)

	decoded, err := Decode(g.Bytes())
	require.NoError(t, err)
	require.Equal(t, "/ip6/::1/tcp/9876", decoded.Address.String())
}

func TestDecodeRejectsFlippedSignatureBit(t *testing.T) {
	secret := zeroSeedKey(t)
	addr, err := address.Parse("/ip4/1.2.3.4/tcp/1")
	require.NoError(t, err)

	g, err := Encode(addr, secret, topic.NewSubscriptions())
	require.NoError(t, err)

	corrupted := append([]byte(nil), g.Bytes()...)
	corrupted[infoSize+idSize] ^= 0x01 // flip a bit of the time field, inside the signed prefix

	_, err = Decode(corrupted)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestEncodeDecodeWithSubscriptions(t *testing.T) {
	secret := zeroSeedKey(t)
	addr, err := address.Parse("/ip4/10.0.0.1/tcp/4001")
	require.NoError(t, err)

	subs := topic.NewSubscriptions()
	var top topic.Topic
	_, err = rand.Read(top[:])
	require.NoError(t, err)
	require.NoError(t, subs.Push(topic.NewSubscription(top, topic.InterestLevel(7))))

	g, err := Encode(addr, secret, subs)
	require.NoError(t, err)

	decoded, err := Decode(g.Bytes())
	require.NoError(t, err)
	require.Equal(t, subs.Iter(), decoded.Subscriptions.Iter())
}

func TestDecodeInvalidSize(t *testing.T) {
	_, err := Decode(make([]byte, 3))
	require.ErrorIs(t, err, ErrInvalidSize)
}
