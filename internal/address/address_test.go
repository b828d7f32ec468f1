package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIPv4(t *testing.T) {
	a, err := Parse("/ip4/127.0.0.1/tcp/9876")
	require.NoError(t, err)
	require.Equal(t, IPv4, a.Family)
	require.Equal(t, uint16(9876), a.Port)
	require.Equal(t, "127.0.0.1", a.IP.String())
}

func TestParseIPv6(t *testing.T) {
	a, err := Parse("/ip6/::1/tcp/9876")
	require.NoError(t, err)
	require.Equal(t, IPv6, a.Family)
	require.Equal(t, uint16(9876), a.Port)
}

func TestParseRejectsOtherProtocols(t *testing.T) {
	_, err := Parse("/dns4/example.com/tcp/2901")
	require.ErrorIs(t, err, ErrUnsupportedProtocol)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a, err := Parse("/ip4/10.0.0.5/tcp/4001")
	require.NoError(t, err)

	buf := a.Encode(nil)
	require.Len(t, buf, 6)

	decoded, err := Decode(IPv4, buf)
	require.NoError(t, err)
	require.True(t, a.Equal(decoded))
}
