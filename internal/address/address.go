// Package address wraps the textual and binary representations of peer
// endpoints accepted by the engine: IPv4/TCP and IPv6/TCP only.
package address

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	ma "github.com/multiformats/go-multiaddr"
)

// Family distinguishes the two address families the wire format supports.
type Family uint8

const (
	// IPv4 addresses pack as 4 raw bytes.
	IPv4 Family = iota
	// IPv6 addresses pack as 16 raw bytes.
	IPv6
)

// ErrUnsupportedProtocol is returned for any multiaddr that is not a bare
// ip4/tcp or ip6/tcp pair.
var ErrUnsupportedProtocol = errors.New("invalid address format, rejecting non ip4 or ip6")

// Address is a parsed peer endpoint: an IP of a known Family plus a TCP
// port.
type Address struct {
	Family Family
	IP     net.IP
	Port   uint16
}

// Parse accepts the multi-address textual forms
// "/ip4/<A.B.C.D>/tcp/<port>" and "/ip6/<hex>/tcp/<port>" and rejects
// every other multiaddr protocol.
func Parse(s string) (Address, error) {
	m, err := ma.NewMultiaddr(s)
	if err != nil {
		return Address{}, fmt.Errorf("%s: %w", s, ErrUnsupportedProtocol)
	}
	if len(m.Protocols()) != 2 {
		return Address{}, ErrUnsupportedProtocol
	}

	if v, err := m.ValueForProtocol(ma.P_IP4); err == nil {
		port, perr := tcpPort(m)
		if perr != nil {
			return Address{}, perr
		}
		ip := net.ParseIP(v)
		if ip == nil {
			return Address{}, ErrUnsupportedProtocol
		}
		return Address{Family: IPv4, IP: ip.To4(), Port: port}, nil
	}

	if v, err := m.ValueForProtocol(ma.P_IP6); err == nil {
		port, perr := tcpPort(m)
		if perr != nil {
			return Address{}, perr
		}
		ip := net.ParseIP(v)
		if ip == nil {
			return Address{}, ErrUnsupportedProtocol
		}
		return Address{Family: IPv6, IP: ip.To16(), Port: port}, nil
	}

	return Address{}, ErrUnsupportedProtocol
}

func tcpPort(m ma.Multiaddr) (uint16, error) {
	v, err := m.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return 0, ErrUnsupportedProtocol
	}
	p, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return 0, ErrUnsupportedProtocol
	}
	return uint16(p), nil
}

// FromTCPAddr builds an Address from a standard library TCP endpoint,
// choosing the family from the IP's representation.
func FromTCPAddr(a *net.TCPAddr) (Address, error) {
	if v4 := a.IP.To4(); v4 != nil {
		return Address{Family: IPv4, IP: v4, Port: uint16(a.Port)}, nil
	}
	if v6 := a.IP.To16(); v6 != nil {
		return Address{Family: IPv6, IP: v6, Port: uint16(a.Port)}, nil
	}
	return Address{}, ErrUnsupportedProtocol
}

// TCPAddr converts back to a standard library endpoint.
func (a Address) TCPAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: a.IP, Port: int(a.Port)}
}

// String renders the multi-address textual form.
func (a Address) String() string {
	proto := "ip4"
	if a.Family == IPv6 {
		proto = "ip6"
	}
	return fmt.Sprintf("/%s/%s/tcp/%d", proto, a.IP.String(), a.Port)
}

// RawLen returns the byte width of the packed IP representation: 4 for
// IPv4, 16 for IPv6.
func (a Address) RawLen() int {
	if a.Family == IPv6 {
		return 16
	}
	return 4
}

// Encode appends the packed IP bytes followed by the big-endian port to
// dst, matching the gossip record wire layout.
func (a Address) Encode(dst []byte) []byte {
	if a.Family == IPv6 {
		dst = append(dst, a.IP.To16()...)
	} else {
		dst = append(dst, a.IP.To4()...)
	}
	dst = append(dst, byte(a.Port>>8), byte(a.Port))
	return dst
}

// Decode parses the packed IP+port representation for the given family.
func Decode(family Family, b []byte) (Address, error) {
	n := 4
	if family == IPv6 {
		n = 16
	}
	if len(b) != n+2 {
		return Address{}, fmt.Errorf("address: expected %d bytes, got %d", n+2, len(b))
	}
	ip := make(net.IP, n)
	copy(ip, b[:n])
	port := uint16(b[n])<<8 | uint16(b[n+1])
	return Address{Family: family, IP: ip, Port: port}, nil
}

// IsZero reports whether this address carries no usable endpoint: either
// the zero value, or an unspecified IP (0.0.0.0 / ::), the convention a
// host uses to self-advertise when it does not know its own public
// address. Such a profile is treated as non-discoverable.
func (a Address) IsZero() bool {
	return a.IP == nil || a.IP.IsUnspecified()
}

// Equal reports whether two addresses denote the same endpoint.
func (a Address) Equal(other Address) bool {
	return a.Family == other.Family && a.Port == other.Port && a.IP.Equal(other.IP)
}
