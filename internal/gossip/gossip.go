// Package gossip implements the signed, self-describing peer
// advertisement record: the only thing this engine ever puts on the
// wire. Encoding and decoding are byte-exact against the packed layout
// documented for the engine's wire format.
package gossip

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/ed25519"

	"poldercast/internal/address"
	"poldercast/internal/topic"
)

const (
	infoSize      = 2
	idSize        = 32
	timeSize      = 4
	signatureSize = 64

	addressFamilyBit = 1 << 15
	subscriptionBits = 0x03FF // low 10 bits
)

// Sentinel decode errors.
var (
	ErrInvalidSize      = errors.New("gossip: invalid record size")
	ErrInvalidSignature = errors.New("gossip: invalid signature")
)

// InvalidSubscriptionError reports a malformed subscription entry at a
// given index within the record.
type InvalidSubscriptionError struct{ Index int }

func (e *InvalidSubscriptionError) Error() string {
	return fmt.Sprintf("gossip: invalid subscription at index %d", e.Index)
}

// Gossip is a decoded (or freshly encoded) self-advertisement.
type Gossip struct {
	ID            ed25519.PublicKey
	Time          uint32
	Address       address.Address
	Subscriptions *topic.Subscriptions
	Signature     [signatureSize]byte

	raw []byte // the exact encoded bytes, kept for P1's byte-exact round trip
}

// Bytes returns the exact wire bytes of the record.
func (g *Gossip) Bytes() []byte {
	return g.raw
}

// Encode assembles a new gossip record for addr/subscriptions, stamping
// the current wall clock and signing the prefix with secretKey.
func Encode(addr address.Address, secretKey ed25519.PrivateKey, subs *topic.Subscriptions) (*Gossip, error) {
	if subs == nil {
		subs = topic.NewSubscriptions()
	}
	if subs.Len() > topic.MaxSubscriptions {
		return nil, topic.ErrMaxSubscriptionReached
	}

	now := uint32(time.Now().Unix())

	info := uint16(subs.Len()) & subscriptionBits
	if addr.Family == address.IPv4 {
		info |= addressFamilyBit
	}

	buf := make([]byte, 0, infoSize+idSize+timeSize+addr.RawLen()+2+subs.Len()*topic.SubscriptionSize+signatureSize)
	buf = append(buf, byte(info>>8), byte(info))
	buf = append(buf, secretKey.Public().(ed25519.PublicKey)...)
	buf = append(buf, byte(now>>24), byte(now>>16), byte(now>>8), byte(now))
	buf = addr.Encode(buf)
	buf = append(buf, subs.Bytes()...)

	sig := ed25519.Sign(secretKey, buf)

	buf = append(buf, sig...)

	g := &Gossip{
		ID:            append(ed25519.PublicKey(nil), secretKey.Public().(ed25519.PublicKey)...),
		Time:          now,
		Address:       addr,
		Subscriptions: subs,
		raw:           buf,
	}
	copy(g.Signature[:], sig)
	return g, nil
}

// Decode parses, validates and signature-checks a wire record.
func Decode(b []byte) (*Gossip, error) {
	if len(b) < infoSize+idSize+timeSize+signatureSize {
		return nil, ErrInvalidSize
	}

	info := uint16(b[0])<<8 | uint16(b[1])
	count := int(info & subscriptionBits)
	family := address.IPv6
	if info&addressFamilyBit != 0 {
		family = address.IPv4
	}

	addrLen := 4
	if family == address.IPv6 {
		addrLen = 16
	}

	expected := infoSize + idSize + timeSize + addrLen + 2 + count*topic.SubscriptionSize + signatureSize
	if len(b) != expected {
		return nil, ErrInvalidSize
	}

	off := infoSize
	id := append(ed25519.PublicKey(nil), b[off:off+idSize]...)
	off += idSize

	t := uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
	off += timeSize

	addr, err := address.Decode(family, b[off:off+addrLen+2])
	if err != nil {
		return nil, ErrInvalidSize
	}
	off += addrLen + 2

	subsBytes := b[off : off+count*topic.SubscriptionSize]
	subs, err := topic.DecodeSubscriptions(subsBytes)
	if err != nil {
		var subErr *topic.SubscriptionError
		if errors.As(err, &subErr) {
			if index, ok := subErr.AtIndex(); ok {
				return nil, &InvalidSubscriptionError{Index: index}
			}
		}
		return nil, fmt.Errorf("gossip: %w", err)
	}
	off += len(subsBytes)

	sig := b[off : off+signatureSize]

	if !ed25519.Verify(id, b[:off], sig) {
		return nil, ErrInvalidSignature
	}

	g := &Gossip{
		ID:            id,
		Time:          t,
		Address:       addr,
		Subscriptions: subs,
		raw:           append([]byte(nil), b...),
	}
	copy(g.Signature[:], sig)
	return g, nil
}
