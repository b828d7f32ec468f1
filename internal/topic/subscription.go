package topic

import "fmt"

// SubscriptionSize is the packed byte width of a single subscription
// entry: a Topic followed by one InterestLevel byte.
const SubscriptionSize = Size + 1

// MaxSubscriptions is the hard cap on the number of subscription entries
// a Subscriptions list may hold.
const MaxSubscriptions = 1023 // 0b0000_0011_1111_1111

// Subscription is the pair (Topic, InterestLevel) packed as
// SubscriptionSize bytes.
type Subscription struct {
	Topic Topic
	Level InterestLevel
}

// NewSubscription builds a subscription entry.
func NewSubscription(t Topic, level InterestLevel) Subscription {
	return Subscription{Topic: t, Level: level}
}

// Encode appends the packed bytes of the subscription to dst and returns
// the extended slice.
func (s Subscription) Encode(dst []byte) []byte {
	dst = append(dst, s.Topic[:]...)
	dst = append(dst, byte(s.Level))
	return dst
}

// DecodeSubscription parses a single SubscriptionSize-byte slice.
func DecodeSubscription(b []byte) (Subscription, error) {
	if len(b) != SubscriptionSize {
		return Subscription{}, ErrInvalidSize
	}
	var s Subscription
	copy(s.Topic[:], b[:Size])
	s.Level = InterestLevel(b[Size])
	return s, nil
}

// SubscriptionError distinguishes the three ways a subscription slice can
// fail to parse.
type SubscriptionError struct {
	kind  string
	index int
}

// AtIndex reports the offending entry index when the error is an
// InvalidSubscriptionAt, and whether the error was of that kind at all.
func (e *SubscriptionError) AtIndex() (int, bool) {
	return e.index, e.kind == "at"
}

func (e *SubscriptionError) Error() string {
	switch e.kind {
	case "size":
		return fmt.Sprintf("invalid, length of a subscription, expected %d", SubscriptionSize)
	case "at":
		return fmt.Sprintf("invalid subscription (%d)", e.index)
	case "max":
		return fmt.Sprintf("cannot have more than %d subscriptions", MaxSubscriptions)
	default:
		return "invalid subscription"
	}
}

// Sentinel subscription errors, comparable with errors.Is.
var (
	ErrInvalidSize         = &SubscriptionError{kind: "size"}
	ErrMaxSubscriptionReached = &SubscriptionError{kind: "max"}
)

// InvalidSubscriptionAt reports a malformed entry at the given index.
func InvalidSubscriptionAt(index int) error {
	return &SubscriptionError{kind: "at", index: index}
}

// Subscriptions is a packed, ordered list of up to MaxSubscriptions
// entries. Iteration preserves insertion order byte-for-byte.
type Subscriptions struct {
	raw []byte
}

// NewSubscriptions returns an empty subscription list.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{raw: make([]byte, 0, SubscriptionSize*8)}
}

// Len returns the number of subscription entries currently held.
func (s *Subscriptions) Len() int {
	return len(s.raw) / SubscriptionSize
}

// Push appends a subscription, failing once the list already holds
// MaxSubscriptions entries.
func (s *Subscriptions) Push(sub Subscription) error {
	if s.Len() >= MaxSubscriptions {
		return ErrMaxSubscriptionReached
	}
	s.raw = sub.Encode(s.raw)
	return nil
}

// Bytes returns the packed wire representation.
func (s *Subscriptions) Bytes() []byte {
	return s.raw
}

// Iter returns the subscriptions in insertion order.
func (s *Subscriptions) Iter() []Subscription {
	out := make([]Subscription, 0, s.Len())
	for i := 0; i+SubscriptionSize <= len(s.raw); i += SubscriptionSize {
		sub, _ := DecodeSubscription(s.raw[i : i+SubscriptionSize])
		out = append(out, sub)
	}
	return out
}

// DecodeSubscriptions parses a packed slice, validating length, count and
// every individual entry.
func DecodeSubscriptions(b []byte) (*Subscriptions, error) {
	if len(b)%SubscriptionSize != 0 {
		return nil, ErrInvalidSize
	}
	count := len(b) / SubscriptionSize
	if count > MaxSubscriptions {
		return nil, ErrMaxSubscriptionReached
	}
	for i := 0; i < count; i++ {
		off := i * SubscriptionSize
		if _, err := DecodeSubscription(b[off : off+SubscriptionSize]); err != nil {
			return nil, InvalidSubscriptionAt(i)
		}
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	return &Subscriptions{raw: raw}, nil
}
