package nodes

import "time"

// StrikeReason names why a peer was struck. The three canonical reasons
// are closed at the engine level; a host may record its own reasons as
// opaque values of the same type, since Record/Policy never branch on the
// reason itself.
type StrikeReason string

const (
	CannotConnect   StrikeReason = "cannot_connect"
	InvalidPublicID StrikeReason = "invalid_public_id"
	InvalidData     StrikeReason = "invalid_data"
)

// Strike is a single incident recorded against a peer.
type Strike struct {
	Reason StrikeReason
	At     time.Time
}

// maxRetainedStrikes bounds the deque so a misbehaving peer cannot grow
// a node's record without bound; only the most recent strikes are kept
// for inspection, while the lifetime counter below never shrinks.
const maxRetainedStrikes = 16

// Record is a peer's strike history: a bounded deque of recent strikes
// plus a monotonically increasing lifetime count used by the quarantine
// deadline formula.
type Record struct {
	strikes         []Strike
	lifetimeStrikes uint64
}

// NewRecord returns a clean record.
func NewRecord() *Record { return &Record{} }

// IsClear reports whether the record carries no pending strikes.
func (r *Record) IsClear() bool { return len(r.strikes) == 0 }

// Strikes returns the retained strike history, oldest first.
func (r *Record) Strikes() []Strike { return r.strikes }

// LifetimeStrikes is the total number of strikes ever recorded, even
// across CleanSlate calls.
func (r *Record) LifetimeStrikes() uint64 { return r.lifetimeStrikes }

// CleanSlate clears the pending strike queue without touching the
// lifetime counter.
func (r *Record) CleanSlate() { r.strikes = nil }

// Strike appends a new incident, trimming the oldest entries once the
// deque exceeds its retention bound.
func (r *Record) Strike(reason StrikeReason, at time.Time) {
	r.strikes = append(r.strikes, Strike{Reason: reason, At: at})
	if len(r.strikes) > maxRetainedStrikes {
		r.strikes = r.strikes[len(r.strikes)-maxRetainedStrikes:]
	}
	r.lifetimeStrikes++
}
