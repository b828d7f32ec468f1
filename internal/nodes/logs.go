package nodes

import (
	"time"

	"poldercast/internal/topic"
)

// Logs is the behavioral bookkeeping kept per peer: creation/update/
// gossip timestamps, an optional quarantine start time, and the
// last-used timestamp per topic.
type Logs struct {
	creationTime time.Time
	lastUpdate   time.Time
	lastGossip   time.Time
	quarantined  *time.Time
	lastUseOf    map[topic.Topic]time.Time
}

// NewLogs stamps all three timestamps at now.
func NewLogs(now time.Time) *Logs {
	return &Logs{
		creationTime: now,
		lastUpdate:   now,
		lastGossip:   now,
		lastUseOf:    make(map[topic.Topic]time.Time),
	}
}

func (l *Logs) CreationTime() time.Time { return l.creationTime }
func (l *Logs) LastUpdate() time.Time   { return l.lastUpdate }
func (l *Logs) LastGossip() time.Time   { return l.lastGossip }

// Quarantined returns the quarantine start time, if any.
func (l *Logs) Quarantined() (time.Time, bool) {
	if l.quarantined == nil {
		return time.Time{}, false
	}
	return *l.quarantined, true
}

// LastUseOf returns when a topic was last used by this peer in a view.
func (l *Logs) LastUseOf(t topic.Topic) (time.Time, bool) {
	v, ok := l.lastUseOf[t]
	return v, ok
}

func (l *Logs) Gossiping(now time.Time) { l.lastGossip = now }
func (l *Logs) Updated(now time.Time)   { l.lastUpdate = now }

func (l *Logs) Quarantine(now time.Time) {
	t := now
	l.quarantined = &t
}

func (l *Logs) LiftQuarantine() { l.quarantined = nil }

func (l *Logs) UseOf(t topic.Topic, now time.Time) { l.lastUseOf[t] = now }
