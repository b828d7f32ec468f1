// Package policy implements the pure lifecycle-decision function the
// membership store re-runs after every mutation.
package policy

import (
	"time"

	"poldercast/internal/nodes"
)

// quarantineUnit is the per-lifetime-strike increment of the quarantine
// deadline: 30 minutes, per the engine's documented formula.
const quarantineUnit = 30 * time.Minute

// Default is the engine's standard policy: deterministic, stateless
// beyond what it reads off the node itself.
type Default struct{}

// Check implements nodes.Policy.
//
//  1. If the node is quarantined, the deadline is lifetime_strikes * 30min
//     since quarantine began. Before the deadline: None. At or past it,
//     if the node has produced a fresh update at or after the deadline
//     (proof it is still alive): clear the strike queue and
//     LiftQuarantine. Otherwise (silent throughout): Forget.
//  2. Else, an empty strike queue means None.
//  3. Else, Quarantine.
func (Default) Check(n *nodes.Node, now time.Time) nodes.PolicyReport {
	since, quarantined := n.Logs.Quarantined()
	if quarantined {
		deadline := since.Add(time.Duration(n.Record.LifetimeStrikes()) * quarantineUnit)

		if now.Before(deadline) {
			return nodes.ReportNone
		}
		if !n.Logs.LastUpdate().Before(deadline) {
			n.Record.CleanSlate()
			return nodes.ReportLiftQuarantine
		}
		return nodes.ReportForget
	}

	if n.Record.IsClear() {
		return nodes.ReportNone
	}

	return nodes.ReportQuarantine
}
