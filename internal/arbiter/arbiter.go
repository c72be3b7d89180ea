// Package arbiter turns raw activity from regenerated selection
// controls into genuine user-intent transitions. Controls are rebuilt
// on every search/open/close interaction, and a rebuilt control looks
// just like a clicked one unless activation is tracked explicitly; the
// arbitration rules here are what keeps re-renders from producing
// ghost transitions.
package arbiter

import "github.com/opsdeck/opsdeck/internal/registry"

// Event is one control's raw activity within a single render cycle.
// Timestamp is nil immediately after the control is (re)created and is
// set only by an actual user activation, strictly monotonic within a
// session. Seq is the control's declaration order in the batch.
type Event struct {
	ControlID string
	Target    string
	Dimension registry.Dimension
	Disabled  bool
	Timestamp *int64
	Seq       int
}

// Intent is a resolved user selection to hand to the state machine.
type Intent struct {
	Target    string
	Dimension registry.Dimension
}

// Arbitrate reduces one batch of raw events to at most one intent.
//
//   - Every timestamp nil: the batch is a pure re-render; no intent.
//   - Otherwise the maximum timestamp wins, ties broken by declaration
//     order.
//   - A winner equal to the already-active value is dropped so the same
//     click is never applied twice.
//
// Disabled controls can appear in batches (disabled modes stay visible
// in the selector) but never win.
func Arbitrate(batch []Event, current string) (Intent, bool) {
	winner := -1
	var winnerTS int64
	for i, ev := range batch {
		if ev.Timestamp == nil || ev.Disabled {
			continue
		}
		if winner == -1 || *ev.Timestamp > winnerTS {
			winner = i
			winnerTS = *ev.Timestamp
		}
	}
	if winner == -1 {
		return Intent{}, false
	}
	ev := batch[winner]
	if ev.Target == current {
		return Intent{}, false
	}
	return Intent{Target: ev.Target, Dimension: ev.Dimension}, true
}
