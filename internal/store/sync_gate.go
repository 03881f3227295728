package store

import (
	"time"

	"github.com/att/vrm/internal/model"
)

// SyncGate is the ReservationSyncGate: a per-reservation gate a requester
// can block on until the state leaves a transient value.
type SyncGate struct {
	ch chan model.State // closed-over-by-signal broadcast: buffered size 1, holds latest terminal state
}

func newSyncGate() *SyncGate {
	return &SyncGate{ch: make(chan model.State, 1)}
}

// signal records that the reservation reached a terminal (or otherwise
// gate-releasing) state. Safe to call more than once; a later signal
// replaces the buffered state, so waiters started afterward see the most
// recent one.
func (g *SyncGate) signal(st model.State) {
	select {
	case g.ch <- st:
	default:
		// already signaled; drain and replace so late waiters still see
		// the most recent terminal state.
		select {
		case <-g.ch:
		default:
		}
		select {
		case g.ch <- st:
		default:
		}
	}
}

// WaitWithTimeout blocks until the reservation's gate is signaled or the
// timeout elapses. On timeout it returns (model.Open, false) and leaves the
// reservation untouched: it does not change the reservation's state to
// Rejected and does not free its slots.
func (g *SyncGate) WaitWithTimeout(timeout time.Duration) (model.State, bool) {
	select {
	case st := <-g.ch:
		g.ch <- st // replay for any other concurrent waiter
		return st, true
	case <-time.After(timeout):
		return model.Open, false
	}
}
