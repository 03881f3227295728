// Package rms implements the Resource Management System adapters:
// the RMS interface any AcI wraps, NullBroker (in-memory, for DummyRms
// configurations), and a SLURM REST adapter.
package rms

import (
	"context"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// RMS is the capability an AcI wraps around exactly one physical (or
// simulated) resource manager. Commit forwards a reservation that has
// reached ReserveAnswer to the underlying system; Delete withdraws one that
// was previously committed.
type RMS interface {
	// Commit submits r to the underlying resource manager. A non-nil error
	// means the RmsError path applies: the caller logs it and rejects
	// this reservation only, the RMS itself stays up.
	Commit(ctx context.Context, r *model.Record) error

	// Delete withdraws a previously committed reservation. Idempotent.
	Delete(ctx context.Context, id ids.ReservationId) error

	// Ping checks RMS reachability. AcI does not call it.
	Ping(ctx context.Context) error
}
