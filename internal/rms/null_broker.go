package rms

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// NullBroker is the RMS for DummyRms configurations: it records
// commitments in memory and never talks to an external system.
type NullBroker struct {
	log logr.Logger

	mu        sync.Mutex
	committed map[ids.ReservationId]*model.Record
}

func NewNullBroker(log logr.Logger) *NullBroker {
	return &NullBroker{log: log, committed: map[ids.ReservationId]*model.Record{}}
}

func (b *NullBroker) Commit(_ context.Context, r *model.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed[r.Id] = r.Clone()
	b.log.V(1).Info("null broker committed reservation", "id", r.Id)
	return nil
}

func (b *NullBroker) Delete(_ context.Context, id ids.ReservationId) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.committed, id)
	return nil
}

func (b *NullBroker) Ping(context.Context) error { return nil }

// Committed reports whether id is currently recorded as committed, used by
// tests.
func (b *NullBroker) Committed(id ids.ReservationId) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.committed[id]
	return ok
}
