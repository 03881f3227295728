package schedule

import "github.com/att/vrm/internal/ids"

// Slot is one time-discretized capacity bucket. Invariant: 0 <= Load <=
// Capacity, and Load equals the sum of each reservation's contribution in
// Contributions.
type Slot struct {
	Capacity      int64
	Load          int64
	Contributions map[ids.ReservationId]int64 // reservation_ids, extended with each one's capacity contribution
}

func newSlot(capacity int64) Slot {
	return Slot{Capacity: capacity, Contributions: map[ids.ReservationId]int64{}}
}

func (s *Slot) Available() int64 {
	return s.Capacity - s.Load
}

func (s *Slot) add(id ids.ReservationId, amount int64) {
	s.Contributions[id] += amount
	s.Load += amount
}

func (s *Slot) remove(id ids.ReservationId) {
	if amt, ok := s.Contributions[id]; ok {
		s.Load -= amt
		delete(s.Contributions, id)
	}
}

func (s *Slot) reset() {
	s.Load = 0
	for k := range s.Contributions {
		delete(s.Contributions, k)
	}
}
