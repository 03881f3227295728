package network

import (
	"sync"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/schedule"
)

// Schedule composes a Topology with the set of per-link SlottedSchedules to
// implement can_handle/Probe/Reserve/Delete over paths rather than
// single links.
type Schedule struct {
	topology *Topology

	mu            sync.Mutex
	reservedPaths map[ids.ReservationId]*Path // installed path per reservation, for Delete
}

func NewSchedule(topology *Topology) *Schedule {
	return &Schedule{
		topology:      topology,
		reservedPaths: map[ids.ReservationId]*Path{},
	}
}

// PathCandidate is a feasible placement for a link reservation along a
// specific path: the per-link candidates agree on a common assigned_start.
type PathCandidate struct {
	Path          *Path
	AssignedStart int64
	AssignedEnd   int64
	Capacity      int64
}

// CanHandle reports whether endpoints are reachable and at least one path
// has every link feasible for the requested window/bandwidth.
func (s *Schedule) CanHandle(r *model.Record) (bool, error) {
	cands, err := s.Probe(r)
	if err != nil {
		return false, err
	}
	return len(cands) > 0, nil
}

// Probe returns one PathCandidate per feasible path, each the feasibility
// intersection over that path's links: assigned_start is the earliest slot
// feasible on every link of the path.
func (s *Schedule) Probe(r *model.Record) ([]PathCandidate, error) {
	if r.Kind != model.KindLink || r.Link == nil {
		return nil, nil
	}
	paths, err := s.topology.Paths(r.Link.StartPoint, r.Link.EndPoint)
	if err != nil {
		return nil, err
	}

	var out []PathCandidate
	for _, p := range paths {
		cand, ok := s.intersect(p, r)
		if ok {
			out = append(out, cand)
		}
	}
	return out, nil
}

// intersect finds the earliest assigned_start common to every link's own
// Probe result for this reservation, by candidate-set intersection.
func (s *Schedule) intersect(p *Path, r *model.Record) (PathCandidate, bool) {
	if len(p.Links) == 0 {
		return PathCandidate{}, false
	}

	common := map[int64]int64{} // assigned_start -> min reserved_capacity across links
	for i, link := range p.Links {
		candidates := link.Schedule.Probe(r.Id)
		seen := map[int64]int64{}
		for _, c := range candidates {
			seen[c.AssignedStart] = c.ReservedCapacity
		}
		if i == 0 {
			for start, cap := range seen {
				common[start] = cap
			}
			continue
		}
		for start := range common {
			cap, ok := seen[start]
			if !ok {
				delete(common, start)
				continue
			}
			if cap < common[start] {
				common[start] = cap
			}
		}
	}
	if len(common) == 0 {
		return PathCandidate{}, false
	}

	best := int64(-1)
	for start := range common {
		if best == -1 || start < best {
			best = start
		}
	}
	return PathCandidate{
		Path:          p,
		AssignedStart: best,
		AssignedEnd:   best + r.TaskDuration,
		Capacity:      common[best],
	}, true
}

// Reserve installs r's bandwidth into every link along cand.Path and records
// the chosen path for later Delete.
func (s *Schedule) Reserve(r *model.Record, cand PathCandidate) {
	for _, link := range cand.Path.Links {
		link.Schedule.InstallCandidate(schedule.Candidate{
			ReservationId:    r.Id,
			AssignedStart:    cand.AssignedStart,
			AssignedEnd:      cand.AssignedEnd,
			ReservedCapacity: cand.Capacity,
			TaskDuration:     r.TaskDuration,
		})
	}
	s.mu.Lock()
	s.reservedPaths[r.Id] = cand.Path
	s.mu.Unlock()
}

// Delete reverses Reserve: removes r's load from every link on its recorded
// path.
func (s *Schedule) Delete(id ids.ReservationId) {
	s.mu.Lock()
	p, ok := s.reservedPaths[id]
	if ok {
		delete(s.reservedPaths, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	for _, link := range p.Links {
		link.Schedule.Delete(id)
	}
}
