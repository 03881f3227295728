package model

import "github.com/att/vrm/internal/ids"

// DependencyKind distinguishes a data-transfer edge from a gang-sync edge.
type DependencyKind int

const (
	DependencyData DependencyKind = iota
	DependencySync
)

// Dependency is a DataDependency or SyncDependency: each owns a
// LinkReservation plus the source/target WorkflowNode it connects, a port
// name, and either a file size (Data) or a required bandwidth (Sync).
type Dependency struct {
	Kind DependencyKind
	Link *Record // Kind == KindLink

	Source ids.ReservationId // source WorkflowNode's NodeReservation id
	Target ids.ReservationId // target WorkflowNode's NodeReservation id
	Port   string

	FileSize  int64 // valid iff Kind == DependencyData
	Bandwidth int64 // valid iff Kind == DependencySync; required bandwidth
}

// Id identifies a dependency by its underlying link reservation's id: every
// dependency owns exactly one LinkReservation, so that id is already unique.
func (d *Dependency) Id() ids.ReservationId { return d.Link.Id }

// TransferTime estimates the time to move this dependency's payload at the
// workflow's configured average network speed B (bytes/sec), used by rank
// computation. Sync dependencies carry no payload to transfer, their
// cost is captured instead by requiring bandwidth to be co-scheduled, so
// TransferTime is 0 for them.
func (d *Dependency) TransferTime(bytesPerSec float64) int64 {
	if d.Kind != DependencyData || bytesPerSec <= 0 {
		return 0
	}
	size := float64(d.FileSize)
	secs := size / bytesPerSec
	// round up to whole seconds: an edge that needs any time at all must
	// not be rounded away to 0, or successors could be scheduled before
	// the transfer completes.
	whole := int64(secs)
	if float64(whole) < secs {
		whole++
	}
	return whole
}

// WorkflowNode holds a NodeReservation id, its data-dependency edges, its
// sync-dependency edges, and an optional co-allocation key. The key is
// informational only here; CoAllocation membership is computed from the
// sync-dependency subgraph, not read off the key.
type WorkflowNode struct {
	NodeReservationId ids.ReservationId

	IncomingData []ids.ReservationId // dependency ids (Data kind)
	OutgoingData []ids.ReservationId
	SyncDeps     []ids.ReservationId // dependency ids (Sync kind), either direction

	CoAllocationKey string
}

// Workflow is the DAG submitted by a client: a set of WorkflowNodes plus the
// Data/Sync dependencies connecting them, and the workflow-level booking
// interval and commitment state.
type Workflow struct {
	Id       ids.WorkflowId
	ClientId ids.ClientId

	ArrivalTime          int64
	BookingIntervalStart int64
	BookingIntervalEnd   int64

	State State

	Nodes        map[ids.ReservationId]*WorkflowNode
	Dependencies map[ids.ReservationId]*Dependency // keyed by Dependency.Id()

	// CoAllocations is populated by WorkflowScheduler.Decompose and is nil
	// until then.
	CoAllocations []*CoAllocation
}

func NewWorkflow(id ids.WorkflowId, clientId ids.ClientId, arrival, start, end int64) *Workflow {
	return &Workflow{
		Id:                   id,
		ClientId:             clientId,
		ArrivalTime:          arrival,
		BookingIntervalStart: start,
		BookingIntervalEnd:   end,
		State:                Open,
		Nodes:                map[ids.ReservationId]*WorkflowNode{},
		Dependencies:         map[ids.ReservationId]*Dependency{},
	}
}

func (w *Workflow) AddNode(n *WorkflowNode) {
	w.Nodes[n.NodeReservationId] = n
}

func (w *Workflow) AddDependency(d *Dependency) {
	w.Dependencies[d.Id()] = d
}

// SubReservationIds returns every reservation id the workflow decomposes
// into: one per WorkflowNode plus one per Dependency's LinkReservation.
// Commit/Delete iterate sub-reservations in this broader sense.
func (w *Workflow) SubReservationIds() []ids.ReservationId {
	out := make([]ids.ReservationId, 0, len(w.Nodes)+len(w.Dependencies))
	for id := range w.Nodes {
		out = append(out, id)
	}
	for id := range w.Dependencies {
		out = append(out, id)
	}
	return out
}
