package model

import "github.com/att/vrm/internal/ids"

// CoAllocation is a connected component of the sync-dependency subgraph: a
// set of WorkflowNodes that must be scheduled with an identical
// assigned_start. A WorkflowNode with no sync edges is
// its own singleton CoAllocation.
type CoAllocation struct {
	Index   int // stable position within Workflow.CoAllocations
	Members []ids.ReservationId

	RankUpward   float64
	RankDownward float64

	BookingStart int64
	BookingEnd   int64
	SpareTime    int64

	Incoming []*CoAllocationDependency
	Outgoing []*CoAllocationDependency

	// Scheduling scratch used by the Kahn's-algorithm rank passes and by
	// the placement loop; reset before each pass via ResetScratch.
	UnprocessedPredecessors int
	UnprocessedSuccessors   int
	IsDiscovered            bool
	IsProcessed             bool
}

// CoAllocationDependency is an edge induced by a DataDependency that crosses
// a CoAllocation boundary; same-group data dependencies are
// discarded as cross-CoAllocation edges and become an internal constraint of
// the single CoAllocation instead.
type CoAllocationDependency struct {
	From *CoAllocation
	To   *CoAllocation
	Dep  *Dependency
}

func (c *CoAllocation) ResetScratch() {
	c.UnprocessedPredecessors = len(c.Incoming)
	c.UnprocessedSuccessors = len(c.Outgoing)
	c.IsDiscovered = false
	c.IsProcessed = false
}

// IsEntry reports whether c has no incoming CoAllocationDependency.
func (c *CoAllocation) IsEntry() bool { return len(c.Incoming) == 0 }

// IsExit reports whether c has no outgoing CoAllocationDependency.
func (c *CoAllocation) IsExit() bool { return len(c.Outgoing) == 0 }
