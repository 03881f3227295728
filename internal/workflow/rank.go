package workflow

import (
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
)

// ComputeRanks computes rank_upward and rank_downward for every CoAllocation
// in w, given the configured average network
// speed bytesPerSec. w(A) (A's computation time) is the max task_duration
// across A's members, since gang-scheduled members run concurrently. The
// returned map is keyed by CoAllocation.Index and is reused by
// DecomposeBookingIntervals.
func ComputeRanks(w *model.Workflow, st *store.Store, bytesPerSec float64) map[int]int64 {
	weight := ComputationTime(w, st)

	rankUpward(w, weight, bytesPerSec)
	rankDownward(w, weight, bytesPerSec)
	return weight
}

// ComputationTime returns w(A) for every CoAllocation: the max
// task_duration across its members.
func ComputationTime(w *model.Workflow, st *store.Store) map[int]int64 {
	out := map[int]int64{}
	for _, a := range w.CoAllocations {
		var maxDur int64
		for _, memberId := range a.Members {
			r := st.Snapshot(memberId)
			if r != nil && r.TaskDuration > maxDur {
				maxDur = r.TaskDuration
			}
		}
		out[a.Index] = maxDur
	}
	return out
}

// rankUpward computes, via a reverse topological (Kahn's algorithm) pass
// starting from exit CoAllocations, rank_upward(A) = w(A) + max over
// successors of (transfer_time(A,A') + rank_upward(A')); exit CoAllocations
// have rank_upward = w(A).
func rankUpward(w *model.Workflow, weight map[int]int64, bytesPerSec float64) {
	for _, a := range w.CoAllocations {
		a.ResetScratch()
	}

	var queue []*model.CoAllocation
	for _, a := range w.CoAllocations {
		if a.IsExit() {
			a.RankUpward = float64(weight[a.Index])
			a.IsProcessed = true
			queue = append(queue, a)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, edge := range cur.Incoming {
			pred := edge.From
			candidate := float64(weight[pred.Index]) + float64(edge.Dep.TransferTime(bytesPerSec)) + cur.RankUpward
			if candidate > pred.RankUpward || !pred.IsDiscovered {
				pred.RankUpward = candidate
			}
			pred.IsDiscovered = true
			pred.UnprocessedSuccessors--
			if pred.UnprocessedSuccessors == 0 && !pred.IsProcessed {
				pred.IsProcessed = true
				queue = append(queue, pred)
			}
		}
	}
}

// rankDownward computes, via a forward topological pass starting from
// entry CoAllocations, rank_downward(A) = max over predecessors of
// (rank_downward(A') + w(A') + transfer_time(A',A)); entry CoAllocations
// have rank_downward = 0.
func rankDownward(w *model.Workflow, weight map[int]int64, bytesPerSec float64) {
	for _, a := range w.CoAllocations {
		a.ResetScratch()
	}

	var queue []*model.CoAllocation
	for _, a := range w.CoAllocations {
		if a.IsEntry() {
			a.RankDownward = 0
			a.IsProcessed = true
			queue = append(queue, a)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, edge := range cur.Outgoing {
			succ := edge.To
			candidate := cur.RankDownward + float64(weight[cur.Index]) + float64(edge.Dep.TransferTime(bytesPerSec))
			if candidate > succ.RankDownward || !succ.IsDiscovered {
				succ.RankDownward = candidate
			}
			succ.IsDiscovered = true
			succ.UnprocessedPredecessors--
			if succ.UnprocessedPredecessors == 0 && !succ.IsProcessed {
				succ.IsProcessed = true
				queue = append(queue, succ)
			}
		}
	}
}
