// Package workflow implements the WorkflowScheduler: co-allocation graph
// construction over a Workflow's sync-dependency subgraph, upward/downward
// rank computation, booking-interval decomposition, the gang-scheduling
// placement loop, and commit/delete with rollback, run as a four-stage
// pipeline (decompose -> rank -> booking intervals -> placement).
//
// Uses github.com/samber/lo for the dedup helper the connected-components
// pass needs, following karpenter-core's use of
// samber/lo for its own bin-packing/node-selection graph utilities.
package workflow

import (
	"sort"

	"github.com/samber/lo"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// Decompose builds w.CoAllocations from its sync-dependency subgraph. Connected components under SyncDependency edges each become a
// CoAllocation; singleton nodes with no sync edges are their own
// CoAllocation. DataDependency edges crossing a CoAllocation boundary become
// CoAllocationDependency edges; same-group ones are discarded (internal
// constraint).
func Decompose(w *model.Workflow) {
	groupOf := map[ids.ReservationId]int{}
	var groups [][]ids.ReservationId

	nodeIds := make([]ids.ReservationId, 0, len(w.Nodes))
	for id := range w.Nodes {
		nodeIds = append(nodeIds, id)
	}
	sort.Slice(nodeIds, func(i, j int) bool { return nodeIds[i] < nodeIds[j] })

	for _, id := range nodeIds {
		if _, seen := groupOf[id]; seen {
			continue
		}
		component := bfsSyncComponent(w, id)
		groupIdx := len(groups)
		groups = append(groups, component)
		for _, m := range component {
			groupOf[m] = groupIdx
		}
	}

	coallocs := make([]*model.CoAllocation, len(groups))
	for i, members := range groups {
		sort.Slice(members, func(a, b int) bool { return members[a] < members[b] })
		coallocs[i] = &model.CoAllocation{Index: i, Members: members}
	}

	for _, dep := range w.Dependencies {
		if dep.Kind != model.DependencyData {
			continue
		}
		srcGroup, ok1 := groupOf[dep.Source]
		dstGroup, ok2 := groupOf[dep.Target]
		if !ok1 || !ok2 || srcGroup == dstGroup {
			continue // same-group data dependency: internal constraint, not an edge
		}
		edge := &model.CoAllocationDependency{From: coallocs[srcGroup], To: coallocs[dstGroup], Dep: dep}
		coallocs[srcGroup].Outgoing = append(coallocs[srcGroup].Outgoing, edge)
		coallocs[dstGroup].Incoming = append(coallocs[dstGroup].Incoming, edge)
	}

	w.CoAllocations = coallocs
}

// bfsSyncComponent returns every WorkflowNode id reachable from start via
// SyncDependency edges (in either direction), including start itself.
func bfsSyncComponent(w *model.Workflow, start ids.ReservationId) []ids.ReservationId {
	visited := map[ids.ReservationId]bool{start: true}
	queue := []ids.ReservationId{start}
	var out []ids.ReservationId

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)

		node, ok := w.Nodes[cur]
		if !ok {
			continue
		}
		for _, depId := range node.SyncDeps {
			dep, ok := w.Dependencies[depId]
			if !ok {
				continue
			}
			for _, neighbor := range []ids.ReservationId{dep.Source, dep.Target} {
				if neighbor != cur && !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, neighbor)
				}
			}
		}
	}
	return lo.Uniq(out)
}
