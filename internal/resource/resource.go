// Package resource implements NodeResource and LinkResource: thin
// wrappers pairing a SlottedSchedule with the resource identity/metadata the
// schedule engine itself doesn't track (router endpoints, node id, nominal
// capacity). The schedule does capacity bookkeeping; the resource wrapper
// carries topology-facing identity.
package resource

import (
	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/schedule"
)

// NodeResource is a compute node: a cpu-capacity SlottedSchedule plus the
// routers it is reachable through.
type NodeResource struct {
	Id                ids.NodeResourceId
	ConnectedToRouter []ids.RouterId
	Schedule          *schedule.Context
}

func NewNodeResource(id ids.NodeResourceId, routers []ids.RouterId, sched *schedule.Context) *NodeResource {
	return &NodeResource{Id: id, ConnectedToRouter: routers, Schedule: sched}
}

func (n *NodeResource) Capacity() int64 { return n.Schedule.ResourceCapacity() }

// LinkResource is a network link between two routers: a bandwidth-capacity
// SlottedSchedule plus its endpoints.
type LinkResource struct {
	Id         ids.LinkResourceId
	StartPoint ids.RouterId
	EndPoint   ids.RouterId
	Schedule   *schedule.Context
}

func NewLinkResource(id ids.LinkResourceId, start, end ids.RouterId, sched *schedule.Context) *LinkResource {
	return &LinkResource{Id: id, StartPoint: start, EndPoint: end, Schedule: sched}
}

func (l *LinkResource) Capacity() int64 { return l.Schedule.ResourceCapacity() }

// ConnectsTo reports whether this link directly joins the ordered pair
// (src, dst), either direction (links are treated as undirected for path
// search).
func (l *LinkResource) ConnectsTo(src, dst ids.RouterId) bool {
	return (l.StartPoint == src && l.EndPoint == dst) ||
		(l.StartPoint == dst && l.EndPoint == src)
}

// OtherEnd returns the endpoint of l that isn't from, for path-walking.
func (l *LinkResource) OtherEnd(from ids.RouterId) (ids.RouterId, bool) {
	switch from {
	case l.StartPoint:
		return l.EndPoint, true
	case l.EndPoint:
		return l.StartPoint, true
	default:
		return "", false
	}
}
