// Package ids defines the opaque, per-kind identifiers used throughout the VRM.
//
// Each kind is its own named string type rather than a single shared id type
// with a "kind" field: the Go compiler then rejects passing a RouterId where
// a ReservationId is expected, the phantom-type tagging this system wants,
// without needing generics or runtime tag checks.
package ids

import "github.com/google/uuid"

type (
	ReservationId    string
	ComponentId      string
	RouterId         string
	LinkResourceId   string
	NodeResourceId   string
	ShadowScheduleId string
	AdcId            string
	AciId            string
	ClientId         string
	WorkflowId       string
)

func NewReservationId() ReservationId { return ReservationId(uuid.NewString()) }
func NewComponentId() ComponentId     { return ComponentId(uuid.NewString()) }
func NewShadowScheduleId() ShadowScheduleId {
	return ShadowScheduleId(uuid.NewString())
}
func NewWorkflowId() WorkflowId { return WorkflowId(uuid.NewString()) }

// NodeId / LinkId wrap a caller-supplied stable name (from the input JSON
// `gridNodes[].id` / `networkLinks[].id` / `routers[].id` fields) rather than
// generating a fresh uuid: those identities are supplied externally and must
// remain stable across probe/reserve/commit for the same configured resource.
func NodeId(name string) NodeResourceId { return NodeResourceId(name) }
func LinkId(name string) LinkResourceId { return LinkResourceId(name) }
func RouterIdOf(name string) RouterId   { return RouterId(name) }
func AdcIdOf(name string) AdcId         { return AdcId(name) }
func AciIdOf(name string) AciId         { return AciId(name) }
func ClientIdOf(name string) ClientId   { return ClientId(name) }
func ComponentIdOf(name string) ComponentId {
	return ComponentId(name)
}
