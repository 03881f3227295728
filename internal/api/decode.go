package api

import (
	"fmt"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// proceedingFor maps a requestProceeding string onto model.Proceeding.
func proceedingFor(s string) (model.Proceeding, error) {
	switch s {
	case "", "Probe":
		return model.ProceedProbe, nil
	case "Reserve":
		return model.ProceedReserve, nil
	case "Commit":
		return model.ProceedCommit, nil
	case "Delete":
		return model.ProceedDelete, nil
	default:
		return 0, fmt.Errorf("unknown requestProceeding %q", s)
	}
}

// newRecordFromLink builds a Kind-Link Record from a LinkReservationDoc.
// Amount (node-to-node data volume) populates ReservedCapacity when
// Bandwidth isn't given, since the two DTO fields are alternative ways of
// sizing the same underlying SlottedSchedule capacity unit.
func newRecordFromLink(clientId ids.ClientId, doc *LinkReservationDoc, proceeding model.Proceeding) (*model.Record, error) {
	if doc == nil {
		return nil, fmt.Errorf("linkReservation: missing")
	}
	cap := int64(0)
	if doc.Bandwidth != nil {
		cap = *doc.Bandwidth
	} else if doc.Amount != nil {
		cap = *doc.Amount
	}
	return &model.Record{
		Base: model.Base{
			ClientId:          clientId,
			RequestProceeding: proceeding,
			ReservedCapacity:  cap,
		},
		Kind: model.KindLink,
		Link: &model.LinkExtra{
			StartPoint: ids.RouterIdOf(doc.StartPoint),
			EndPoint:   ids.RouterIdOf(doc.EndPoint),
		},
	}, nil
}

// newRecordFromNode builds a Kind-Node Record from a NodeReservationDoc.
func newRecordFromNode(clientId ids.ClientId, doc *NodeReservationDoc, proceeding model.Proceeding) (*model.Record, error) {
	if doc == nil {
		return nil, fmt.Errorf("nodeReservation: missing")
	}
	r := &model.Record{
		Base: model.Base{
			ClientId:          clientId,
			RequestProceeding: proceeding,
			TaskDuration:      doc.Duration,
			ReservedCapacity:  doc.Cpus,
			IsMoldable:        doc.IsMoldable,
		},
		Kind: model.KindNode,
		Node: &model.NodeExtra{
			TaskPath:   doc.TaskPath,
			OutputPath: doc.OutputPath,
			ErrorPath:  doc.ErrorPath,
		},
	}
	if r.IsMoldable {
		r.MoldableWork = r.ReservedCapacity * r.TaskDuration
	}
	return r, nil
}

// DecodedWorkflow is a workflow document translated into store-ready
// records: the model.Workflow itself plus every sub-reservation Record
// keyed by the id store.Create will assign it, in no particular order —
// the caller is expected to store.Create every Record before handing the
// Workflow to workflow.Scheduler.Schedule.
type DecodedWorkflow struct {
	Workflow *model.Workflow
	Records  map[ids.ReservationId]*model.Record
}

// DecodeWorkflow translates one WorkflowDoc into a model.Workflow plus its
// backing Records.
//
// Every task carrying a nodeReservation becomes a WorkflowNode. A node
// task's dependencies.pre/dependencies.sync list sibling node task ids this
// task must be co-allocated with; since no bandwidth figure is given for an
// edge referenced this way, both list kinds decode identically as
// zero-payload SyncDependency edges (ordering/co-allocation only; Decompose
// doesn't distinguish them either).
//
// dataOut/dataIn name sibling tasks carrying a linkReservation: the same
// link task id is expected to appear in exactly one producer's dataOut and
// one consumer's dataIn, and that pairing is what turns the link task into
// a DataDependency edge with the link's capacity field as FileSize. A link
// task referenced by only one side (producer or consumer present, not
// both) is dropped with no edge created, since a dependency needs both
// endpoints to mean anything.
func DecodeWorkflow(clientId ids.ClientId, doc WorkflowDoc) (*DecodedWorkflow, error) {
	w := model.NewWorkflow(ids.WorkflowId(doc.Id), clientId, doc.ArrivalTime, doc.BookingIntervalStart, doc.BookingIntervalEnd)
	out := &DecodedWorkflow{Workflow: w, Records: map[ids.ReservationId]*model.Record{}}

	nodeRecordByTaskId := map[string]*model.Record{}
	linkRecordByTaskId := map[string]*model.Record{}

	for _, t := range doc.Tasks {
		proceeding, err := proceedingFor(t.RequestProceeding)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t.Id, err)
		}
		switch {
		case t.NodeReservation != nil:
			r, err := newRecordFromNode(clientId, t.NodeReservation, proceeding)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", t.Id, err)
			}
			r.Id = ids.NewReservationId()
			r.WorkflowId = w.Id
			out.Records[r.Id] = r
			nodeRecordByTaskId[t.Id] = r
		case t.LinkReservation != nil:
			r, err := newRecordFromLink(clientId, t.LinkReservation, proceeding)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", t.Id, err)
			}
			r.Id = ids.NewReservationId()
			r.WorkflowId = w.Id
			out.Records[r.Id] = r
			linkRecordByTaskId[t.Id] = r
		default:
			return nil, fmt.Errorf("task %s: neither nodeReservation nor linkReservation set", t.Id)
		}
	}

	// Pair producers/consumers of each data-link task before building any
	// WorkflowNode, so a node's own pass just looks the finished edge up.
	producerOf := map[string]string{} // link task id -> producing node task id
	consumerOf := map[string]string{} // link task id -> consuming node task id
	for _, t := range doc.Tasks {
		if t.NodeReservation == nil {
			continue
		}
		for _, linkTaskId := range t.NodeReservation.DataOut {
			producerOf[linkTaskId] = t.Id
		}
		for _, linkTaskId := range t.NodeReservation.DataIn {
			consumerOf[linkTaskId] = t.Id
		}
	}

	dataDepByLinkTask := map[string]*model.Dependency{}
	for linkTaskId, linkRecord := range linkRecordByTaskId {
		producerTaskId, hasProducer := producerOf[linkTaskId]
		consumerTaskId, hasConsumer := consumerOf[linkTaskId]
		if !hasProducer || !hasConsumer {
			continue
		}
		producer, consumer := nodeRecordByTaskId[producerTaskId], nodeRecordByTaskId[consumerTaskId]
		if producer == nil || consumer == nil {
			return nil, fmt.Errorf("data link %s: producer/consumer must be node tasks", linkTaskId)
		}
		dep := &model.Dependency{
			Kind: model.DependencyData, Link: linkRecord,
			Source: producer.Id, Target: consumer.Id,
			FileSize: linkRecord.ReservedCapacity,
		}
		w.AddDependency(dep)
		dataDepByLinkTask[linkTaskId] = dep
	}

	for _, t := range doc.Tasks {
		if t.NodeReservation == nil {
			continue
		}
		nodeRecord := nodeRecordByTaskId[t.Id]
		wn := &model.WorkflowNode{NodeReservationId: nodeRecord.Id}

		for _, predLists := range [][]string{t.NodeReservation.Dependencies.Pre, t.NodeReservation.Dependencies.Sync} {
			for _, predTaskId := range predLists {
				predRecord, ok := nodeRecordByTaskId[predTaskId]
				if !ok {
					return nil, fmt.Errorf("task %s: dependency %q is not a node task", t.Id, predTaskId)
				}
				edgeLink := &model.Record{
					Id:   ids.NewReservationId(),
					Kind: model.KindLink,
					Base: model.Base{ClientId: clientId, WorkflowId: w.Id},
					Link: &model.LinkExtra{},
				}
				out.Records[edgeLink.Id] = edgeLink
				dep := &model.Dependency{Kind: model.DependencySync, Link: edgeLink, Source: predRecord.Id, Target: nodeRecord.Id}
				w.AddDependency(dep)
				wn.SyncDeps = append(wn.SyncDeps, dep.Id())
			}
		}

		for _, linkTaskId := range t.NodeReservation.DataOut {
			if dep, ok := dataDepByLinkTask[linkTaskId]; ok {
				wn.OutgoingData = append(wn.OutgoingData, dep.Id())
			}
		}
		for _, linkTaskId := range t.NodeReservation.DataIn {
			if dep, ok := dataDepByLinkTask[linkTaskId]; ok {
				wn.IncomingData = append(wn.IncomingData, dep.Id())
			}
		}

		w.AddNode(wn)
	}

	return out, nil
}
