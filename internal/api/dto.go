// Package api implements the external interfaces : JSON DTOs for the
// workflows document and ad hoc single-task reservations, an HTTP ingestion
// surface (gorilla/mux), a websocket notification stream mirroring
// ReservationStore state changes, and the analytics CSV sink.
//
// Grounded on jontk-slurm-client's DTO-plus-handler layout (request structs
// decoded with encoding/json, validated, then translated into domain calls)
// and its pkg/streaming websocket relay for the notification stream.
package api

import "github.com/att/vrm/internal/ids"

// WorkflowsDoc is the top-level Workflows JSON document.
type WorkflowsDoc struct {
	Clients []ClientDoc `json:"clients"`
}

type ClientDoc struct {
	Id        string        `json:"id"`
	AdcId     string        `json:"adcId,omitempty"`
	Workflows []WorkflowDoc `json:"workflows"`
}

type WorkflowDoc struct {
	Id                   string    `json:"id"`
	ArrivalTime          int64     `json:"arrivalTime"`
	BookingIntervalStart int64     `json:"bookingIntervalStart"`
	BookingIntervalEnd   int64     `json:"bookingIntervalEnd"`
	Tasks                []TaskDoc `json:"tasks"`
}

// TaskDoc is one workflow task: exactly one of LinkReservation /
// NodeReservation is populated, 's tagged-union reading of "task".
type TaskDoc struct {
	Id                string `json:"id"`
	ReservationState  string `json:"reservationState,omitempty"`
	RequestProceeding string `json:"requestProceeding"`

	LinkReservation *LinkReservationDoc `json:"linkReservation,omitempty"`
	NodeReservation *NodeReservationDoc `json:"nodeReservation,omitempty"`
}

type LinkReservationDoc struct {
	StartPoint string `json:"startPoint"`
	EndPoint   string `json:"endPoint"`
	Amount     *int64 `json:"amount,omitempty"`
	Bandwidth  *int64 `json:"bandwidth,omitempty"`
}

type NodeReservationDoc struct {
	TaskPath     string             `json:"taskPath,omitempty"`
	OutputPath   string             `json:"outputPath,omitempty"`
	ErrorPath    string             `json:"errorPath,omitempty"`
	Duration     int64              `json:"duration"`
	Cpus         int64              `json:"cpus"`
	IsMoldable   bool               `json:"isMoldable"`
	Dependencies DependenciesDoc    `json:"dependencies"`
	DataOut      []string           `json:"dataOut,omitempty"`
	DataIn       []string           `json:"dataIn,omitempty"`
}

// DependenciesDoc names the sibling task ids this node task syncs against:
// Pre are ordinary precedence (sync, no payload) edges, Sync are gang
// co-allocation edges.
type DependenciesDoc struct {
	Pre  []string `json:"pre,omitempty"`
	Sync []string `json:"sync,omitempty"`
}

// ReservationDoc is an ad hoc single-reservation request, outside any
// workflow: a standalone probe/reserve/commit/delete request needs the
// same node/link union as a workflow task, without the workflow envelope.
// Grounded on the task shape directly, with
// ClientId/AdcId pulled to the top since there is no enclosing ClientDoc.
type ReservationDoc struct {
	ClientId          string              `json:"clientId"`
	AdcId             string              `json:"adcId"`
	RequestProceeding string              `json:"requestProceeding"`
	LinkReservation   *LinkReservationDoc `json:"linkReservation,omitempty"`
	NodeReservation   *NodeReservationDoc `json:"nodeReservation,omitempty"`
}

// ReservationResponse reports a reservation's outcome back to the caller.
type ReservationResponse struct {
	Id            ids.ReservationId `json:"id"`
	State         string            `json:"state"`
	AssignedStart int64             `json:"assignedStart,omitempty"`
	AssignedEnd   int64             `json:"assignedEnd,omitempty"`
	Error         string            `json:"error,omitempty"`
}
