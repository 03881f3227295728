// Package vrmerr implements the VRM's error taxonomy.
//
// Schedule-internal failures (ScheduleFullError) are never returned as plain
// Go errors to a remote caller — they surface as a reservation state
// transition to Rejected instead. The typed errors here
// exist for the cases that DO cross a component boundary as an error value:
// malformed input, misconfiguration, commit timeouts, transport failures and
// RMS failures.
package vrmerr

import "fmt"

// InputError: DTO malformed, missing id, infeasible duration.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: field %q: %s", e.Field, e.Reason)
}

func NewInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

// ConfigError: unknown scheduler type, duplicate component id.
type ConfigError struct {
	Component string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Component, e.Reason)
}

func NewConfigError(component, reason string) *ConfigError {
	return &ConfigError{Component: component, Reason: reason}
}

// ScheduleFullError: no feasible placement was found; the caller is expected
// to have already (or to next) transition the reservation to Rejected.
type ScheduleFullError struct {
	ScheduleId string
}

func (e *ScheduleFullError) Error() string {
	return fmt.Sprintf("schedule %s: no feasible placement", e.ScheduleId)
}

func NewScheduleFullError(scheduleId string) *ScheduleFullError {
	return &ScheduleFullError{ScheduleId: scheduleId}
}

// TimeoutError: commit timeout expired before Commit arrived.
type TimeoutError struct {
	ReservationId string
	TimeoutSecs   int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reservation %s: commit timeout (%ds) expired", e.ReservationId, e.TimeoutSecs)
}

// TransportError: channel closed or remote peer gone.
type TransportError struct {
	ComponentId string
	Reason      string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: component %s: %s", e.ComponentId, e.Reason)
}

func NewTransportError(componentId, reason string) *TransportError {
	return &TransportError{ComponentId: componentId, Reason: reason}
}

// RmsError: an RMS (e.g. the SLURM adapter) failed an operation. The RMS
// itself stays up; only the specific reservation tied to the call fails.
type RmsError struct {
	Rms    string
	Op     string
	Reason string
}

func (e *RmsError) Error() string {
	return fmt.Sprintf("rms %s: op %s failed: %s", e.Rms, e.Op, e.Reason)
}

func NewRmsError(rms, op, reason string) *RmsError {
	return &RmsError{Rms: rms, Op: op, Reason: reason}
}
