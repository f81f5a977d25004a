package models

import "time"

// SprintState is the lifecycle state reported by the tracker's board API.
type SprintState string

const (
	SprintStateActive SprintState = "active"
	SprintStateClosed SprintState = "closed"
	SprintStateFuture SprintState = "future"
)

// Sprint is a time-boxed container of issues. Start and End may be absent
// on future sprints but must parse when present.
type Sprint struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	State SprintState `json:"state"`
	Start *time.Time  `json:"start,omitempty"`
	End   *time.Time  `json:"end,omitempty"`
}
