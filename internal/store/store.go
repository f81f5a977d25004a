package store

import (
	"context"
	"time"
)

// SnapshotKind identifies which analyzer produced a snapshot.
type SnapshotKind string

const (
	SnapshotHygiene SnapshotKind = "hygiene"
	SnapshotSprint  SnapshotKind = "sprint"
)

// Snapshot is one saved analysis result. Details holds the full report
// serialized as JSON so older runs can be re-rendered later.
type Snapshot struct {
	ID          string       `json:"id"`
	Kind        SnapshotKind `json:"kind"`
	ProjectKey  string       `json:"project_key"`
	Label       string       `json:"label,omitempty"`
	Score       float64      `json:"score"`
	TotalIssues int          `json:"total_issues"`
	Details     string       `json:"details"`
	CreatedAt   time.Time    `json:"created_at"`
}

// SnapshotFilter narrows ListSnapshots. Zero values mean "any".
type SnapshotFilter struct {
	ProjectKey string
	Kind       SnapshotKind
	Limit      int
}

// Store persists analysis snapshots between runs.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}
