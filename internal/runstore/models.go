// Package runstore persists the parameters and outcome of completed
// tree-search runs to a relational store, and optionally archives a
// JSON snapshot of the full result to object storage.
package runstore

import "time"

// Run is one row per completed (or failed) search: the parameters it
// ran with, its timing, and its outcome serialised as JSON (either a
// per-depth counts histogram or an incumbent candidate, depending on
// which skeleton/mode produced it).
type Run struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UUID          string    `gorm:"column:uuid;type:varchar(64);uniqueIndex"`
	Skeleton      string    `gorm:"column:skeleton;type:varchar(32)"` // seq, dist or bnb
	ProblemName   string    `gorm:"column:problem_name;type:varchar(64)"`
	SpawnDepth    uint32    `gorm:"column:spawn_depth"`
	MaxDepth      uint32    `gorm:"column:max_depth"`
	StartedAt     time.Time `gorm:"column:started_at"`
	FinishedAt    time.Time `gorm:"column:finished_at"`
	CountsJSON    string    `gorm:"column:counts_json;type:json"`
	IncumbentJSON string    `gorm:"column:incumbent_json;type:json"`
	Status        string    `gorm:"column:status;type:varchar(16)"` // completed or failed
}

// TableName returns the table name for Run.
func (Run) TableName() string {
	return "tree_search_run"
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
