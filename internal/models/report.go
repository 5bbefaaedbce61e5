package models

import "time"

// ActionKind is the outcome recorded for a single resource
type ActionKind string

const (
	// ActionFlagged means the resource was only reported
	ActionFlagged ActionKind = "FLAGGED"

	// ActionDeleted means the resource was deleted
	ActionDeleted ActionKind = "DELETED"

	// ActionWouldDelete means the delete was simulated (dry-run)
	ActionWouldDelete ActionKind = "WOULD DELETE (dry-run)"

	// ActionError means the delete was attempted and failed
	ActionError ActionKind = "ERROR"
)

// Action records what happened to one resource during a sweep
type Action struct {
	Region     string
	ResourceID string
	Kind       ActionKind
	Err        string // set only when Kind == ActionError
}

// Report is the per-invocation summary published to the operator topic
type Report struct {
	Mode     string
	ScanTime time.Time
	Duration time.Duration

	// Regions actually swept, in sweep order
	Regions []string

	TotalVolumes int
	StaleVolumes []VolumeInfo
	Actions      []Action

	OrphanSnapshots []SnapshotInfo

	TotalBuckets  int
	StaleBuckets  []BucketInfo
	BucketActions []Action

	EstimatedMonthlySavings float64
}

// StaleVolumeIDs returns the region-prefixed identifiers of all stale volumes
func (r *Report) StaleVolumeIDs() []string {
	ids := make([]string, 0, len(r.StaleVolumes))
	for _, v := range r.StaleVolumes {
		ids = append(ids, v.Region+": "+v.VolumeID)
	}
	return ids
}

// StaleCount returns the number of stale volumes found across all regions
func (r *Report) StaleCount() int {
	return len(r.StaleVolumes)
}
