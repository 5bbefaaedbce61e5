package models

import "time"

// SnapshotInfo represents an EBS snapshot whose source volume no longer exists
type SnapshotInfo struct {
	SnapshotID  string
	VolumeID    string
	Description string
	SizeGB      int
	Region      string
	StartTime   time.Time
	ElapsedDays int
}
