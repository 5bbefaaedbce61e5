package models

import "time"

// BucketInfo represents an S3 bucket flagged as stale
type BucketInfo struct {
	BucketName   string
	Region       string
	CreationTime time.Time

	ObjectCount int64
	TotalSize   int64 // in bytes

	IsEmpty      bool
	LastModified *time.Time // newest sampled object, nil for empty buckets
	IdleDays     int
}
