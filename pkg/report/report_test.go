package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volsweep/volsweep/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		Mode:         "ACTIVE DELETION",
		ScanTime:     time.Now(),
		Regions:      []string{"us-east-1", "ap-south-1"},
		TotalVolumes: 10,
		StaleVolumes: []models.VolumeInfo{
			{VolumeID: "vol-aaa", Region: "us-east-1", Size: 100, EstimatedSavings: 8.0},
			{VolumeID: "vol-bbb", Region: "ap-south-1", Size: 50, EstimatedSavings: 4.56},
		},
		Actions: []models.Action{
			{Region: "us-east-1", ResourceID: "vol-aaa", Kind: models.ActionDeleted},
			{Region: "ap-south-1", ResourceID: "vol-bbb", Kind: models.ActionError, Err: "VolumeInUse"},
		},
		EstimatedMonthlySavings: 12.56,
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Stale EBS Volume Report - Mode: ACTIVE DELETION", Subject(sampleReport()))
}

// TestBody_containsExactlyActedUponIDs verifies the report carries every
// identifier acted upon and nothing else.
func TestBody_containsExactlyActedUponIDs(t *testing.T) {
	rep := sampleReport()
	body := Body(rep)

	assert.Contains(t, body, "us-east-1: vol-aaa")
	assert.Contains(t, body, "ap-south-1: vol-bbb")
	assert.Contains(t, body, "vol-aaa - DELETED")
	assert.Contains(t, body, "vol-bbb - ERROR: VolumeInUse")
	assert.NotContains(t, body, "vol-ccc")

	assert.Contains(t, body, "Execution Mode: ACTIVE DELETION")
	assert.Contains(t, body, "Total EBS Volumes: 10")
	assert.Contains(t, body, "Stale (Unattached) Volumes: 2")
	assert.Contains(t, body, "Estimated Monthly Savings: $12.56")
}

func TestBody_emptyReport(t *testing.T) {
	rep := &models.Report{
		Mode:    "NOTIFY ONLY",
		Regions: []string{"us-east-1"},
	}
	body := Body(rep)

	assert.Contains(t, body, "No stale volumes.")
	assert.Contains(t, body, "No volumes were deleted.")
	assert.NotContains(t, body, "Across All Regions")
	assert.NotContains(t, body, "Orphan Snapshots")
	assert.NotContains(t, body, "S3 Buckets")
}

func TestBody_multiRegionHeader(t *testing.T) {
	rep := sampleReport()
	assert.Contains(t, Body(rep), "Stale EBS Volume Report (Across All Regions)")
}

func TestBody_snapshotAndBucketSections(t *testing.T) {
	rep := sampleReport()
	rep.OrphanSnapshots = []models.SnapshotInfo{
		{SnapshotID: "snap-1", Region: "us-east-1", SizeGB: 8, ElapsedDays: 200},
	}
	rep.TotalBuckets = 5
	rep.StaleBuckets = []models.BucketInfo{
		{BucketName: "old-logs", CreationTime: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), IsEmpty: true},
	}
	rep.BucketActions = []models.Action{
		{Region: "us-east-1", ResourceID: "old-logs", Kind: models.ActionFlagged},
	}

	body := Body(rep)
	assert.Contains(t, body, "us-east-1: snap-1 (8 GB, 200 days old)")
	assert.Contains(t, body, "Total S3 Buckets: 5")
	assert.Contains(t, body, "old-logs (Created: 2021-03-01, empty)")
	assert.Contains(t, body, "old-logs - FLAGGED")
}
