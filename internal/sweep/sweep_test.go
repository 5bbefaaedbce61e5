package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volsweep/volsweep/internal/config"
	"github.com/volsweep/volsweep/internal/models"
)

type fakeVolumeSweeper struct {
	sweep models.RegionSweep
	err   error
}

func (f *fakeVolumeSweeper) Sweep(_ context.Context, _ config.Mode) (models.RegionSweep, error) {
	return f.sweep, f.err
}

type fakeSnapshotAuditor struct {
	orphans []models.SnapshotInfo
	err     error
}

func (f *fakeSnapshotAuditor) GetOrphanSnapshots(_ context.Context) ([]models.SnapshotInfo, error) {
	return f.orphans, f.err
}

type fakeBucketSweeper struct {
	total   int
	stale   []models.BucketInfo
	actions []models.Action
	err     error
}

func (f *fakeBucketSweeper) Sweep(_ context.Context, _ config.Mode) (int, []models.BucketInfo, []models.Action, error) {
	return f.total, f.stale, f.actions, f.err
}

type fakeNotifier struct {
	subjects []string
	bodies   []string
	err      error
}

func (f *fakeNotifier) Publish(_ context.Context, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return f.err
}

type fakeMetrics struct {
	counts     map[string][2]int
	dashboards int
}

func (f *fakeMetrics) PutVolumeCounts(_ context.Context, region string, total, stale int) error {
	if f.counts == nil {
		f.counts = make(map[string][2]int)
	}
	f.counts[region] = [2]int{total, stale}
	return nil
}

func (f *fakeMetrics) PutDashboard(_ context.Context, _ string, _ *models.Report) error {
	f.dashboards++
	return nil
}

func regionSweep(region string, total int, staleIDs ...string) models.RegionSweep {
	sweep := models.RegionSweep{Region: region, TotalVolumes: total}
	for _, id := range staleIDs {
		sweep.StaleVolumes = append(sweep.StaleVolumes, models.VolumeInfo{
			VolumeID:         id,
			Region:           region,
			EstimatedSavings: 1.5,
		})
		sweep.Actions = append(sweep.Actions, models.Action{
			Region:     region,
			ResourceID: id,
			Kind:       models.ActionFlagged,
		})
	}
	return sweep
}

func newTestRunner(cfg config.Config, sweeps map[string]*fakeVolumeSweeper) *Runner {
	return &Runner{
		Config: cfg,
		NewVolumeSweeper: func(_ context.Context, region string) (VolumeSweeper, error) {
			return sweeps[region], nil
		},
		NewSnapshotAuditor: func(_ context.Context, _ string) (SnapshotAuditor, error) {
			return &fakeSnapshotAuditor{}, nil
		},
		NewBucketSweeper: func(_ context.Context) (BucketSweeper, error) {
			return &fakeBucketSweeper{}, nil
		},
	}
}

// TestRun_publishesExactlyOnce verifies a run publishes a single
// notification carrying exactly the identifiers acted upon.
func TestRun_publishesExactlyOnce(t *testing.T) {
	cfg := config.Config{
		Regions:    []string{"us-east-1", "ap-south-1"},
		HomeRegion: "us-east-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
		TopicARN:   "arn:topic",
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1":  {sweep: regionSweep("us-east-1", 5, "vol-1")},
		"ap-south-1": {sweep: regionSweep("ap-south-1", 3, "vol-2")},
	})
	notifier := &fakeNotifier{}
	runner.Notifier = notifier

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.bodies, 1)
	body := notifier.bodies[0]
	assert.Contains(t, body, "us-east-1: vol-1")
	assert.Contains(t, body, "ap-south-1: vol-2")
	assert.NotContains(t, body, "vol-3")

	assert.Equal(t, "Stale EBS Volume Report - Mode: NOTIFY ONLY", notifier.subjects[0])
	assert.Equal(t, 8, rep.TotalVolumes)
	assert.Equal(t, 2, rep.StaleCount())
}

// TestRun_publishesWhenNothingFound verifies the report still goes out
// on a clean run.
func TestRun_publishesWhenNothingFound(t *testing.T) {
	cfg := config.Config{
		Regions:    []string{"us-east-1"},
		HomeRegion: "us-east-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1": {sweep: regionSweep("us-east-1", 4)},
	})
	notifier := &fakeNotifier{}
	runner.Notifier = notifier

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.bodies, 1)
	assert.Contains(t, notifier.bodies[0], "No stale volumes.")
}

// TestRun_scanFailureFailsInvocation verifies a region scan error aborts
// the run before anything is published.
func TestRun_scanFailureFailsInvocation(t *testing.T) {
	cfg := config.Config{
		Regions:    []string{"us-east-1", "eu-west-1"},
		HomeRegion: "us-east-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1": {sweep: regionSweep("us-east-1", 4, "vol-1")},
		"eu-west-1": {err: assert.AnError},
	})
	notifier := &fakeNotifier{}
	runner.Notifier = notifier

	_, err := runner.Run(context.Background())
	assert.ErrorContains(t, err, "sweep failed in region eu-west-1")
	assert.Empty(t, notifier.bodies)
}

// TestRun_metricsPerRegion verifies counts land per region and the
// dashboard is published once.
func TestRun_metricsPerRegion(t *testing.T) {
	cfg := config.Config{
		Regions:       []string{"us-east-1", "ap-south-1"},
		HomeRegion:    "us-east-1",
		Services:      []string{"ebs"},
		Mode:          config.ModeNotify,
		DashboardName: config.DefaultDashboardName,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1":  {sweep: regionSweep("us-east-1", 5, "vol-1", "vol-2")},
		"ap-south-1": {sweep: regionSweep("ap-south-1", 3)},
	})
	metricsSink := &fakeMetrics{}
	runner.Metrics = metricsSink

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [2]int{5, 2}, metricsSink.counts["us-east-1"])
	assert.Equal(t, [2]int{3, 0}, metricsSink.counts["ap-south-1"])
	assert.Equal(t, 1, metricsSink.dashboards)
}

// TestRun_allRegions verifies the region list is resolved dynamically.
func TestRun_allRegions(t *testing.T) {
	cfg := config.Config{
		AllRegions: true,
		HomeRegion: "us-east-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1": {sweep: regionSweep("us-east-1", 1)},
		"eu-west-1": {sweep: regionSweep("eu-west-1", 2)},
	})
	runner.ListRegions = func(_ context.Context) ([]string, error) {
		return []string{"eu-west-1", "us-east-1"}, nil
	}

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, rep.Regions)
	assert.Equal(t, 3, rep.TotalVolumes)
}

// TestRun_defaultsToHomeRegion verifies the fallback when no regions are
// configured.
func TestRun_defaultsToHomeRegion(t *testing.T) {
	cfg := config.Config{
		HomeRegion: "ap-south-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"ap-south-1": {sweep: regionSweep("ap-south-1", 7, "vol-9")},
	})

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ap-south-1"}, rep.Regions)
}

// TestRun_savingsSummed verifies per-volume savings roll up into the
// report total.
func TestRun_savingsSummed(t *testing.T) {
	cfg := config.Config{
		Regions:    []string{"us-east-1"},
		HomeRegion: "us-east-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1": {sweep: regionSweep("us-east-1", 3, "vol-1", "vol-2")},
	})

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, rep.EstimatedMonthlySavings, 0.001)
}

// TestRun_bucketSweep verifies the s3 service feeds the report.
func TestRun_bucketSweep(t *testing.T) {
	cfg := config.Config{
		Regions:    []string{"us-east-1"},
		HomeRegion: "us-east-1",
		Services:   []string{"ebs", "s3"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1": {sweep: regionSweep("us-east-1", 0)},
	})
	runner.NewBucketSweeper = func(_ context.Context) (BucketSweeper, error) {
		return &fakeBucketSweeper{
			total: 4,
			stale: []models.BucketInfo{{BucketName: "old-logs", IsEmpty: true}},
			actions: []models.Action{
				{Region: "us-east-1", ResourceID: "old-logs", Kind: models.ActionFlagged},
			},
		}, nil
	}

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, rep.TotalBuckets)
	require.Len(t, rep.StaleBuckets, 1)
	assert.Equal(t, "old-logs", rep.StaleBuckets[0].BucketName)
}

// TestRun_snapshotAuditFeedsReport verifies orphan snapshots from every
// region appear in the report.
func TestRun_snapshotAuditFeedsReport(t *testing.T) {
	cfg := config.Config{
		Regions:    []string{"us-east-1"},
		HomeRegion: "us-east-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1": {sweep: regionSweep("us-east-1", 1)},
	})
	runner.NewSnapshotAuditor = func(_ context.Context, region string) (SnapshotAuditor, error) {
		return &fakeSnapshotAuditor{orphans: []models.SnapshotInfo{
			{SnapshotID: "snap-1", Region: region},
		}}, nil
	}

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.OrphanSnapshots, 1)
	assert.Equal(t, "snap-1", rep.OrphanSnapshots[0].SnapshotID)
}

// TestRun_notifyFailureFailsInvocation verifies a publish failure is
// surfaced as an invocation failure.
func TestRun_notifyFailureFailsInvocation(t *testing.T) {
	cfg := config.Config{
		Regions:    []string{"us-east-1"},
		HomeRegion: "us-east-1",
		Services:   []string{"ebs"},
		Mode:       config.ModeNotify,
	}

	runner := newTestRunner(cfg, map[string]*fakeVolumeSweeper{
		"us-east-1": {sweep: regionSweep("us-east-1", 1)},
	})
	runner.Notifier = &fakeNotifier{err: assert.AnError}

	_, err := runner.Run(context.Background())
	assert.Error(t, err)
}
