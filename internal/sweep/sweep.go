// Package sweep runs one sweep invocation: scan the configured regions
// for stale EBS volumes, apply the run mode, record metrics, and publish
// a single report.
package sweep

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/volsweep/volsweep/internal/config"
	"github.com/volsweep/volsweep/internal/models"
	awsclient "github.com/volsweep/volsweep/pkg/aws"
	"github.com/volsweep/volsweep/pkg/metrics"
	"github.com/volsweep/volsweep/pkg/notify"
	"github.com/volsweep/volsweep/pkg/report"
)

// VolumeSweeper sweeps EBS volumes in one region
type VolumeSweeper interface {
	Sweep(ctx context.Context, mode config.Mode) (models.RegionSweep, error)
}

// SnapshotAuditor reports orphan snapshots in one region
type SnapshotAuditor interface {
	GetOrphanSnapshots(ctx context.Context) ([]models.SnapshotInfo, error)
}

// BucketSweeper sweeps stale S3 buckets across the account
type BucketSweeper interface {
	Sweep(ctx context.Context, mode config.Mode) (total int, stale []models.BucketInfo, actions []models.Action, err error)
}

// Notifier publishes the report
type Notifier interface {
	Publish(ctx context.Context, subject, body string) error
}

// MetricsRecorder records per-region counts and the dashboard
type MetricsRecorder interface {
	PutVolumeCounts(ctx context.Context, region string, total, stale int) error
	PutDashboard(ctx context.Context, name string, report *models.Report) error
}

// Runner wires the per-service clients into one sweep invocation.
// Factories are fields so tests can substitute fakes.
type Runner struct {
	Config config.Config

	NewVolumeSweeper   func(ctx context.Context, region string) (VolumeSweeper, error)
	NewSnapshotAuditor func(ctx context.Context, region string) (SnapshotAuditor, error)
	NewBucketSweeper   func(ctx context.Context) (BucketSweeper, error)
	ListRegions        func(ctx context.Context) ([]string, error)

	// Notifier and Metrics are optional; nil disables them.
	Notifier Notifier
	Metrics  MetricsRecorder
}

// New builds a Runner backed by real AWS clients
func New(ctx context.Context, cfg config.Config) (*Runner, error) {
	r := &Runner{
		Config: cfg,
		NewVolumeSweeper: func(ctx context.Context, region string) (VolumeSweeper, error) {
			return awsclient.NewEBSClient(ctx, region)
		},
		NewSnapshotAuditor: func(ctx context.Context, region string) (SnapshotAuditor, error) {
			return awsclient.NewSnapshotClient(ctx, region)
		},
		NewBucketSweeper: func(ctx context.Context) (BucketSweeper, error) {
			return awsclient.NewS3Sweeper(ctx, cfg.HomeRegion, cfg.EmptyBucketsOnly, cfg.StaleObjectDays)
		},
		ListRegions: func(ctx context.Context) ([]string, error) {
			lister, err := awsclient.NewRegionLister(ctx, cfg.HomeRegion)
			if err != nil {
				return nil, err
			}
			return lister.EnabledRegions(ctx)
		},
	}

	if cfg.TopicARN != "" {
		publisher, err := notify.NewPublisher(ctx, cfg.HomeRegion, cfg.TopicARN)
		if err != nil {
			return nil, err
		}
		r.Notifier = publisher
	}

	if cfg.DashboardName != "" {
		recorder, err := metrics.NewRecorder(ctx, cfg.HomeRegion)
		if err != nil {
			return nil, err
		}
		r.Metrics = recorder
	}

	return r, nil
}

// Run performs one sweep. Scan-level failures abort the invocation;
// per-resource delete failures are carried in the report.
// The report is published to the notifier exactly once.
func (r *Runner) Run(ctx context.Context) (*models.Report, error) {
	start := time.Now()

	regions, err := r.resolveRegions(ctx)
	if err != nil {
		return nil, err
	}

	rep := &models.Report{
		Mode:     r.Config.Mode.Label(),
		ScanTime: start,
		Regions:  regions,
	}

	if r.Config.SweepsService("ebs") {
		if err := r.sweepVolumes(ctx, regions, rep); err != nil {
			return nil, err
		}
		if err := r.auditSnapshots(ctx, regions, rep); err != nil {
			return nil, err
		}
	}

	if r.Config.SweepsService("s3") {
		if err := r.sweepBuckets(ctx, rep); err != nil {
			return nil, err
		}
	}

	for _, volume := range rep.StaleVolumes {
		rep.EstimatedMonthlySavings += volume.EstimatedSavings
	}

	rep.Duration = time.Since(start)

	if r.Metrics != nil {
		if err := r.Metrics.PutDashboard(ctx, r.Config.DashboardName, rep); err != nil {
			// The dashboard is cosmetic; a failed put should not lose the report
			log.Printf("Warning: %v", err)
		}
	}

	if r.Notifier != nil {
		if err := r.Notifier.Publish(ctx, report.Subject(rep), report.Body(rep)); err != nil {
			return nil, err
		}
	}

	return rep, nil
}

func (r *Runner) resolveRegions(ctx context.Context) ([]string, error) {
	if r.Config.AllRegions {
		return r.ListRegions(ctx)
	}
	if len(r.Config.Regions) > 0 {
		return r.Config.Regions, nil
	}
	return []string{r.Config.HomeRegion}, nil
}

// sweepVolumes fans out one goroutine per region, then folds the
// results into the report in region order
func (r *Runner) sweepVolumes(ctx context.Context, regions []string, rep *models.Report) error {
	results := make([]struct {
		sweep models.RegionSweep
		err   error
	}, len(regions))

	var wg sync.WaitGroup
	for i, region := range regions {
		wg.Add(1)
		go func(idx int, region string) {
			defer wg.Done()

			sweeper, err := r.NewVolumeSweeper(ctx, region)
			if err != nil {
				results[idx].err = err
				return
			}
			results[idx].sweep, results[idx].err = sweeper.Sweep(ctx, r.Config.Mode)
		}(i, region)
	}
	wg.Wait()

	for i, result := range results {
		if result.err != nil {
			return fmt.Errorf("sweep failed in region %s: %w", regions[i], result.err)
		}
		rep.TotalVolumes += result.sweep.TotalVolumes
		rep.StaleVolumes = append(rep.StaleVolumes, result.sweep.StaleVolumes...)
		rep.Actions = append(rep.Actions, result.sweep.Actions...)

		if r.Metrics != nil {
			if err := r.Metrics.PutVolumeCounts(ctx, regions[i],
				result.sweep.TotalVolumes, len(result.sweep.StaleVolumes)); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}

	return nil
}

func (r *Runner) auditSnapshots(ctx context.Context, regions []string, rep *models.Report) error {
	for _, region := range regions {
		auditor, err := r.NewSnapshotAuditor(ctx, region)
		if err != nil {
			return err
		}
		orphans, err := auditor.GetOrphanSnapshots(ctx)
		if err != nil {
			return fmt.Errorf("snapshot audit failed in region %s: %w", region, err)
		}
		rep.OrphanSnapshots = append(rep.OrphanSnapshots, orphans...)
	}
	return nil
}

func (r *Runner) sweepBuckets(ctx context.Context, rep *models.Report) error {
	sweeper, err := r.NewBucketSweeper(ctx)
	if err != nil {
		return err
	}

	total, stale, actions, err := sweeper.Sweep(ctx, r.Config.Mode)
	if err != nil {
		return err
	}

	rep.TotalBuckets = total
	rep.StaleBuckets = stale
	rep.BucketActions = actions
	return nil
}
