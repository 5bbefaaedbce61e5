// Package report renders the per-invocation sweep summary sent to the
// operator topic.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/volsweep/volsweep/internal/models"
)

// Subject builds the notification subject line
func Subject(r *models.Report) string {
	return fmt.Sprintf("Stale EBS Volume Report - Mode: %s", r.Mode)
}

// Body builds the notification body
func Body(r *models.Report) string {
	var b strings.Builder

	b.WriteString("Stale EBS Volume Report")
	if len(r.Regions) > 1 {
		b.WriteString(" (Across All Regions)")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Execution Mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "Regions Swept: %s\n\n", strings.Join(r.Regions, ", "))

	fmt.Fprintf(&b, "Total EBS Volumes: %d\n", r.TotalVolumes)
	fmt.Fprintf(&b, "Stale (Unattached) Volumes: %d\n", r.StaleCount())
	if r.EstimatedMonthlySavings > 0 {
		fmt.Fprintf(&b, "Estimated Monthly Savings: $%.2f\n", r.EstimatedMonthlySavings)
	}
	b.WriteString("\n")

	b.WriteString("Stale Volume IDs:\n")
	b.WriteString(joinOrPlaceholder(r.StaleVolumeIDs(), "No stale volumes."))
	b.WriteString("\n\n")

	b.WriteString("Deletion Results:\n")
	b.WriteString(joinOrPlaceholder(formatActions(r.Actions), "No volumes were deleted."))
	b.WriteString("\n")

	if len(r.OrphanSnapshots) > 0 {
		b.WriteString("\nOrphan Snapshots (source volume gone, not deleted):\n")
		for _, s := range r.OrphanSnapshots {
			fmt.Fprintf(&b, "%s: %s (%d GB, %d days old)\n",
				s.Region, s.SnapshotID, s.SizeGB, s.ElapsedDays)
		}
	}

	if r.TotalBuckets > 0 {
		fmt.Fprintf(&b, "\nTotal S3 Buckets: %d\n", r.TotalBuckets)
		fmt.Fprintf(&b, "Stale Buckets: %d\n\n", len(r.StaleBuckets))

		b.WriteString("Stale Bucket Names:\n")
		b.WriteString(joinOrPlaceholder(formatBuckets(r.StaleBuckets), "No stale buckets."))
		b.WriteString("\n\n")

		b.WriteString("Bucket Deletion Results:\n")
		b.WriteString(joinOrPlaceholder(formatActions(r.BucketActions), "No buckets were deleted."))
		b.WriteString("\n")
	}

	return b.String()
}

func formatActions(actions []models.Action) []string {
	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		line := fmt.Sprintf("%s: %s - %s", a.Region, a.ResourceID, a.Kind)
		if a.Err != "" {
			line += ": " + a.Err
		}
		lines = append(lines, line)
	}
	return lines
}

func formatBuckets(buckets []models.BucketInfo) []string {
	lines := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		detail := "empty"
		if !bucket.IsEmpty {
			detail = fmt.Sprintf("%d objects, %s, idle %d days",
				bucket.ObjectCount, humanize.Bytes(uint64(bucket.TotalSize)), bucket.IdleDays)
		}
		lines = append(lines, fmt.Sprintf("%s (Created: %s, %s)",
			bucket.BucketName, bucket.CreationTime.Format("2006-01-02"), detail))
	}
	return lines
}

func joinOrPlaceholder(lines []string, placeholder string) string {
	if len(lines) == 0 {
		return placeholder
	}
	return strings.Join(lines, "\n")
}
