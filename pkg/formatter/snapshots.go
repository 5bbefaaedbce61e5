package formatter

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/volsweep/volsweep/internal/models"
)

// PrintSnapshotsTable prints a formatted table of orphan snapshots
func PrintSnapshotsTable(snapshots []models.SnapshotInfo) {
	if len(snapshots) == 0 {
		fmt.Println("No orphan snapshots found.")
		return
	}

	// Oldest first
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ElapsedDays > snapshots[j].ElapsedDays
	})

	fmt.Println("\n## Orphan Snapshots (source volume gone)")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SNAPSHOT ID\tSOURCE VOLUME\tREGION\tSIZE\tAGE (DAYS)\tDESCRIPTION")

	for _, snapshot := range snapshots {
		description := snapshot.Description
		if len(description) > 40 {
			description = description[:38] + ".."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d GB\t%d\t%s\n",
			snapshot.SnapshotID,
			snapshot.VolumeID,
			snapshot.Region,
			snapshot.SizeGB,
			snapshot.ElapsedDays,
			description,
		)
	}

	w.Flush()
}
