package formatter

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/volsweep/volsweep/internal/models"
)

// PrintVolumesTable prints a formatted table of stale EBS volumes
func PrintVolumesTable(volumes []models.VolumeInfo, scanTime time.Time, scanDuration time.Duration) {
	if len(volumes) == 0 {
		fmt.Println("No stale EBS volumes found.")
		return
	}

	// Highest savings first
	sort.Slice(volumes, func(i, j int) bool {
		return volumes[i].EstimatedSavings > volumes[j].EstimatedSavings
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tVOLUME ID\tREGION\tTYPE\tSIZE\tSTATE\tUNUSED DAYS\tMONTHLY SAVINGS\tPRICING")

	for _, volume := range volumes {
		name := volume.Name
		if name == "" {
			name = "N/A"
		}

		savings := "N/A"
		if volume.PricingSource != "N/A" {
			savings = fmt.Sprintf("$%.2f", volume.EstimatedSavings)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d GB\t%s\t%d\t%s\t%s\n",
			name,
			volume.VolumeID,
			volume.Region,
			volume.VolumeType,
			volume.Size,
			volume.State,
			volume.ElapsedDaysSinceUsed,
			savings,
			volume.PricingSource,
		)
	}

	printVolumeTotals(w, volumes)
	w.Flush()

	printTimestamp(scanTime, scanDuration)
}

func printVolumeTotals(w *tabwriter.Writer, volumes []models.VolumeInfo) {
	totalSize := 0
	var totalSavings float64
	for _, volume := range volumes {
		totalSize += volume.Size
		totalSavings += volume.EstimatedSavings
	}

	fmt.Fprintf(w, "Total:\t\t\t\t%d GB\t\t\t$%.2f\t\n", totalSize, totalSavings)
}

// PrintVolumesSummary displays per-type summary information about volumes
func PrintVolumesSummary(volumes []models.VolumeInfo) {
	if len(volumes) == 0 {
		return
	}

	volumeTypes := make(map[string]struct {
		count   int
		size    int
		savings float64
	})
	for _, volume := range volumes {
		typeInfo := volumeTypes[volume.VolumeType]
		typeInfo.count++
		typeInfo.size += volume.Size
		typeInfo.savings += volume.EstimatedSavings
		volumeTypes[volume.VolumeType] = typeInfo
	}

	fmt.Println("\n## Stale EBS Volumes Summary")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "VOLUME TYPE\tCOUNT\tTOTAL SIZE\tPOTENTIAL MONTHLY SAVINGS")

	types := make([]string, 0, len(volumeTypes))
	for volumeType := range volumeTypes {
		types = append(types, volumeType)
	}
	sort.Strings(types)

	for _, volumeType := range types {
		info := volumeTypes[volumeType]
		fmt.Fprintf(w, "%s\t%d\t%d GB\t$%.2f\n",
			volumeType,
			info.count,
			info.size,
			info.savings,
		)
	}

	w.Flush()
}

// PrintActions prints the per-volume outcome list
func PrintActions(actions []models.Action) {
	if len(actions) == 0 {
		return
	}

	fmt.Println("\n## Actions")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tRESOURCE\tACTION\tERROR")
	for _, action := range actions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			action.Region,
			action.ResourceID,
			action.Kind,
			action.Err,
		)
	}
	w.Flush()
}
