package formatter

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/volsweep/volsweep/pkg/pricing"
)

// PrintPricingAPIStats prints the statistics of pricing API calls
func PrintPricingAPIStats() {
	stats := pricing.GetAPIStats()
	if len(stats) == 0 {
		return
	}

	fmt.Println("\n## AWS Pricing API Call Statistics")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tAPI CALLS\tSUCCESS\tFAILURE\tCACHE HITS\tSUCCESS RATE")

	regions := make([]string, 0, len(stats))
	for region := range stats {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	for _, region := range regions {
		counts := stats[region]
		success := counts["success"]
		failure := counts["failure"]
		cache := counts["cache"]
		total := success + failure

		successRate := 0.0
		if total > 0 {
			successRate = float64(success) / float64(total) * 100.0
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1f%%\n",
			region,
			total,
			success,
			failure,
			cache,
			successRate,
		)
	}

	w.Flush()
}
