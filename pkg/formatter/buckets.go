package formatter

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/volsweep/volsweep/internal/models"
)

// PrintBucketsTable prints a formatted table of stale S3 buckets
func PrintBucketsTable(buckets []models.BucketInfo) {
	if len(buckets) == 0 {
		fmt.Println("No stale S3 buckets found.")
		return
	}

	fmt.Println("\n## Stale S3 Buckets")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tREGION\tCREATED\tOBJECTS\tSIZE\tIDLE DAYS")

	for _, bucket := range buckets {
		size := "empty"
		idleDays := "-"
		if !bucket.IsEmpty {
			size = humanize.Bytes(uint64(bucket.TotalSize))
			idleDays = fmt.Sprintf("%d", bucket.IdleDays)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			bucket.BucketName,
			bucket.Region,
			bucket.CreationTime.Format("2006-01-02"),
			bucket.ObjectCount,
			size,
			idleDays,
		)
	}

	w.Flush()
}
