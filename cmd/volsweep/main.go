package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/volsweep/volsweep/internal/config"
	"github.com/volsweep/volsweep/internal/sweep"
	"github.com/volsweep/volsweep/internal/version"
	"github.com/volsweep/volsweep/pkg/formatter"
	"github.com/volsweep/volsweep/pkg/pricing"
	"github.com/volsweep/volsweep/pkg/utils"
)

var (
	regions       []string
	allRegions    bool
	services      []string
	modeFlag      string
	topicARN      string
	dashboardName string
	emptyOnly     bool
	staleDays     int
	assumeYes     bool
	showVersion   bool
)

var supportedServices = map[string]string{
	"ebs": "Find and reap unattached EBS volumes (plus orphan snapshot report)",
	"s3":  "Find and reap stale S3 buckets",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "volsweep",
		Short: "CLI tool to find and reap stale AWS storage resources",
		Long: `volsweep scans for stale (unattached) EBS volumes and stale S3
buckets, reports them, and optionally deletes them. The same engine
backs the scheduled Lambda; this command is for ad-hoc runs.`,
		RunE: run,
	}

	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	rootCmd.Flags().StringSliceVarP(&regions, "regions", "r", nil,
		fmt.Sprintf("AWS regions to sweep (comma separated, default: %s)", utils.GetDefaultRegion()))
	rootCmd.Flags().BoolVar(&allRegions, "all-regions", false, "Sweep every enabled region")
	rootCmd.Flags().StringSliceVarP(&services, "services", "s", []string{"ebs"},
		"Services to sweep (ebs, s3)")
	rootCmd.Flags().StringVarP(&modeFlag, "mode", "m", "notify",
		"Run mode: notify, dry-run or delete")
	rootCmd.Flags().StringVar(&topicARN, "topic-arn", "",
		"SNS topic ARN to publish the report to (empty: print only)")
	rootCmd.Flags().StringVar(&dashboardName, "dashboard", "",
		"CloudWatch dashboard name to publish (empty: no dashboard or metrics)")
	rootCmd.Flags().BoolVar(&emptyOnly, "empty-buckets-only", true,
		"Only treat empty S3 buckets as stale")
	rootCmd.Flags().IntVar(&staleDays, "stale-object-days", 0,
		"Object age in days before a non-empty bucket counts as stale")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false,
		"Skip the confirmation prompt in delete mode")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if showVersion {
		info := version.Get()
		fmt.Printf("volsweep version %s (built: %s, commit: %s, %s)\n",
			info.Version, info.BuildDate, info.GitCommit, info.GoVersion)
		return nil
	}

	mode, err := config.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	for _, service := range services {
		if _, ok := supportedServices[service]; !ok {
			return fmt.Errorf("unknown service %q (supported: ebs, s3)", service)
		}
	}

	validRegions, err := resolveRegionFlags()
	if err != nil {
		return err
	}

	cfg := config.Config{
		Regions:          validRegions,
		AllRegions:       allRegions,
		HomeRegion:       homeRegion(validRegions),
		Services:         services,
		Mode:             mode,
		TopicARN:         topicARN,
		DashboardName:    dashboardName,
		EmptyBucketsOnly: emptyOnly,
		StaleObjectDays:  staleDays,
	}

	if mode == config.ModeDelete && !assumeYes {
		if !confirm("This will permanently delete stale resources. Continue? [y/N] ") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	ctx := context.Background()
	runner, err := sweep.New(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Starting sweep (%s) ...\n", mode.Label())
	scanStartTime := time.Now()

	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = " Sweeping stale resources ..."
	s.Start()

	rep, err := runner.Run(ctx)

	scanDuration := time.Since(scanStartTime)
	if err != nil {
		s.FinalMSG = "✗ Sweep failed\n"
		s.Stop()
		return err
	}

	s.FinalMSG = fmt.Sprintf("✓ [%d stale volumes found] Sweep completed in %.2f seconds\n",
		rep.StaleCount(), scanDuration.Seconds())
	s.Stop()

	// Display API init message if any
	if msg := pricing.GetInitMessage(); msg != "" {
		fmt.Println(msg)
	}

	formatter.PrintVolumesTable(rep.StaleVolumes, scanStartTime, scanDuration)
	formatter.PrintVolumesSummary(rep.StaleVolumes)
	formatter.PrintActions(rep.Actions)

	if len(rep.OrphanSnapshots) > 0 {
		formatter.PrintSnapshotsTable(rep.OrphanSnapshots)
	}
	if cfg.SweepsService("s3") {
		formatter.PrintBucketsTable(rep.StaleBuckets)
		formatter.PrintActions(rep.BucketActions)
	}

	formatter.PrintPricingAPIStats()

	if topicARN != "" {
		fmt.Printf("\nReport published to %s\n", topicARN)
	}
	return nil
}

// resolveRegionFlags validates the --regions list, warning on and
// skipping unknown region codes
func resolveRegionFlags() ([]string, error) {
	if allRegions {
		return nil, nil
	}

	if len(regions) == 0 {
		return []string{utils.GetDefaultRegion()}, nil
	}

	var valid []string
	for _, region := range regions {
		if utils.IsValidRegion(region) {
			valid = append(valid, region)
		} else {
			fmt.Printf("Warning: Skipping invalid region '%s'\n", region)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid regions specified")
	}
	return valid, nil
}

func homeRegion(validRegions []string) string {
	if len(validRegions) > 0 {
		return validRegions[0]
	}
	return utils.GetDefaultRegion()
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
