package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Mode controls what the sweeper does with stale resources
type Mode string

const (
	// ModeNotify reports stale resources without touching them
	ModeNotify Mode = "notify"

	// ModeDryRun issues delete calls with the EC2 DryRun flag set
	ModeDryRun Mode = "dry-run"

	// ModeDelete actually deletes stale resources
	ModeDelete Mode = "delete"
)

// ParseMode parses a mode string, case-insensitively
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeNotify), "notify-only":
		return ModeNotify, nil
	case string(ModeDryRun), "dryrun":
		return ModeDryRun, nil
	case string(ModeDelete):
		return ModeDelete, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected notify, dry-run or delete)", s)
	}
}

// Label returns the mode string used in report subjects and bodies
func (m Mode) Label() string {
	switch m {
	case ModeDelete:
		return "ACTIVE DELETION"
	case ModeDryRun:
		return "DRY RUN"
	default:
		return "NOTIFY ONLY"
	}
}

// Deletes reports whether this mode issues delete API calls at all
func (m Mode) Deletes() bool {
	return m == ModeDelete || m == ModeDryRun
}

// Config holds the runtime configuration shared by the CLI and the Lambda
type Config struct {
	// Regions to sweep. Ignored when AllRegions is set.
	Regions []string

	// AllRegions resolves the region list via DescribeRegions.
	AllRegions bool

	// HomeRegion hosts the SNS topic and the dashboard.
	HomeRegion string

	// Services to sweep ("ebs", "s3").
	Services []string

	Mode Mode

	// TopicARN is the SNS topic the report is published to.
	// Empty disables notification (CLI default).
	TopicARN string

	// DashboardName is the CloudWatch dashboard to publish.
	// Empty disables dashboard and metric publishing.
	DashboardName string

	// EmptyBucketsOnly restricts S3 staleness to empty buckets.
	EmptyBucketsOnly bool

	// StaleObjectDays is the object age threshold used when
	// EmptyBucketsOnly is off.
	StaleObjectDays int
}

// DefaultDashboardName matches the dashboard the scheduled job maintains
const DefaultDashboardName = "Global-EBSVolumeDashboard"

// FromEnv builds a Config from the Lambda environment
func FromEnv() (Config, error) {
	mode, err := ParseMode(os.Getenv("MODE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AllRegions:       envBool("ALL_REGIONS", false),
		HomeRegion:       firstNonEmpty(os.Getenv("HOME_REGION"), os.Getenv("AWS_REGION"), "us-east-1"),
		Mode:             mode,
		TopicARN:         os.Getenv("SNS_TOPIC_ARN"),
		DashboardName:    firstNonEmpty(os.Getenv("DASHBOARD_NAME"), DefaultDashboardName),
		EmptyBucketsOnly: envBool("EMPTY_BUCKETS_ONLY", true),
		StaleObjectDays:  envInt("STALE_OBJECT_DAYS", 0),
	}

	if regions := os.Getenv("REGIONS"); regions != "" {
		cfg.Regions = splitList(regions)
	}
	if services := os.Getenv("SERVICES"); services != "" {
		cfg.Services = splitList(services)
	} else {
		cfg.Services = []string{"ebs"}
	}

	if cfg.TopicARN == "" {
		return Config{}, fmt.Errorf("SNS_TOPIC_ARN is not set")
	}

	return cfg, nil
}

// SweepsService reports whether the named service is enabled
func (c Config) SweepsService(name string) bool {
	for _, s := range c.Services {
		if s == name {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
