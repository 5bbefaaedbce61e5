package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Namespace holds the custom metrics the sweep publishes
const Namespace = "Custom/EBSMetrics"

// CloudWatchAPI is the subset of the CloudWatch API the recorder needs
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
	PutDashboard(ctx context.Context, params *cloudwatch.PutDashboardInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutDashboardOutput, error)
}

// Recorder publishes sweep metrics and the operator dashboard
type Recorder struct {
	api CloudWatchAPI
	now func() time.Time
}

// NewRecorder creates a Recorder backed by the real CloudWatch API.
// Metrics carry a Region dimension, so a single client in the home
// region records for every swept region.
func NewRecorder(ctx context.Context, region string) (*Recorder, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config for CloudWatch: %w", err)
	}
	return NewRecorderFromAPI(cloudwatch.NewFromConfig(cfg)), nil
}

// NewRecorderFromAPI creates a Recorder with the given API implementation
func NewRecorderFromAPI(api CloudWatchAPI) *Recorder {
	return &Recorder{api: api, now: time.Now}
}

// PutVolumeCounts records the total and stale volume counts for a region
func (r *Recorder) PutVolumeCounts(ctx context.Context, region string, total, stale int) error {
	timestamp := r.now()
	dimensions := []types.Dimension{
		{
			Name:  aws.String("Region"),
			Value: aws.String(region),
		},
	}

	_, err := r.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(Namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("TotalVolumeCount"),
				Dimensions: dimensions,
				Value:      aws.Float64(float64(total)),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(timestamp),
			},
			{
				MetricName: aws.String("AvailableVolumeCount"),
				Dimensions: dimensions,
				Value:      aws.Float64(float64(stale)),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(timestamp),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error putting metrics for region %s: %w", region, err)
	}
	return nil
}
