package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/volsweep/volsweep/internal/config"
	"github.com/volsweep/volsweep/internal/models"
	"github.com/volsweep/volsweep/pkg/pricing"
	"github.com/volsweep/volsweep/pkg/utils"
)

// VolumesAPI is the subset of the EC2 API the EBS sweeper needs
type VolumesAPI interface {
	DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
	DeleteVolume(ctx context.Context, params *ec2.DeleteVolumeInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVolumeOutput, error)
}

// PriceFunc returns the estimated monthly cost for a volume and the
// pricing source ("API", "Cache", "Default" or "N/A")
type PriceFunc func(volumeType string, sizeGB int, region string) (float64, string)

// EBSClient scans and reaps EBS volumes in a single region
type EBSClient struct {
	api    VolumesAPI
	region string
	price  PriceFunc
}

// NewEBSClient creates an EBSClient backed by the real EC2 API
func NewEBSClient(ctx context.Context, region string) (*EBSClient, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return NewEBSClientFromAPI(ec2.NewFromConfig(cfg), region), nil
}

// NewEBSClientFromAPI creates an EBSClient with the given API implementation
func NewEBSClientFromAPI(api VolumesAPI, region string) *EBSClient {
	return &EBSClient{
		api:    api,
		region: region,
		price:  pricing.EBSMonthlyCost,
	}
}

// SetPriceFunc overrides the pricing lookup
func (c *EBSClient) SetPriceFunc(fn PriceFunc) {
	c.price = fn
}

// CountVolumes returns the total number of volumes in the region
func (c *EBSClient) CountVolumes(ctx context.Context) (int, error) {
	count := 0
	paginator := ec2.NewDescribeVolumesPaginator(c.api, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("error querying EBS volumes: %w", err)
		}
		count += len(page.Volumes)
	}
	return count, nil
}

// GetStaleVolumes returns all volumes in the 'available' state.
// A volume with no attachment record at scan time is stale; nothing else is.
func (c *EBSClient) GetStaleVolumes(ctx context.Context) ([]models.VolumeInfo, error) {
	input := &ec2.DescribeVolumesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("status"),
				Values: []string{"available"},
			},
		},
	}

	volumes := []models.VolumeInfo{}
	paginator := ec2.NewDescribeVolumesPaginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying available EBS volumes: %w", err)
		}
		for _, volume := range page.Volumes {
			volumes = append(volumes, c.toVolumeInfo(volume))
		}
	}

	return volumes, nil
}

func (c *EBSClient) toVolumeInfo(volume types.Volume) models.VolumeInfo {
	// Last attachment time falls back to creation time when the volume
	// has never been attached
	var lastAttachmentTime *time.Time
	for _, attachment := range volume.Attachments {
		if attachment.AttachTime == nil {
			continue
		}
		if lastAttachmentTime == nil || attachment.AttachTime.After(*lastAttachmentTime) {
			lastAttachmentTime = attachment.AttachTime
		}
	}

	var elapsedDays int
	if lastAttachmentTime != nil {
		elapsedDays = utils.CalculateElapsedDays(*lastAttachmentTime)
	} else if volume.CreateTime != nil {
		lastAttachmentTime = volume.CreateTime
		elapsedDays = utils.CalculateElapsedDays(*volume.CreateTime)
	}

	volumeType := string(volume.VolumeType)
	sizeGB := 0
	if volume.Size != nil {
		sizeGB = int(*volume.Size)
	}

	monthlyCost, pricingSource := c.price(volumeType, sizeGB, c.region)

	info := models.VolumeInfo{
		VolumeID:             utils.SafeDeref(volume.VolumeId),
		Name:                 utils.GetName(volume.Tags),
		Size:                 sizeGB,
		VolumeType:           volumeType,
		State:                string(volume.State),
		Region:               c.region,
		LastAttachmentTime:   lastAttachmentTime,
		ElapsedDaysSinceUsed: elapsedDays,
		EstimatedMonthlyCost: monthlyCost,
		EstimatedSavings:     monthlyCost,
		PricingSource:        pricingSource,
	}
	if volume.AvailabilityZone != nil {
		info.AvailabilityZone = *volume.AvailabilityZone
	}
	if volume.CreateTime != nil {
		info.CreationTime = *volume.CreateTime
	}
	return info
}

// DeleteVolume deletes a single volume. With dryRun set the call carries
// the EC2 DryRun flag and a DryRunOperation response counts as success.
func (c *EBSClient) DeleteVolume(ctx context.Context, volumeID string, dryRun bool) error {
	input := &ec2.DeleteVolumeInput{
		VolumeId: aws.String(volumeID),
	}
	if dryRun {
		input.DryRun = aws.Bool(true)
	}

	_, err := c.api.DeleteVolume(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if dryRun && errors.As(err, &apiErr) && apiErr.ErrorCode() == "DryRunOperation" {
			return nil
		}
		return fmt.Errorf("error deleting volume %s: %w", volumeID, err)
	}
	return nil
}

// VerifyDeleted re-enumerates the given volume IDs and returns those
// still present. Volumes in the deleting or deleted state are on their
// way out and do not count as present.
func (c *EBSClient) VerifyDeleted(ctx context.Context, volumeIDs []string) ([]string, error) {
	if len(volumeIDs) == 0 {
		return nil, nil
	}

	// Filter by volume-id instead of VolumeIds so missing volumes do not
	// turn the call into an InvalidVolume.NotFound error
	input := &ec2.DescribeVolumesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("volume-id"),
				Values: volumeIDs,
			},
		},
	}

	var remaining []string
	paginator := ec2.NewDescribeVolumesPaginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error verifying deleted volumes: %w", err)
		}
		for _, volume := range page.Volumes {
			if volume.State == types.VolumeStateDeleting || volume.State == types.VolumeStateDeleted {
				continue
			}
			remaining = append(remaining, utils.SafeDeref(volume.VolumeId))
		}
	}
	return remaining, nil
}

// Sweep scans the region and applies the configured mode to every stale
// volume. Per-volume delete failures are recorded in the returned
// actions, not raised as errors.
func (c *EBSClient) Sweep(ctx context.Context, mode config.Mode) (models.RegionSweep, error) {
	result := models.RegionSweep{Region: c.region}

	total, err := c.CountVolumes(ctx)
	if err != nil {
		return result, err
	}
	result.TotalVolumes = total

	stale, err := c.GetStaleVolumes(ctx)
	if err != nil {
		return result, err
	}
	result.StaleVolumes = stale

	var deleted []string
	for _, volume := range stale {
		action := models.Action{
			Region:     c.region,
			ResourceID: volume.VolumeID,
		}

		switch {
		case mode == config.ModeNotify:
			action.Kind = models.ActionFlagged
		case mode == config.ModeDryRun:
			if err := c.DeleteVolume(ctx, volume.VolumeID, true); err != nil {
				action.Kind = models.ActionError
				action.Err = err.Error()
			} else {
				action.Kind = models.ActionWouldDelete
			}
		default:
			if err := c.DeleteVolume(ctx, volume.VolumeID, false); err != nil {
				action.Kind = models.ActionError
				action.Err = err.Error()
			} else {
				action.Kind = models.ActionDeleted
				deleted = append(deleted, volume.VolumeID)
			}
		}

		result.Actions = append(result.Actions, action)
	}

	if len(deleted) > 0 {
		remaining, err := c.VerifyDeleted(ctx, deleted)
		if err != nil {
			return result, err
		}
		for _, id := range remaining {
			result.Actions = append(result.Actions, models.Action{
				Region:     c.region,
				ResourceID: id,
				Kind:       models.ActionError,
				Err:        "volume still present after deletion",
			})
		}
	}

	return result, nil
}
