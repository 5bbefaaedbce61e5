package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/volsweep/volsweep/internal/models"
	"github.com/volsweep/volsweep/pkg/utils"
)

// Snapshots of deleted volumes reference this placeholder volume ID
const deletedVolumePlaceholder = "vol-ffffffff"

// SnapshotsAPI is the subset of the EC2 API the snapshot auditor needs
type SnapshotsAPI interface {
	DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
	DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
}

// SnapshotClient audits EBS snapshots in a single region
type SnapshotClient struct {
	api    SnapshotsAPI
	region string
}

// NewSnapshotClient creates a SnapshotClient backed by the real EC2 API
func NewSnapshotClient(ctx context.Context, region string) (*SnapshotClient, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return NewSnapshotClientFromAPI(ec2.NewFromConfig(cfg), region), nil
}

// NewSnapshotClientFromAPI creates a SnapshotClient with the given API implementation
func NewSnapshotClientFromAPI(api SnapshotsAPI, region string) *SnapshotClient {
	return &SnapshotClient{api: api, region: region}
}

// GetOrphanSnapshots returns snapshots owned by the account whose source
// volume no longer exists. Snapshots are never deleted, only reported.
func (c *SnapshotClient) GetOrphanSnapshots(ctx context.Context) ([]models.SnapshotInfo, error) {
	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	}

	var snapshots []types.Snapshot
	paginator := ec2.NewDescribeSnapshotsPaginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying snapshots: %w", err)
		}
		snapshots = append(snapshots, page.Snapshots...)
	}

	volumeIDs := make([]string, 0, len(snapshots))
	seen := make(map[string]bool)
	for _, snapshot := range snapshots {
		id := utils.SafeDeref(snapshot.VolumeId)
		if id == "" || id == deletedVolumePlaceholder || seen[id] {
			continue
		}
		seen[id] = true
		volumeIDs = append(volumeIDs, id)
	}

	existing, err := c.existingVolumeIDs(ctx, volumeIDs)
	if err != nil {
		return nil, err
	}

	var orphans []models.SnapshotInfo
	for _, snapshot := range snapshots {
		volumeID := utils.SafeDeref(snapshot.VolumeId)
		if volumeID != "" && volumeID != deletedVolumePlaceholder && existing[volumeID] {
			continue
		}

		info := models.SnapshotInfo{
			SnapshotID:  utils.SafeDeref(snapshot.SnapshotId),
			VolumeID:    volumeID,
			Description: utils.SafeDeref(snapshot.Description),
			Region:      c.region,
		}
		if snapshot.VolumeSize != nil {
			info.SizeGB = int(*snapshot.VolumeSize)
		}
		if snapshot.StartTime != nil {
			info.StartTime = *snapshot.StartTime
			info.ElapsedDays = utils.CalculateElapsedDays(*snapshot.StartTime)
		}
		orphans = append(orphans, info)
	}

	return orphans, nil
}

// existingVolumeIDs resolves which of the given volume IDs still exist.
// The volume-id filter tolerates missing volumes, unlike VolumeIds.
func (c *SnapshotClient) existingVolumeIDs(ctx context.Context, volumeIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)

	// DescribeVolumes caps filter values, so chunk the lookups
	const chunkSize = 200
	for start := 0; start < len(volumeIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(volumeIDs) {
			end = len(volumeIDs)
		}

		input := &ec2.DescribeVolumesInput{
			Filters: []types.Filter{
				{
					Name:   aws.String("volume-id"),
					Values: volumeIDs[start:end],
				},
			},
		}

		paginator := ec2.NewDescribeVolumesPaginator(c.api, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("error resolving snapshot source volumes: %w", err)
			}
			for _, volume := range page.Volumes {
				existing[utils.SafeDeref(volume.VolumeId)] = true
			}
		}
	}

	return existing, nil
}
