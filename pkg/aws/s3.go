package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/volsweep/volsweep/internal/config"
	"github.com/volsweep/volsweep/internal/models"
	"github.com/volsweep/volsweep/pkg/utils"
)

// S3API is the subset of the S3 API the bucket sweeper needs
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
}

// S3Sweeper finds and optionally deletes stale S3 buckets.
// Bucket listing is account-global, so one sweeper covers the account.
type S3Sweeper struct {
	api S3API

	// emptyOnly restricts staleness to buckets with no objects
	emptyOnly bool

	// staleDays is the object age threshold used when emptyOnly is off
	staleDays int

	now func() time.Time
}

// NewS3Sweeper creates an S3Sweeper backed by the real S3 API
func NewS3Sweeper(ctx context.Context, region string, emptyOnly bool, staleDays int) (*S3Sweeper, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return NewS3SweeperFromAPI(client, emptyOnly, staleDays), nil
}

// NewS3SweeperFromAPI creates an S3Sweeper with the given API implementation
func NewS3SweeperFromAPI(api S3API, emptyOnly bool, staleDays int) *S3Sweeper {
	return &S3Sweeper{
		api:       api,
		emptyOnly: emptyOnly,
		staleDays: staleDays,
		now:       time.Now,
	}
}

// Sweep classifies every bucket in the account and applies the mode to
// the stale ones. Per-bucket failures are recorded as actions; only the
// initial listing failure is fatal.
func (s *S3Sweeper) Sweep(ctx context.Context, mode config.Mode) (int, []models.BucketInfo, []models.Action, error) {
	resp, err := s.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return 0, nil, nil, fmt.Errorf("error listing S3 buckets: %w", err)
	}

	var stale []models.BucketInfo
	var actions []models.Action

	for _, bucket := range resp.Buckets {
		name := utils.SafeDeref(bucket.Name)

		info, isStale, err := s.classifyBucket(ctx, name)
		if err != nil {
			// Inaccessible buckets are skipped, as the original job did
			continue
		}
		if !isStale {
			continue
		}

		if bucket.CreationDate != nil {
			info.CreationTime = *bucket.CreationDate
		}
		info.Region = s.bucketRegion(ctx, name)
		stale = append(stale, info)

		action := models.Action{
			Region:     info.Region,
			ResourceID: name,
		}
		switch mode {
		case config.ModeDelete:
			if err := s.deleteBucket(ctx, name); err != nil {
				action.Kind = models.ActionError
				action.Err = err.Error()
			} else {
				action.Kind = models.ActionDeleted
			}
		case config.ModeDryRun:
			// S3 has no DryRun flag; record the intent only
			action.Kind = models.ActionWouldDelete
		default:
			action.Kind = models.ActionFlagged
		}
		actions = append(actions, action)
	}

	return len(resp.Buckets), stale, actions, nil
}

// classifyBucket walks the bucket contents and decides staleness
func (s *S3Sweeper) classifyBucket(ctx context.Context, name string) (models.BucketInfo, bool, error) {
	info := models.BucketInfo{BucketName: name}

	var newest *time.Time
	input := &s3.ListObjectsV2Input{Bucket: aws.String(name)}
	for {
		resp, err := s.api.ListObjectsV2(ctx, input)
		if err != nil {
			return models.BucketInfo{}, false, fmt.Errorf("error checking bucket %s: %w", name, err)
		}

		for _, obj := range resp.Contents {
			info.ObjectCount++
			if obj.Size != nil {
				info.TotalSize += *obj.Size
			}
			if obj.LastModified == nil {
				continue
			}
			if newest == nil || obj.LastModified.After(*newest) {
				newest = obj.LastModified
			}
		}

		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		input.ContinuationToken = resp.NextContinuationToken
	}

	info.IsEmpty = info.ObjectCount == 0
	if info.IsEmpty {
		return info, true, nil
	}
	if s.emptyOnly {
		return info, false, nil
	}

	// Every object must be older than the threshold
	if newest == nil {
		return info, false, nil
	}
	info.LastModified = newest
	info.IdleDays = int(s.now().Sub(*newest).Hours() / 24)

	return info, info.IdleDays >= s.staleDays, nil
}

// bucketRegion resolves the bucket's region, defaulting to us-east-1
func (s *S3Sweeper) bucketRegion(ctx context.Context, name string) string {
	resp, err := s.api.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(name),
	})
	if err != nil || resp.LocationConstraint == "" {
		return "us-east-1"
	}
	return string(resp.LocationConstraint)
}

// deleteBucket empties the bucket (objects, versions and delete markers)
// and then deletes it
func (s *S3Sweeper) deleteBucket(ctx context.Context, name string) error {
	for {
		resp, err := s.api.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
			Bucket: aws.String(name),
		})
		if err != nil {
			return fmt.Errorf("error listing versions in bucket %s: %w", name, err)
		}

		var objects []types.ObjectIdentifier
		for _, version := range resp.Versions {
			objects = append(objects, types.ObjectIdentifier{
				Key:       version.Key,
				VersionId: version.VersionId,
			})
		}
		for _, marker := range resp.DeleteMarkers {
			objects = append(objects, types.ObjectIdentifier{
				Key:       marker.Key,
				VersionId: marker.VersionId,
			})
		}

		if len(objects) == 0 {
			break
		}

		_, err = s.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(name),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("error emptying bucket %s: %w", name, err)
		}

		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
	}

	_, err := s.api.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("error deleting bucket %s: %w", name, err)
	}
	return nil
}
