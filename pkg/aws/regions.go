package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/volsweep/volsweep/pkg/utils"
)

// RegionsAPI is the subset of the EC2 API needed to enumerate regions
type RegionsAPI interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// RegionLister enumerates the regions enabled for the account
type RegionLister struct {
	api RegionsAPI
}

// NewRegionLister creates a RegionLister backed by the real EC2 API
func NewRegionLister(ctx context.Context, region string) (*RegionLister, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return NewRegionListerFromAPI(ec2.NewFromConfig(cfg)), nil
}

// NewRegionListerFromAPI creates a RegionLister with the given API implementation
func NewRegionListerFromAPI(api RegionsAPI) *RegionLister {
	return &RegionLister{api: api}
}

// EnabledRegions returns the sorted region codes enabled for the account
func (l *RegionLister) EnabledRegions(ctx context.Context) ([]string, error) {
	resp, err := l.api.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("error enumerating regions: %w", err)
	}

	regions := make([]string, 0, len(resp.Regions))
	for _, r := range resp.Regions {
		regions = append(regions, utils.SafeDeref(r.RegionName))
	}
	sort.Strings(regions)
	return regions, nil
}
