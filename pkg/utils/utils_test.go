package utils

import (
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
)

func TestGetRegionDescriptiveName(t *testing.T) {
	assert.Equal(t, "Asia Pacific (Mumbai)", GetRegionDescriptiveName("ap-south-1"))
	assert.Equal(t, "US East (N. Virginia)", GetRegionDescriptiveName("not-a-region"))
}

func TestIsValidRegion(t *testing.T) {
	assert.True(t, IsValidRegion("us-east-1"))
	assert.True(t, IsValidRegion("eu-west-2"))
	assert.False(t, IsValidRegion("mars-north-1"))
	assert.False(t, IsValidRegion(""))
}

func TestCalculateElapsedDays(t *testing.T) {
	assert.Equal(t, 30, CalculateElapsedDays(time.Now().AddDate(0, 0, -30)))
	assert.Equal(t, 0, CalculateElapsedDays(time.Now()))
}

func TestGetTagValue(t *testing.T) {
	tags := []types.Tag{
		{Key: awssdk.String("Name"), Value: awssdk.String("data-volume")},
		{Key: awssdk.String("Team"), Value: awssdk.String("platform")},
		{Key: awssdk.String("Empty")},
	}

	assert.Equal(t, "platform", GetTagValue(tags, "Team"))
	assert.Equal(t, "", GetTagValue(tags, "Empty"))
	assert.Equal(t, "", GetTagValue(tags, "Missing"))
	assert.Equal(t, "data-volume", GetName(tags))
	assert.Equal(t, "", GetName(nil))
}

func TestSafeDeref(t *testing.T) {
	assert.Equal(t, "", SafeDeref(nil))
	assert.Equal(t, "vol-1", SafeDeref(awssdk.String("vol-1")))
}
