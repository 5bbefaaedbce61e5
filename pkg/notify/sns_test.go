package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNSAPI struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNSAPI) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func TestPublish(t *testing.T) {
	api := &fakeSNSAPI{}
	publisher := NewPublisherFromAPI(api, "arn:aws:sns:ap-south-1:111122223333:stale-ebs")

	err := publisher.Publish(context.Background(), "Stale EBS Volume Report", "report body")
	require.NoError(t, err)

	require.Len(t, api.inputs, 1)
	input := api.inputs[0]
	assert.Equal(t, "arn:aws:sns:ap-south-1:111122223333:stale-ebs", *input.TopicArn)
	assert.Equal(t, "Stale EBS Volume Report", *input.Subject)
	assert.Equal(t, "report body", *input.Message)
}

func TestPublish_truncatesLongSubject(t *testing.T) {
	api := &fakeSNSAPI{}
	publisher := NewPublisherFromAPI(api, "arn:topic")

	err := publisher.Publish(context.Background(), strings.Repeat("x", 150), "body")
	require.NoError(t, err)

	require.Len(t, api.inputs, 1)
	assert.Len(t, *api.inputs[0].Subject, 100)
}

func TestPublish_error(t *testing.T) {
	publisher := NewPublisherFromAPI(&fakeSNSAPI{err: assert.AnError}, "arn:topic")

	err := publisher.Publish(context.Background(), "subject", "body")
	assert.ErrorContains(t, err, "error publishing to arn:topic")
}
