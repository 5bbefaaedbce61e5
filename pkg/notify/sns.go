package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the subset of the SNS API the publisher needs
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends the sweep report to an SNS topic
type Publisher struct {
	api      SNSAPI
	topicARN string
}

// NewPublisher creates a Publisher backed by the real SNS API.
// The region must be the one hosting the topic.
func NewPublisher(ctx context.Context, region, topicARN string) (*Publisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config for SNS: %w", err)
	}
	return NewPublisherFromAPI(sns.NewFromConfig(cfg), topicARN), nil
}

// NewPublisherFromAPI creates a Publisher with the given API implementation
func NewPublisherFromAPI(api SNSAPI, topicARN string) *Publisher {
	return &Publisher{api: api, topicARN: topicARN}
}

// Publish sends one message to the topic
func (p *Publisher) Publish(ctx context.Context, subject, body string) error {
	// SNS caps subjects at 100 characters
	if len(subject) > 100 {
		subject = subject[:100]
	}

	_, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("error publishing to %s: %w", p.topicARN, err)
	}
	return nil
}
