// Package notify publishes alert messages to a pre-provisioned SNS topic.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/diskwatch/agent/pkg/logger"
)

// Notifier delivers one subject+body message per call.
type Notifier interface {
	Publish(ctx context.Context, subject, body string) error
}

// PublishAPI is the subset of the SNS client used by the notifier.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes to a single topic using ambient role credentials
// resolved by the SDK's default chain. No secrets live in agent config.
type SNSNotifier struct {
	client   PublishAPI
	topicARN string
}

// NewSNS creates a notifier for the given topic ARN. The region may be empty,
// in which case the SDK's default resolution applies.
func NewSNS(ctx context.Context, region, topicARN string) (*SNSNotifier, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("topic ARN must not be empty")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &SNSNotifier{
		client:   sns.NewFromConfig(cfg),
		topicARN: topicARN,
	}, nil
}

// NewSNSWithClient creates a notifier with a custom SNS client. Intended for
// testing.
func NewSNSWithClient(client PublishAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
	}
}

// Publish sends one message to the topic. A failed publish is an error for
// the whole run; an alert that silently goes nowhere is the exact failure
// mode this agent exists to prevent.
func (n *SNSNotifier) Publish(ctx context.Context, subject, body string) error {
	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.topicARN, err)
	}

	logger.Log.Info("Alert published", "topic", n.topicARN, "messageID", aws.ToString(out.MessageId))
	return nil
}
