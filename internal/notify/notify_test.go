package notify

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitDiscard()
	os.Exit(m.Run())
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestPublishSendsSubjectAndBody(t *testing.T) {
	fake := &fakeSNS{}
	n := NewSNSWithClient(fake, "arn:aws:sns:us-east-1:123456789012:disk-alerts")

	err := n.Publish(context.Background(), "Disk usage alert", "details")
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)
	require.Equal(t, "arn:aws:sns:us-east-1:123456789012:disk-alerts", aws.ToString(fake.inputs[0].TopicArn))
	require.Equal(t, "Disk usage alert", aws.ToString(fake.inputs[0].Subject))
	require.Equal(t, "details", aws.ToString(fake.inputs[0].Message))
}

func TestPublishPropagatesError(t *testing.T) {
	fake := &fakeSNS{err: errors.New("AuthorizationError: not authorized to publish")}
	n := NewSNSWithClient(fake, "arn:aws:sns:us-east-1:123456789012:disk-alerts")

	err := n.Publish(context.Background(), "subject", "body")
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk-alerts")
}

func TestNewSNSRejectsEmptyTopic(t *testing.T) {
	_, err := NewSNS(context.Background(), "us-east-1", "")
	require.Error(t, err)
}
