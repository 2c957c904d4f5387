package identity

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitDiscard()
	os.Exit(m.Run())
}

type fakeMetadata struct {
	body string
	err  error
}

func (f *fakeMetadata) GetMetadata(ctx context.Context, params *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &imds.GetMetadataOutput{
		Content: io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func TestResolveReturnsInstanceID(t *testing.T) {
	r := NewWithClient(&fakeMetadata{body: "i-0abc123def456\n"})
	require.Equal(t, "i-0abc123def456", r.Resolve(context.Background()))
}

func TestResolveFallsBackOnError(t *testing.T) {
	r := NewWithClient(&fakeMetadata{err: errors.New("request canceled")})

	got := r.Resolve(context.Background())
	hostname, err := os.Hostname()
	require.NoError(t, err)
	require.Equal(t, hostname, got)
}

func TestResolveFallsBackOnEmptyResponse(t *testing.T) {
	r := NewWithClient(&fakeMetadata{body: "  \n"})

	got := r.Resolve(context.Background())
	require.NotEmpty(t, got)
	require.False(t, strings.HasPrefix(got, "i-"))
}
