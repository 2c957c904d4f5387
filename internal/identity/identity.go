// Package identity resolves a stable identifier for the host running the
// agent, preferring the EC2 instance ID over the local hostname.
package identity

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/shirou/gopsutil/v3/host"
)

const resolveTimeout = 2 * time.Second

// MetadataAPI is the subset of the IMDS client used by the resolver.
type MetadataAPI interface {
	GetMetadata(ctx context.Context, params *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
}

// Resolver resolves the host identifier used in alert messages.
type Resolver struct {
	client MetadataAPI
}

// New creates a Resolver backed by the instance metadata service. An empty
// endpoint uses the well-known IMDS address; a non-empty one overrides it.
func New(endpoint string) *Resolver {
	opts := imds.Options{}
	if endpoint != "" {
		opts.Endpoint = endpoint
	}
	return &Resolver{
		client: imds.New(opts),
	}
}

// NewWithClient creates a Resolver with a custom metadata client. Intended
// for testing.
func NewWithClient(client MetadataAPI) *Resolver {
	return &Resolver{
		client: client,
	}
}

// Resolve returns the EC2 instance ID when the metadata service answers,
// falling back to the local hostname otherwise. It never fails: identity is
// best-effort and must not block the notification step.
func (r *Resolver) Resolve(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	out, err := r.client.GetMetadata(ctx, &imds.GetMetadataInput{Path: "instance-id"})
	if err != nil {
		logger.Log.Warn("Instance metadata unavailable, falling back to hostname", "err", err)
		return localHostname()
	}
	defer out.Content.Close()

	raw, err := io.ReadAll(out.Content)
	if err != nil {
		logger.Log.Warn("Failed to read instance metadata, falling back to hostname", "err", err)
		return localHostname()
	}

	instanceID := strings.TrimSpace(string(raw))
	if instanceID == "" {
		return localHostname()
	}
	return instanceID
}

func localHostname() string {
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "unknown-host"
}
