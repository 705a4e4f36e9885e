package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/canvas-market/api/internal/platform/config"
)

const (
	defaultDialTimeout = 10 * time.Second
	envEmulatorHost    = "FIRESTORE_EMULATOR_HOST"
	envGoogleProjectID = "GOOGLE_CLOUD_PROJECT"
)

// Provider owns the shared Firestore client for the process.
type Provider struct {
	client *firestore.Client
}

// ProviderOption customises client construction.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	dialTimeout time.Duration
	clientOpts  []option.ClientOption
}

// WithDialTimeout overrides the timeout used when creating the client.
func WithDialTimeout(timeout time.Duration) ProviderOption {
	return func(o *providerOptions) {
		if timeout > 0 {
			o.dialTimeout = timeout
		}
	}
}

// WithClientOptions appends client options applied during initialisation.
func WithClientOptions(opts ...option.ClientOption) ProviderOption {
	return func(o *providerOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// NewProvider dials Firestore using the supplied configuration. The connection is
// established eagerly so misconfiguration surfaces at startup rather than on the
// first request.
func NewProvider(ctx context.Context, cfg config.FirestoreConfig, opts ...ProviderOption) (*Provider, error) {
	options := providerOptions{dialTimeout: defaultDialTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		projectID = strings.TrimSpace(os.Getenv(envGoogleProjectID))
	}
	if projectID == "" {
		return nil, errors.New("firestore: project id is required")
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if options.dialTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, options.dialTimeout)
		defer cancel()
	}

	clientOpts := append([]option.ClientOption(nil), options.clientOpts...)
	if host := emulatorHost(cfg); host != "" {
		if os.Getenv(envEmulatorHost) == "" {
			_ = os.Setenv(envEmulatorHost, host)
		}
		clientOpts = append(clientOpts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	client, err := firestore.NewClient(dialCtx, projectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return &Provider{client: client}, nil
}

// Client returns the shared Firestore client.
func (p *Provider) Client() *firestore.Client {
	return p.client
}

// Close releases the underlying Firestore client.
func (p *Provider) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

// RunTransaction executes fn inside a Firestore transaction.
func (p *Provider) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx *firestore.Transaction) error) error {
	if err := p.client.RunTransaction(ctx, fn); err != nil {
		return WrapError("firestore.transaction", err)
	}
	return nil
}

func emulatorHost(cfg config.FirestoreConfig) string {
	if trimmed := strings.TrimSpace(cfg.EmulatorHost); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv(envEmulatorHost))
}
