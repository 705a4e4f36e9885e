package firestore

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/canvas-market/api/internal/platform/firestore"
	"github.com/canvas-market/api/internal/repositories"
)

// HealthRepository probes Firestore reachability.
type HealthRepository struct {
	provider *pfirestore.Provider
}

// NewHealthRepository constructs a Firestore health probe.
func NewHealthRepository(provider *pfirestore.Provider) (*HealthRepository, error) {
	if provider == nil {
		return nil, errors.New("health repository requires firestore provider")
	}
	return &HealthRepository{provider: provider}, nil
}

// Ping issues a cheap read against a sentinel document. A missing document
// still proves the backend answered.
func (r *HealthRepository) Ping(ctx context.Context) error {
	client := r.provider.Client()
	if client == nil {
		return errors.New("health repository: firestore client not initialised")
	}

	_, err := client.Collection("health").Doc("probe").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return pfirestore.WrapError("health.ping", err)
	}
	return nil
}

// Ensure interface compliance.
var _ repositories.HealthRepository = (*HealthRepository)(nil)
