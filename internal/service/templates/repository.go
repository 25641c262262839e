package templates

import (
	"context"

	"github.com/ignite/shipment-importer/internal/domain"
)

// Repository persists import templates.
type Repository interface {
	// ListByOwner returns every template of an organization, newest first.
	ListByOwner(ctx context.Context, ownerOrgID string) ([]domain.ImportTemplate, error)

	// Get returns one template or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.ImportTemplate, error)

	// Create inserts a template. It returns ErrDuplicateName when the owner
	// already has a template with that name.
	Create(ctx context.Context, t *domain.ImportTemplate) error

	// Update replaces name, signature, mapping and defaults.
	Update(ctx context.Context, t *domain.ImportTemplate) error
}
