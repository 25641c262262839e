// Package inference guesses a row's location from its free-text address.
//
// Two Inferrers are provided: Keyword, which scans the address for known
// department and locality names, and Remote, which delegates to an HTTP
// geocoding service. Either may return partial results; callers decide how
// to merge them with explicit columns.
package inference

import (
	"context"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/lookup"
)

// Result is what an Inferrer could work out from an address.
// Any field may be nil or empty.
type Result struct {
	DepartmentID   *int                `json:"department_id,omitempty"`
	LocalityID     *int                `json:"locality_id,omitempty"`
	LocalityManual *string             `json:"locality_manual,omitempty"`
	DeliveryType   domain.DeliveryType `json:"delivery_type,omitempty"`
	Warnings       []string            `json:"warnings,omitempty"`
}

// Inferrer infers a location from an address against a reference snapshot.
type Inferrer interface {
	Infer(ctx context.Context, address string, idx *lookup.Index) (*Result, error)
}
