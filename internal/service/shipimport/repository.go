package shipimport

import (
	"context"

	"github.com/ignite/shipment-importer/internal/domain"
)

// ShipmentCreator persists one shipment and its packages atomically.
type ShipmentCreator interface {
	// CreateShipment writes the shipment and every package in one
	// transaction and returns the new id and tracking code.
	CreateShipment(ctx context.Context, draft domain.ShipmentDraft) (*domain.CreatedShipment, error)
}

// DuplicateQuery describes a row about to be written.
type DuplicateQuery struct {
	SenderOrgID string
	Row         domain.NormalizedRow
	Location    domain.ResolvedLocation
	References  domain.ResolvedReferences
}

// DuplicateResult is a checker's verdict. ShipmentID names the existing
// record when Duplicate is true.
type DuplicateResult struct {
	Duplicate  bool
	ShipmentID string
	Reason     string
}

// DuplicateChecker decides whether a row repeats a recent shipment.
// What counts as a duplicate is the checker's own policy.
type DuplicateChecker interface {
	CheckDuplicate(ctx context.Context, q DuplicateQuery) (*DuplicateResult, error)
}

// RunStore persists import runs so retries can refer to them.
type RunStore interface {
	// Save stores or replaces a run.
	Save(ctx context.Context, run *domain.ImportRun) error

	// Get returns the run, or ErrRunNotFound.
	Get(ctx context.Context, id string) (*domain.ImportRun, error)
}

// Locker serializes commits for one sender across processes.
type Locker interface {
	// TryLock acquires key without blocking. ok is false when another
	// holder has it. release must be called once the work is done.
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}
