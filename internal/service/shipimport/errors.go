package shipimport

import "errors"

// Sentinel errors for the shipment import service layer.
var (
	ErrTooManyRows      = errors.New("too many rows in import")
	ErrMissingSender    = errors.New("defaults must include sender_org_id")
	ErrRunNotFound      = errors.New("import run not found")
	ErrImportInProgress = errors.New("another import for this sender is in progress")
)
