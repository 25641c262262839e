package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/shipment-importer/internal/service/shipimport"
)

// DefaultDuplicateWindow is how far back DuplicateRepo looks.
const DefaultDuplicateWindow = 72 * time.Hour

// DuplicateRepo implements shipimport.DuplicateChecker. A row duplicates a
// shipment of the same sender created within the window when recipient
// name, phone and address match (case-insensitively for text) and the
// delivery type, locality, service type and agency are the same.
type DuplicateRepo struct {
	db     *sql.DB
	window time.Duration
	now    func() time.Time
}

// NewDuplicateRepo creates a Postgres-backed duplicate checker. A zero
// window means DefaultDuplicateWindow.
func NewDuplicateRepo(db *sql.DB, window time.Duration) *DuplicateRepo {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &DuplicateRepo{db: db, window: window, now: time.Now}
}

func (r *DuplicateRepo) CheckDuplicate(ctx context.Context, q shipimport.DuplicateQuery) (*shipimport.DuplicateResult, error) {
	var manual string
	if q.Location.LocalityManual != nil {
		manual = *q.Location.LocalityManual
	}

	var id, tracking string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tracking_code FROM shipments
		WHERE sender_org_id = $1
		  AND lower(recipient_name) = lower($2)
		  AND COALESCE(recipient_phone, '') = $3
		  AND lower(COALESCE(recipient_address, '')) = lower($4)
		  AND delivery_type = $5
		  AND locality_id IS NOT DISTINCT FROM $6
		  AND COALESCE(locality_manual, '') = $7
		  AND service_type_id IS NOT DISTINCT FROM $8
		  AND agency_id IS NOT DISTINCT FROM $9
		  AND created_at >= $10
		ORDER BY created_at DESC
		LIMIT 1
	`,
		q.SenderOrgID, q.Row.RecipientName, q.Row.RecipientPhone, q.Row.RecipientAddress,
		string(q.Location.DeliveryType), q.Location.LocalityID, manual,
		q.References.ServiceTypeID, q.References.AgencyID,
		r.now().Add(-r.window),
	).Scan(&id, &tracking)
	if errors.Is(err, sql.ErrNoRows) {
		return &shipimport.DuplicateResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	return &shipimport.DuplicateResult{
		Duplicate:  true,
		ShipmentID: id,
		Reason:     fmt.Sprintf("same recipient as shipment %s created in the last %.0f hours", tracking, r.window.Hours()),
	}, nil
}
