package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/shipment-importer/internal/domain"
)

const (
	trackingConstraint  = "shipments_tracking_code_key"
	trackingCodeLen     = 10
	maxTrackingAttempts = 3
	trackingAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// ErrTrackingExhausted is returned when no free tracking code was found.
var ErrTrackingExhausted = errors.New("could not allocate a unique tracking code")

// ShipmentRepo implements shipimport.ShipmentCreator against PostgreSQL.
type ShipmentRepo struct {
	db      *sql.DB
	prefix  string
	newCode func() string
}

// NewShipmentRepo creates a Postgres-backed shipment creator. Tracking
// codes are prefix followed by random characters.
func NewShipmentRepo(db *sql.DB, trackingPrefix string) *ShipmentRepo {
	r := &ShipmentRepo{db: db, prefix: trackingPrefix}
	r.newCode = r.randomCode
	return r
}

// CreateShipment inserts the shipment and its packages in one transaction.
// A tracking code collision is retried with a fresh code.
func (r *ShipmentRepo) CreateShipment(ctx context.Context, d domain.ShipmentDraft) (*domain.CreatedShipment, error) {
	if (d.LocalityID == nil) == (d.LocalityManual == nil) {
		return nil, fmt.Errorf("create shipment: exactly one of locality id and manual locality is required")
	}
	for attempt := 0; attempt < maxTrackingAttempts; attempt++ {
		created, err := r.insert(ctx, d, r.newCode())
		if err == nil {
			return created, nil
		}
		if !isUniqueViolation(err, trackingConstraint) {
			return nil, fmt.Errorf("create shipment: %w", err)
		}
	}
	return nil, fmt.Errorf("create shipment: %w", ErrTrackingExhausted)
}

func (r *ShipmentRepo) insert(ctx context.Context, d domain.ShipmentDraft, code string) (*domain.CreatedShipment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipments (
			id, tracking_code, sender_org_id, import_run_id,
			recipient_name, recipient_phone, recipient_email, recipient_address,
			department_id, locality_id, locality_manual, delivery_type,
			agency_id, service_type_id, freight_paid, freight_amount, shipping_cost,
			observations, notes, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 'created', NOW())
	`,
		id, code, d.SenderOrgID, nullString(d.ImportRunID),
		d.RecipientName, nullString(d.RecipientPhone), nullString(d.RecipientEmail), nullString(d.RecipientAddress),
		d.DepartmentID, d.LocalityID, d.LocalityManual, string(d.DeliveryType),
		d.AgencyID, d.ServiceTypeID, d.FreightPaid, d.FreightAmount, d.ShippingCost,
		nullString(d.Observations), nullString(d.Notes),
	)
	if err != nil {
		return nil, err
	}

	for _, p := range d.Packages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO packages (id, shipment_id, size, weight, content_description)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), id, nullString(p.Size), p.Weight, nullString(p.ContentDescription))
		if err != nil {
			return nil, fmt.Errorf("insert package: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.CreatedShipment{ID: id, TrackingCode: code}, nil
}

func (r *ShipmentRepo) randomCode() string {
	b := make([]byte, trackingCodeLen)
	rand.Read(b)
	for i := range b {
		b[i] = trackingAlphabet[int(b[i])%len(trackingAlphabet)]
	}
	return r.prefix + string(b)
}
