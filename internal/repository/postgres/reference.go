package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/shipment-importer/internal/domain"
)

// AgencyOrgType is the organizations.org_type of carrier agencies.
const AgencyOrgType = "agency"

// ReferenceRepo implements lookup.Source against PostgreSQL.
type ReferenceRepo struct{ db *sql.DB }

// NewReferenceRepo creates a Postgres-backed reference catalogue.
func NewReferenceRepo(db *sql.DB) *ReferenceRepo { return &ReferenceRepo{db: db} }

func (r *ReferenceRepo) Departments(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("departments: %w", err)
	}
	defer rows.Close()

	var out []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("departments scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *ReferenceRepo) Localities(ctx context.Context) ([]domain.Locality, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, department_id FROM localities ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("localities: %w", err)
	}
	defer rows.Close()

	var out []domain.Locality
	for rows.Next() {
		var l domain.Locality
		if err := rows.Scan(&l.ID, &l.Name, &l.DepartmentID); err != nil {
			return nil, fmt.Errorf("localities scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Agencies returns active organizations of the agency type.
func (r *ReferenceRepo) Agencies(ctx context.Context) ([]domain.Agency, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM organizations
		WHERE active = true AND org_type = $1
		ORDER BY name
	`, AgencyOrgType)
	if err != nil {
		return nil, fmt.Errorf("agencies: %w", err)
	}
	defer rows.Close()

	var out []domain.Agency
	for rows.Next() {
		var a domain.Agency
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("agencies scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ServiceTypes returns active service types.
func (r *ReferenceRepo) ServiceTypes(ctx context.Context) ([]domain.ServiceType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, code, name FROM service_types WHERE active = true ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("service types: %w", err)
	}
	defer rows.Close()

	var out []domain.ServiceType
	for rows.Next() {
		var s domain.ServiceType
		if err := rows.Scan(&s.ID, &s.Code, &s.Name); err != nil {
			return nil, fmt.Errorf("service types scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
