package domain

import "time"

// ImportTemplate is a saved mapping for a recurring spreadsheet layout.
type ImportTemplate struct {
	ID              string            `json:"id" db:"id"`
	OwnerOrgID      string            `json:"owner_org_id" db:"owner_org_id"`
	Name            string            `json:"name" db:"name"`
	HeaderSignature string            `json:"header_signature" db:"header_signature"`
	Mapping         []ColumnMapping   `json:"mapping" db:"mapping"`
	Defaults        map[string]string `json:"defaults" db:"defaults"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
