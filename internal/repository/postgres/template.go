package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/service/templates"
)

const templateNameConstraint = "import_templates_owner_name_key"

// TemplateRepo implements templates.Repository against PostgreSQL.
type TemplateRepo struct{ db *sql.DB }

// NewTemplateRepo creates a Postgres-backed template repository.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

const templateColumns = `id, owner_org_id, name, header_signature, mapping, defaults, created_at, updated_at`

func (r *TemplateRepo) ListByOwner(ctx context.Context, ownerOrgID string) ([]domain.ImportTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM import_templates WHERE owner_org_id = $1 ORDER BY updated_at DESC`,
		ownerOrgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.ImportTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TemplateRepo) Get(ctx context.Context, id string) (*domain.ImportTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM import_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, templates.ErrNotFound
	}
	return t, err
}

func (r *TemplateRepo) Create(ctx context.Context, t *domain.ImportTemplate) error {
	mapping, defaults, err := encodeTemplate(t)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO import_templates (id, owner_org_id, name, header_signature, mapping, defaults, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.OwnerOrgID, t.Name, t.HeaderSignature, mapping, defaults, t.CreatedAt, t.UpdatedAt)
	if isUniqueViolation(err, templateNameConstraint) {
		return templates.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) Update(ctx context.Context, t *domain.ImportTemplate) error {
	mapping, defaults, err := encodeTemplate(t)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE import_templates
		SET name = $2, header_signature = $3, mapping = $4, defaults = $5, updated_at = $6
		WHERE id = $1
	`, t.ID, t.Name, t.HeaderSignature, mapping, defaults, t.UpdatedAt)
	if isUniqueViolation(err, templateNameConstraint) {
		return templates.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return templates.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(s scanner) (*domain.ImportTemplate, error) {
	var (
		t                 domain.ImportTemplate
		mapping, defaults []byte
	)
	if err := s.Scan(&t.ID, &t.OwnerOrgID, &t.Name, &t.HeaderSignature, &mapping, &defaults, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mapping, &t.Mapping); err != nil {
		return nil, fmt.Errorf("decode template mapping: %w", err)
	}
	if len(defaults) > 0 {
		if err := json.Unmarshal(defaults, &t.Defaults); err != nil {
			return nil, fmt.Errorf("decode template defaults: %w", err)
		}
	}
	return &t, nil
}

func encodeTemplate(t *domain.ImportTemplate) ([]byte, []byte, error) {
	mapping, err := json.Marshal(t.Mapping)
	if err != nil {
		return nil, nil, fmt.Errorf("encode template mapping: %w", err)
	}
	defaults := t.Defaults
	if defaults == nil {
		defaults = map[string]string{}
	}
	defaultsJSON, err := json.Marshal(defaults)
	if err != nil {
		return nil, nil, fmt.Errorf("encode template defaults: %w", err)
	}
	return mapping, defaultsJSON, nil
}
