package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/service/templates"
)

var templateCols = []string{"id", "owner_org_id", "name", "header_signature", "mapping", "defaults", "created_at", "updated_at"}

func TestTemplateRepo_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM import_templates WHERE owner_org_id").WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow("tpl-1", "org-1", "Tienda", "nombre|localidad",
				[]byte(`[{"source_header":"Nombre","target_field":"recipient_name","confidence":1}]`),
				[]byte(`{"service_type":"EXPRESS"}`), now, now))

	list, err := NewTemplateRepo(db).ListByOwner(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.FieldRecipientName, list[0].Mapping[0].TargetField)
	assert.Equal(t, "EXPRESS", list[0].Defaults["service_type"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepo_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM import_templates WHERE id").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(templateCols))

	_, err = NewTemplateRepo(db).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, templates.ErrNotFound)
}

func TestTemplateRepo_CreateDuplicateName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO import_templates").
		WillReturnError(&pq.Error{Code: "23505", Constraint: templateNameConstraint})

	err = NewTemplateRepo(db).Create(context.Background(), &domain.ImportTemplate{ID: "tpl-1", OwnerOrgID: "org-1", Name: "Tienda"})
	assert.ErrorIs(t, err, templates.ErrDuplicateName)
}

func TestTemplateRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO import_templates").
		WithArgs("tpl-1", "org-1", "Tienda", "nombre", []byte(`null`), []byte(`{}`), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewTemplateRepo(db).Create(context.Background(), &domain.ImportTemplate{
		ID: "tpl-1", OwnerOrgID: "org-1", Name: "Tienda", HeaderSignature: "nombre", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepo_UpdateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE import_templates").WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewTemplateRepo(db).Update(context.Background(), &domain.ImportTemplate{ID: "tpl-9"})
	assert.ErrorIs(t, err, templates.ErrNotFound)
}
