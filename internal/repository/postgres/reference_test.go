package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shipment-importer/internal/lookup"
)

func TestReferenceRepo_LoadsIndex(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM departments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Canelones").AddRow(1, "Montevideo"))
	mock.ExpectQuery("SELECT id, name, department_id FROM localities").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "department_id"}).AddRow(20, "Shangrilá", 2))
	mock.ExpectQuery("FROM organizations").WithArgs(AgencyOrgType).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("ag-1", "DAC"))
	mock.ExpectQuery("FROM service_types").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).AddRow("st-1", "EXPRESS", "Express"))

	idx, err := lookup.Load(context.Background(), NewReferenceRepo(db))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	loc, ok := idx.PartialLocality("shangrila")
	require.True(t, ok)
	assert.Equal(t, 2, loc.DepartmentID)
	_, ok = idx.AgencyByName("dac")
	assert.True(t, ok)
	_, ok = idx.ServiceTypeByCode("express")
	assert.True(t, ok)
}

func TestReferenceRepo_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM departments").WillReturnError(errors.New("connection refused"))

	_, err = NewReferenceRepo(db).Departments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "departments")
}
