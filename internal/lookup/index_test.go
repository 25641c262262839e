package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shipment-importer/internal/domain"
)

func testIndex() *Index {
	return New(
		[]domain.Department{{ID: 1, Name: "Montevideo"}, {ID: 2, Name: "Canelones"}, {ID: 3, Name: "Rocha"}},
		[]domain.Locality{
			{ID: 10, Name: "Pocitos", DepartmentID: 1},
			{ID: 20, Name: "Shangrilá", DepartmentID: 2},
			{ID: 21, Name: "Las Piedras", DepartmentID: 2},
			{ID: 30, Name: "La Paloma", DepartmentID: 3},
			{ID: 31, Name: "La Paloma", DepartmentID: 1},
		},
		[]domain.Agency{{ID: "a1", Name: "DAC"}, {ID: "a2", Name: "UES"}},
		[]domain.ServiceType{{ID: "s1", Code: "EXPRESS", Name: "Express"}, {ID: "s2", Code: "std", Name: "Standard"}},
	)
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Shangrilá", "shangrila"},
		{"  Paysandú  ", "paysandu"},
		{"Las   Piedras", "las piedras"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestIndex_ExactLookups(t *testing.T) {
	idx := testIndex()

	d, ok := idx.DepartmentByName("  montevideo ")
	require.True(t, ok)
	assert.Equal(t, 1, d.ID)

	_, ok = idx.DepartmentByName("Montevide")
	assert.False(t, ok)

	assert.Len(t, idx.LocalitiesByName("la paloma"), 2)
	assert.Len(t, idx.LocalitiesInDepartment(2), 2)

	a, ok := idx.AgencyByName("dac")
	require.True(t, ok)
	assert.Equal(t, "a1", a.ID)
}

func TestIndex_ServiceTypeByCode(t *testing.T) {
	idx := testIndex()

	s, ok := idx.ServiceTypeByCode("EXPRESS")
	require.True(t, ok)
	assert.Equal(t, "s1", s.ID)

	s, ok = idx.ServiceTypeByCode("express")
	require.True(t, ok)
	assert.Equal(t, "s1", s.ID)

	_, ok = idx.ServiceTypeByCode("overnight")
	assert.False(t, ok)
}

func TestIndex_PartialMatches(t *testing.T) {
	idx := testIndex()

	l, ok := idx.PartialLocality("SHANGRILA")
	require.True(t, ok)
	assert.Equal(t, 20, l.ID)

	d, ok := idx.PartialDepartment("Dpto. Canelones")
	require.True(t, ok)
	assert.Equal(t, 2, d.ID)

	d, ok = idx.PartialDepartment("monte")
	require.True(t, ok)
	assert.Equal(t, 1, d.ID)

	_, ok = idx.PartialDepartment("xx")
	assert.False(t, ok)
}

func TestIndex_IsSnapshot(t *testing.T) {
	depts := []domain.Department{{ID: 1, Name: "Montevideo"}}
	idx := New(depts, nil, nil, nil)
	depts[0].Name = "Changed"

	all := idx.Departments()
	all[0].Name = "Mutated"

	d, ok := idx.DepartmentByID(1)
	require.True(t, ok)
	assert.Equal(t, "Montevideo", d.Name)
}

type stubSource struct {
	err error
}

func (s stubSource) Departments(context.Context) ([]domain.Department, error) {
	return []domain.Department{{ID: 1, Name: "Salto"}}, nil
}

func (s stubSource) Localities(context.Context) ([]domain.Locality, error) {
	return nil, s.err
}

func (s stubSource) Agencies(context.Context) ([]domain.Agency, error) { return nil, nil }

func (s stubSource) ServiceTypes(context.Context) ([]domain.ServiceType, error) { return nil, nil }

func TestLoad(t *testing.T) {
	idx, err := Load(context.Background(), stubSource{})
	require.NoError(t, err)
	_, ok := idx.DepartmentByName("salto")
	assert.True(t, ok)

	_, err = Load(context.Background(), stubSource{err: errors.New("boom")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "localities")
}

func TestIndex_PartialLocalityInDepartment(t *testing.T) {
	idx := testIndex()

	l, ok := idx.PartialLocalityInDepartment("paloma", 1)
	require.True(t, ok)
	assert.Equal(t, 31, l.ID)

	_, ok = idx.PartialLocalityInDepartment("pocitos", 2)
	assert.False(t, ok)
}
