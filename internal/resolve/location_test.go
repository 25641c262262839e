package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/inference"
	"github.com/ignite/shipment-importer/internal/lookup"
)

func testIndex() *lookup.Index {
	return lookup.New(
		[]domain.Department{{ID: 1, Name: "Montevideo"}, {ID: 2, Name: "Canelones"}, {ID: 3, Name: "Rocha"}},
		[]domain.Locality{
			{ID: 10, Name: "Pocitos", DepartmentID: 1},
			{ID: 20, Name: "Shangrilá", DepartmentID: 2},
			{ID: 21, Name: "Las Piedras", DepartmentID: 2},
			{ID: 30, Name: "La Paloma", DepartmentID: 3},
			{ID: 31, Name: "La Paloma", DepartmentID: 2},
		},
		[]domain.Agency{{ID: "a1", Name: "DAC"}, {ID: "a2", Name: "UES"}, {ID: "a3", Name: "Mirtrans"}, {ID: "a4", Name: "Nossar"}},
		[]domain.ServiceType{{ID: "s1", Code: "EXPRESS"}, {ID: "s2", Code: "std"}},
	)
}

type fakeInferrer struct {
	res   *inference.Result
	err   error
	calls int
}

func (f *fakeInferrer) Infer(ctx context.Context, address string, idx *lookup.Index) (*inference.Result, error) {
	f.calls++
	return f.res, f.err
}

func hasWarning(issues []domain.Issue, field, contains string) bool {
	for _, i := range issues {
		if i.Field == field && strings.Contains(i.Message, contains) {
			return true
		}
	}
	return false
}

func TestResolve_ExactDepartmentAndLocality(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)
	res := r.Resolve(context.Background(), domain.NormalizedRow{DepartmentName: "montevideo", LocalityName: "POCITOS"}, true)

	require.False(t, res.Failed())
	assert.Equal(t, 1, *res.Location.DepartmentID)
	assert.Equal(t, 10, *res.Location.LocalityID)
	assert.Nil(t, res.Location.LocalityManual)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, domain.DeliveryHome, res.Location.DeliveryType)
}

func TestResolve_PartialLocalityBackfillsDepartment(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)
	res := r.Resolve(context.Background(), domain.NormalizedRow{LocalityName: "SHANGRILA"}, true)

	require.False(t, res.Failed())
	assert.Equal(t, 20, *res.Location.LocalityID)
	assert.Equal(t, 2, *res.Location.DepartmentID)
	assert.True(t, hasWarning(res.Warnings, "locality_name", "partial match"))
}

func TestResolve_UniqueLocalityConflictKeepsDepartment(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)
	res := r.Resolve(context.Background(), domain.NormalizedRow{DepartmentName: "Rocha", LocalityName: "Pocitos"}, true)

	assert.Equal(t, 3, *res.Location.DepartmentID)
	assert.Equal(t, 10, *res.Location.LocalityID)
	assert.True(t, hasWarning(res.Warnings, "department_name", "conflict"))
}

func TestResolve_AmbiguousLocality(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)

	t.Run("department breaks the tie", func(t *testing.T) {
		res := r.Resolve(context.Background(), domain.NormalizedRow{DepartmentName: "Rocha", LocalityName: "La Paloma"}, true)
		require.NotNil(t, res.Location.LocalityID)
		assert.Equal(t, 30, *res.Location.LocalityID)
		assert.Nil(t, res.Location.LocalityManual)
		assert.Empty(t, res.Warnings)
	})

	t.Run("no department keeps manual text", func(t *testing.T) {
		res := r.Resolve(context.Background(), domain.NormalizedRow{LocalityName: "La Paloma"}, true)
		require.False(t, res.Failed())
		assert.Nil(t, res.Location.LocalityID)
		require.NotNil(t, res.Location.LocalityManual)
		assert.Equal(t, "La Paloma", *res.Location.LocalityManual)
		assert.True(t, hasWarning(res.Warnings, "locality_name", "ambiguous"))
		assert.True(t, hasWarning(res.Warnings, "department_name", "no department"))
	})
}

func TestResolve_DepartmentMatching(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)

	res := r.Resolve(context.Background(), domain.NormalizedRow{DepartmentName: "Dpto Canelones", LocalityName: "Las Piedras"}, true)
	assert.Equal(t, 2, *res.Location.DepartmentID)
	assert.True(t, hasWarning(res.Warnings, "department_name", "partial match"))

	res = r.Resolve(context.Background(), domain.NormalizedRow{DepartmentName: "Atlantis", LocalityName: "Pocitos"}, true)
	assert.True(t, hasWarning(res.Warnings, "department_name", "not found"))
	assert.Equal(t, 1, *res.Location.DepartmentID, "backfilled from the locality")
}

func TestResolve_UnknownLocalityKeptAsText(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)
	res := r.Resolve(context.Background(), domain.NormalizedRow{DepartmentName: "Rocha", LocalityName: "Barra de Valizas"}, true)

	require.False(t, res.Failed())
	assert.Nil(t, res.Location.LocalityID)
	assert.Equal(t, "Barra de Valizas", *res.Location.LocalityManual)
	assert.True(t, hasWarning(res.Warnings, "locality_name", "not found"))
}

func TestResolve_MissingLocalityFails(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)
	res := r.Resolve(context.Background(), domain.NormalizedRow{DepartmentName: "Rocha"}, true)

	assert.True(t, res.Failed())
	assert.Contains(t, res.Errors, "locality_name")
	assert.False(t, res.Location.Valid())
}

func TestResolve_BlankInferredManualLocalityFails(t *testing.T) {
	for _, manual := range []string{"", "   "} {
		inf := &fakeInferrer{res: &inference.Result{LocalityManual: strPtr(manual)}}
		r := NewLocationResolver(testIndex(), inf, time.Second)

		res := r.Resolve(context.Background(), domain.NormalizedRow{RecipientName: "Ana", RecipientAddress: "Calle 1"}, false)
		assert.True(t, res.Failed(), "manual %q", manual)
		assert.Contains(t, res.Errors, "locality_name")
		assert.Nil(t, res.Location.LocalityManual)
	}
}

func TestResolve_BlankLocalityColumnFails(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)
	res := r.Resolve(context.Background(), domain.NormalizedRow{LocalityName: "  "}, true)

	assert.True(t, res.Failed())
	assert.Nil(t, res.Location.LocalityManual)
}

func TestResolve_InferenceFirst(t *testing.T) {
	inf := &fakeInferrer{res: &inference.Result{
		DepartmentID: intPtr(3), LocalityID: intPtr(30),
		DeliveryType: domain.DeliveryBranch, Warnings: []string{"guessed"},
	}}
	r := NewLocationResolver(testIndex(), inf, time.Second)

	res := r.Resolve(context.Background(), domain.NormalizedRow{RecipientAddress: "Ruta 10, La Paloma"}, false)
	require.False(t, res.Failed())
	assert.Equal(t, 1, inf.calls)
	assert.Equal(t, 30, *res.Location.LocalityID)
	assert.Equal(t, domain.DeliveryBranch, res.Location.DeliveryType)
	assert.True(t, hasWarning(res.Warnings, "recipient_address", "guessed"))
}

func TestResolve_InferenceSkippedWhenColumnsMapped(t *testing.T) {
	inf := &fakeInferrer{res: &inference.Result{LocalityID: intPtr(30)}}
	r := NewLocationResolver(testIndex(), inf, time.Second)

	res := r.Resolve(context.Background(), domain.NormalizedRow{RecipientAddress: "x", LocalityName: "Pocitos"}, true)
	assert.Equal(t, 0, inf.calls)
	assert.Equal(t, 10, *res.Location.LocalityID)
}

func TestResolve_ExplicitValuesOverrideInference(t *testing.T) {
	inf := &fakeInferrer{res: &inference.Result{DepartmentID: intPtr(3), LocalityManual: strPtr("somewhere")}}
	r := NewLocationResolver(testIndex(), inf, time.Second)

	// Department comes from defaults, so no location column is mapped.
	res := r.Resolve(context.Background(), domain.NormalizedRow{RecipientAddress: "x", DepartmentName: "Canelones", LocalityName: "Las Piedras"}, false)
	assert.Equal(t, 2, *res.Location.DepartmentID)
	assert.Equal(t, 21, *res.Location.LocalityID)
	assert.Nil(t, res.Location.LocalityManual)
}

func TestResolve_InferenceErrorIsSwallowed(t *testing.T) {
	inf := &fakeInferrer{err: errors.New("geocoder down")}
	r := NewLocationResolver(testIndex(), inf, time.Second)

	res := r.Resolve(context.Background(), domain.NormalizedRow{RecipientAddress: "x"}, false)
	assert.True(t, res.Failed(), "no locality at all is still a hard error")
	assert.Equal(t, 1, inf.calls)
}

func TestResolve_InvariantHoldsForAllOutcomes(t *testing.T) {
	r := NewLocationResolver(testIndex(), nil, 0)
	rows := []domain.NormalizedRow{
		{LocalityName: "Pocitos"},
		{LocalityName: "La Paloma"},
		{LocalityName: "nowhere"},
		{DepartmentName: "Rocha", LocalityName: "paloma"},
		{DepartmentName: "Rocha"},
		{},
	}
	for _, row := range rows {
		res := r.Resolve(context.Background(), row, true)
		assert.Equal(t, !res.Failed(), res.Location.Valid(), "%+v", row)
	}
}
