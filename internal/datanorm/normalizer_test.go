package datanorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shipment-importer/internal/domain"
)

func TestNormalize_MappingAndTransforms(t *testing.T) {
	raw := domain.RawRow{
		"Nombre":   "  juan   PÉREZ ",
		"Tel":      "099 123-456",
		"Flete":    "1.250,50",
		"Pago":     "sí",
		"Peso":     "2kg",
		"Ignorada": "whatever",
	}
	mappings := []domain.ColumnMapping{
		{SourceHeader: "Nombre", TargetField: domain.FieldRecipientName, Transform: "title"},
		{SourceHeader: "Tel", TargetField: domain.FieldRecipientPhone, Transform: "digits"},
		{SourceHeader: "Flete", TargetField: domain.FieldFreightAmount},
		{SourceHeader: "Pago", TargetField: domain.FieldFreightPaid},
		{SourceHeader: "Peso", TargetField: domain.FieldWeight, Transform: "number"},
		{SourceHeader: "Ignorada", TargetField: domain.FieldIgnore},
	}

	row := Normalize(raw, mappings, nil)

	assert.Equal(t, "Juan Pérez", row.RecipientName)
	assert.Equal(t, "099123456", row.RecipientPhone)
	require.NotNil(t, row.FreightAmount)
	assert.InDelta(t, 1250.5, *row.FreightAmount, 0.0001)
	require.NotNil(t, row.FreightPaid)
	assert.True(t, *row.FreightPaid)
	require.NotNil(t, row.Weight)
	assert.InDelta(t, 2, *row.Weight, 0.0001)
}

func TestNormalize_DefaultsFillOnlyEmptyFields(t *testing.T) {
	raw := domain.RawRow{"Servicio": "EXPRESS", "Pago": "no"}
	mappings := []domain.ColumnMapping{
		{SourceHeader: "Servicio", TargetField: domain.FieldServiceType},
		{SourceHeader: "Pago", TargetField: domain.FieldFreightPaid},
	}
	defaults := map[string]string{
		"service_type":  "STD",
		"package_size":  "M",
		"freight_paid":  "true",
		"sender_org_id": "org-1",
		"not_a_field":   "x",
	}

	row := Normalize(raw, mappings, defaults)

	assert.Equal(t, "EXPRESS", row.ServiceType)
	assert.Equal(t, "M", row.PackageSize)
	require.NotNil(t, row.FreightPaid)
	assert.False(t, *row.FreightPaid, "a present cell is not overwritten by a default")
	assert.Empty(t, row.SenderOrgID, "scope keys are never written per row")
}

func TestNormalize_MalformedValues(t *testing.T) {
	raw := domain.RawRow{"Monto": "abc", "Pago": "maybe"}
	mappings := []domain.ColumnMapping{
		{SourceHeader: "Monto", TargetField: domain.FieldFreightAmount},
		{SourceHeader: "Pago", TargetField: domain.FieldFreightPaid},
		{SourceHeader: "Missing", TargetField: domain.FieldRecipientName},
	}

	row := Normalize(raw, mappings, nil)

	assert.Nil(t, row.FreightAmount)
	require.NotNil(t, row.FreightPaid)
	assert.False(t, *row.FreightPaid)
	assert.Empty(t, row.RecipientName)
}

func TestNormalize_LastMappingWins(t *testing.T) {
	raw := domain.RawRow{"Obs 1": "first", "Obs 2": "second"}
	mappings := []domain.ColumnMapping{
		{SourceHeader: "Obs 1", TargetField: domain.FieldObservations},
		{SourceHeader: "Obs 2", TargetField: domain.FieldObservations},
	}
	assert.Equal(t, "second", Normalize(raw, mappings, nil).Observations)
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := domain.RawRow{"Nombre": " Ana ", "Localidad": "Pocitos", "Costo": "$ 300"}
	mappings := SuggestMapping([]string{"Nombre", "Localidad", "Costo"})
	defaults := map[string]string{"delivery_type": "domicilio"}

	first := Normalize(raw, mappings, defaults)
	second := Normalize(raw, mappings, defaults)
	assert.Equal(t, first, second)
	assert.Equal(t, "Ana", first.RecipientName)
	require.NotNil(t, first.ShippingCost)
	assert.InDelta(t, 300, *first.ShippingCost, 0.0001)
}
