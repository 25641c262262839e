package datanorm

import (
	"github.com/ignite/shipment-importer/internal/domain"
)

// SenderOrgKey is the defaults key holding the sender organization.
const SenderOrgKey = "sender_org_id"

// ScopeKeys are defaults that apply to the whole import. Normalize never
// writes them into a row.
var ScopeKeys = map[string]bool{
	SenderOrgKey: true,
}

// Normalize applies mappings and then defaults to one raw row. Mappings
// targeting ignore are skipped, cells missing from raw are left empty, and
// when two mappings target one field the later one wins. Defaults only fill
// fields that are still empty afterwards.
func Normalize(raw domain.RawRow, mappings []domain.ColumnMapping, defaults map[string]string) domain.NormalizedRow {
	var row domain.NormalizedRow

	for _, m := range mappings {
		if m.TargetField == domain.FieldIgnore || !m.TargetField.Valid() {
			continue
		}
		cell, ok := raw[m.SourceHeader]
		if !ok {
			continue
		}
		Set(&row, m.TargetField, ApplyTransform(cell, m.Transform))
	}

	for key, val := range defaults {
		if ScopeKeys[key] {
			continue
		}
		f := domain.CanonicalField(key)
		if f == domain.FieldIgnore || !f.Valid() || !row.IsEmpty(f) {
			continue
		}
		Set(&row, f, ApplyTransform(val, ""))
	}

	return row
}

// Set coerces value to the kind of field f and stores it on row.
// Empty values clear the field; malformed numbers become nil.
func Set(row *domain.NormalizedRow, f domain.CanonicalField, value string) {
	switch f.Kind() {
	case domain.KindNumber:
		var p *float64
		if n, ok := ParseNumber(value); ok {
			p = &n
		}
		setNumber(row, f, p)
		return
	case domain.KindBool:
		var p *bool
		if value != "" {
			b := ParseBool(value)
			p = &b
		}
		row.FreightPaid = p
		return
	}

	switch f {
	case domain.FieldRecipientName:
		row.RecipientName = value
	case domain.FieldRecipientPhone:
		row.RecipientPhone = value
	case domain.FieldRecipientEmail:
		row.RecipientEmail = value
	case domain.FieldRecipientAddress:
		row.RecipientAddress = value
	case domain.FieldDepartmentName:
		row.DepartmentName = value
	case domain.FieldLocalityName:
		row.LocalityName = value
	case domain.FieldObservations:
		row.Observations = value
	case domain.FieldAgencyName:
		row.AgencyName = value
	case domain.FieldServiceType:
		row.ServiceType = value
	case domain.FieldPackageSize:
		row.PackageSize = value
	case domain.FieldDeliveryType:
		row.DeliveryType = value
	case domain.FieldContentDescription:
		row.ContentDescription = value
	case domain.FieldNotes:
		row.Notes = value
	}
}

func setNumber(row *domain.NormalizedRow, f domain.CanonicalField, v *float64) {
	switch f {
	case domain.FieldFreightAmount:
		row.FreightAmount = v
	case domain.FieldWeight:
		row.Weight = v
	case domain.FieldShippingCost:
		row.ShippingCost = v
	}
}
