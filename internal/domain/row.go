package domain

// NormalizedRow is a raw row after mapping, transforms and defaults.
// It exists only for the duration of one run and is never persisted.
// Numeric and boolean fields are nil when the cell was absent or malformed.
type NormalizedRow struct {
	RecipientName      string   `json:"recipient_name,omitempty" validate:"required"`
	RecipientPhone     string   `json:"recipient_phone,omitempty"`
	RecipientEmail     string   `json:"recipient_email,omitempty"`
	RecipientAddress   string   `json:"recipient_address,omitempty"`
	DepartmentName     string   `json:"department_name,omitempty"`
	LocalityName       string   `json:"locality_name,omitempty"`
	Observations       string   `json:"observations,omitempty"`
	FreightPaid        *bool    `json:"freight_paid,omitempty"`
	FreightAmount      *float64 `json:"freight_amount,omitempty" validate:"omitempty,gte=0"`
	AgencyName         string   `json:"agency_name,omitempty"`
	ServiceType        string   `json:"service_type,omitempty"`
	PackageSize        string   `json:"package_size,omitempty"`
	DeliveryType       string   `json:"delivery_type,omitempty"`
	Weight             *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
	ShippingCost       *float64 `json:"shipping_cost,omitempty" validate:"omitempty,gte=0"`
	ContentDescription string   `json:"content_description,omitempty"`
	Notes              string   `json:"notes,omitempty"`

	// SenderOrgID is import-scoped and set once per run, never per row.
	SenderOrgID string `json:"sender_org_id,omitempty"`
}

// IsEmpty reports whether field f holds no value.
func (r *NormalizedRow) IsEmpty(f CanonicalField) bool {
	switch f {
	case FieldRecipientName:
		return r.RecipientName == ""
	case FieldRecipientPhone:
		return r.RecipientPhone == ""
	case FieldRecipientEmail:
		return r.RecipientEmail == ""
	case FieldRecipientAddress:
		return r.RecipientAddress == ""
	case FieldDepartmentName:
		return r.DepartmentName == ""
	case FieldLocalityName:
		return r.LocalityName == ""
	case FieldObservations:
		return r.Observations == ""
	case FieldFreightPaid:
		return r.FreightPaid == nil
	case FieldFreightAmount:
		return r.FreightAmount == nil
	case FieldAgencyName:
		return r.AgencyName == ""
	case FieldServiceType:
		return r.ServiceType == ""
	case FieldPackageSize:
		return r.PackageSize == ""
	case FieldDeliveryType:
		return r.DeliveryType == ""
	case FieldWeight:
		return r.Weight == nil
	case FieldShippingCost:
		return r.ShippingCost == nil
	case FieldContentDescription:
		return r.ContentDescription == ""
	case FieldNotes:
		return r.Notes == ""
	}
	return true
}
