package domain

// CanonicalField is a target field of a shipment import row.
type CanonicalField string

const (
	FieldRecipientName      CanonicalField = "recipient_name"
	FieldRecipientPhone     CanonicalField = "recipient_phone"
	FieldRecipientEmail     CanonicalField = "recipient_email"
	FieldRecipientAddress   CanonicalField = "recipient_address"
	FieldDepartmentName     CanonicalField = "department_name"
	FieldLocalityName       CanonicalField = "locality_name"
	FieldObservations       CanonicalField = "observations"
	FieldFreightPaid        CanonicalField = "freight_paid"
	FieldFreightAmount      CanonicalField = "freight_amount"
	FieldAgencyName         CanonicalField = "agency_name"
	FieldServiceType        CanonicalField = "service_type"
	FieldPackageSize        CanonicalField = "package_size"
	FieldDeliveryType       CanonicalField = "delivery_type"
	FieldWeight             CanonicalField = "weight"
	FieldShippingCost       CanonicalField = "shipping_cost"
	FieldContentDescription CanonicalField = "content_description"
	FieldNotes              CanonicalField = "notes"

	// FieldIgnore marks a source column that must not be imported.
	FieldIgnore CanonicalField = "ignore"
)

// FieldKind is the value type a canonical field is coerced to.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "boolean"
)

var fieldKinds = map[CanonicalField]FieldKind{
	FieldRecipientName:      KindString,
	FieldRecipientPhone:     KindString,
	FieldRecipientEmail:     KindString,
	FieldRecipientAddress:   KindString,
	FieldDepartmentName:     KindString,
	FieldLocalityName:       KindString,
	FieldObservations:       KindString,
	FieldFreightPaid:        KindBool,
	FieldFreightAmount:      KindNumber,
	FieldAgencyName:         KindString,
	FieldServiceType:        KindString,
	FieldPackageSize:        KindString,
	FieldDeliveryType:       KindString,
	FieldWeight:             KindNumber,
	FieldShippingCost:       KindNumber,
	FieldContentDescription: KindString,
	FieldNotes:              KindString,
}

// AllFields lists every importable field in display order.
var AllFields = []CanonicalField{
	FieldRecipientName,
	FieldRecipientPhone,
	FieldRecipientEmail,
	FieldRecipientAddress,
	FieldDepartmentName,
	FieldLocalityName,
	FieldObservations,
	FieldFreightPaid,
	FieldFreightAmount,
	FieldAgencyName,
	FieldServiceType,
	FieldPackageSize,
	FieldDeliveryType,
	FieldWeight,
	FieldShippingCost,
	FieldContentDescription,
	FieldNotes,
}

// Valid reports whether f is a known field or the ignore sentinel.
func (f CanonicalField) Valid() bool {
	if f == FieldIgnore {
		return true
	}
	_, ok := fieldKinds[f]
	return ok
}

// Kind returns the declared value type of f. Unknown fields are strings.
func (f CanonicalField) Kind() FieldKind {
	if k, ok := fieldKinds[f]; ok {
		return k
	}
	return KindString
}

// ColumnMapping binds one source header to a canonical field.
type ColumnMapping struct {
	SourceHeader string         `json:"source_header" validate:"required"`
	TargetField  CanonicalField `json:"target_field" validate:"required,canonical_field"`
	Transform    string         `json:"transform,omitempty" validate:"omitempty,oneof=trim upper lower title digits number boolean"`
	Confidence   float64        `json:"confidence" validate:"gte=0,lte=1"`
}

// RawRow is one spreadsheet row keyed by source header.
// A header missing from the map is an absent cell.
type RawRow map[string]string
