package domain

import "strings"

// DeliveryType is how the recipient receives the shipment.
type DeliveryType string

const (
	DeliveryHome   DeliveryType = "domicilio"
	DeliveryBranch DeliveryType = "sucursal"
)

// ParseDeliveryType maps free text to a delivery type, defaulting to home delivery.
func ParseDeliveryType(s string) DeliveryType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return DeliveryHome
	case strings.HasPrefix(s, "suc"), strings.HasPrefix(s, "agen"), strings.HasPrefix(s, "retir"), s == "branch", s == "pickup":
		return DeliveryBranch
	default:
		return DeliveryHome
	}
}

// ResolvedLocation is the outcome of location resolution for a row.
// Exactly one of LocalityID and LocalityManual must be set before a write.
type ResolvedLocation struct {
	DepartmentID   *int         `json:"department_id,omitempty"`
	LocalityID     *int         `json:"locality_id,omitempty"`
	LocalityManual *string      `json:"locality_manual,omitempty"`
	DeliveryType   DeliveryType `json:"delivery_type"`
}

// Valid reports whether exactly one locality representation is present.
func (l ResolvedLocation) Valid() bool {
	return (l.LocalityID != nil) != (l.LocalityManual != nil)
}

// ResolvedReferences holds the organizational references of a row.
type ResolvedReferences struct {
	AgencyID      *string `json:"agency_id,omitempty"`
	ServiceTypeID *string `json:"service_type_id,omitempty"`
}

// Issue is a field-keyed advisory message.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
