package domain

// ShipmentDraft is the create payload for one accepted row.
type ShipmentDraft struct {
	ImportRunID      string         `json:"import_run_id,omitempty"`
	SenderOrgID      string         `json:"sender_org_id"`
	RecipientName    string         `json:"recipient_name"`
	RecipientPhone   string         `json:"recipient_phone,omitempty"`
	RecipientEmail   string         `json:"recipient_email,omitempty"`
	RecipientAddress string         `json:"recipient_address,omitempty"`
	DepartmentID     *int           `json:"department_id,omitempty"`
	LocalityID       *int           `json:"locality_id,omitempty"`
	LocalityManual   *string        `json:"locality_manual,omitempty"`
	DeliveryType     DeliveryType   `json:"delivery_type"`
	AgencyID         *string        `json:"agency_id,omitempty"`
	ServiceTypeID    *string        `json:"service_type_id,omitempty"`
	FreightPaid      bool           `json:"freight_paid"`
	FreightAmount    *float64       `json:"freight_amount,omitempty"`
	ShippingCost     *float64       `json:"shipping_cost,omitempty"`
	Observations     string         `json:"observations,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	Packages         []PackageDraft `json:"packages"`
}

// PackageDraft describes one package of a shipment.
type PackageDraft struct {
	Size               string   `json:"size,omitempty"`
	Weight             *float64 `json:"weight,omitempty"`
	ContentDescription string   `json:"content_description,omitempty"`
}

// CreatedShipment is returned once a shipment and its packages are stored.
type CreatedShipment struct {
	ID           string `json:"id"`
	TrackingCode string `json:"tracking_code"`
}
