package domain

// Department is a first-level administrative region.
type Department struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Locality belongs to exactly one department.
type Locality struct {
	ID           int    `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	DepartmentID int    `json:"department_id" db:"department_id"`
}

// Agency is a carrier organization that can take a shipment.
type Agency struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ServiceType is a delivery service offered to senders, addressed by code.
type ServiceType struct {
	ID   string `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}
