package templates

import "errors"

// Sentinel errors for the template service layer.
var (
	ErrNotFound      = errors.New("import template not found")
	ErrInvalid       = errors.New("invalid import template")
	ErrDuplicateName = errors.New("an import template with this name already exists")
)
