package shipimport

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ignite/shipment-importer/internal/domain"
)

var rowValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// validateRow returns field-keyed hard errors for a normalized row.
func validateRow(row domain.NormalizedRow) map[string]string {
	err := rowValidator.Struct(row)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_row": "invalid row"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "gte":
			out[fe.Field()] = "must not be negative"
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}
