package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/pkg/httputil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("canonical_field", func(fl validator.FieldLevel) bool {
		return domain.CanonicalField(fl.Field().String()).Valid()
	})
	return v
}

// validateBody runs struct validation and writes a 400 with per-field
// details on failure.
func validateBody(w http.ResponseWriter, dst any) bool {
	err := validate.Struct(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		httputil.BadRequest(w, err.Error())
		return false
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe)] = describe(fe)
	}
	httputil.ErrorWithDetails(w, http.StatusBadRequest, "validation failed", "validation_failed", details)
	return false
}

// fieldPath drops the root struct name: "importRequestDTO.mapping[0].target_field"
// becomes "mapping[0].target_field".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "canonical_field":
		return "is not a known field"
	case "unique":
		return "source headers must be unique"
	case "gte", "lte":
		return "must be between 0 and 1"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
