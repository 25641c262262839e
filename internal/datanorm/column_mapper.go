package datanorm

import (
	"sort"
	"strings"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/lookup"
)

// Confidence levels reported by SuggestMapping.
const (
	ConfidenceExact   = 1.0
	ConfidencePartial = 0.6
)

// columnAliases maps folded header names to canonical fields.
// When multiple raw headers mean the same thing, they all map here.
var columnAliases = map[string]domain.CanonicalField{
	// Recipient
	"nombre":               domain.FieldRecipientName,
	"nombre y apellido":    domain.FieldRecipientName,
	"nombre destinatario":  domain.FieldRecipientName,
	"nombre cliente":       domain.FieldRecipientName,
	"destinatario":         domain.FieldRecipientName,
	"cliente":              domain.FieldRecipientName,
	"recipient":            domain.FieldRecipientName,
	"recipient name":       domain.FieldRecipientName,
	"name":                 domain.FieldRecipientName,
	"telefono":             domain.FieldRecipientPhone,
	"tel":                  domain.FieldRecipientPhone,
	"celular":              domain.FieldRecipientPhone,
	"cel":                  domain.FieldRecipientPhone,
	"movil":                domain.FieldRecipientPhone,
	"phone":                domain.FieldRecipientPhone,
	"mobile":               domain.FieldRecipientPhone,
	"email":                domain.FieldRecipientEmail,
	"e-mail":               domain.FieldRecipientEmail,
	"mail":                 domain.FieldRecipientEmail,
	"correo":               domain.FieldRecipientEmail,
	"correo electronico":   domain.FieldRecipientEmail,
	"direccion":            domain.FieldRecipientAddress,
	"direccion de entrega": domain.FieldRecipientAddress,
	"domicilio":            domain.FieldRecipientAddress,
	"calle":                domain.FieldRecipientAddress,
	"address":              domain.FieldRecipientAddress,

	// Location
	"departamento": domain.FieldDepartmentName,
	"depto":        domain.FieldDepartmentName,
	"dpto":         domain.FieldDepartmentName,
	"provincia":    domain.FieldDepartmentName,
	"department":   domain.FieldDepartmentName,
	"state":        domain.FieldDepartmentName,
	"localidad":    domain.FieldLocalityName,
	"ciudad":       domain.FieldLocalityName,
	"barrio":       domain.FieldLocalityName,
	"zona":         domain.FieldLocalityName,
	"locality":     domain.FieldLocalityName,
	"city":         domain.FieldLocalityName,

	// Freight
	"flete pago":     domain.FieldFreightPaid,
	"pago flete":     domain.FieldFreightPaid,
	"flete pagado":   domain.FieldFreightPaid,
	"freight paid":   domain.FieldFreightPaid,
	"paid":           domain.FieldFreightPaid,
	"flete":          domain.FieldFreightAmount,
	"monto flete":    domain.FieldFreightAmount,
	"importe flete":  domain.FieldFreightAmount,
	"valor flete":    domain.FieldFreightAmount,
	"freight":        domain.FieldFreightAmount,
	"freight amount": domain.FieldFreightAmount,

	// Service
	"agencia":          domain.FieldAgencyName,
	"transportista":    domain.FieldAgencyName,
	"agency":           domain.FieldAgencyName,
	"carrier":          domain.FieldAgencyName,
	"servicio":         domain.FieldServiceType,
	"tipo servicio":    domain.FieldServiceType,
	"tipo de servicio": domain.FieldServiceType,
	"service":          domain.FieldServiceType,
	"service type":     domain.FieldServiceType,
	"tipo entrega":     domain.FieldDeliveryType,
	"tipo de entrega":  domain.FieldDeliveryType,
	"entrega":          domain.FieldDeliveryType,
	"delivery":         domain.FieldDeliveryType,
	"delivery type":    domain.FieldDeliveryType,

	// Package
	"tamano":         domain.FieldPackageSize,
	"medida":         domain.FieldPackageSize,
	"bulto":          domain.FieldPackageSize,
	"size":           domain.FieldPackageSize,
	"package size":   domain.FieldPackageSize,
	"peso":           domain.FieldWeight,
	"kilos":          domain.FieldWeight,
	"kg":             domain.FieldWeight,
	"weight":         domain.FieldWeight,
	"costo":          domain.FieldShippingCost,
	"costo envio":    domain.FieldShippingCost,
	"costo de envio": domain.FieldShippingCost,
	"precio envio":   domain.FieldShippingCost,
	"shipping cost":  domain.FieldShippingCost,
	"contenido":      domain.FieldContentDescription,
	"descripcion":    domain.FieldContentDescription,
	"producto":       domain.FieldContentDescription,
	"content":        domain.FieldContentDescription,
	"description":    domain.FieldContentDescription,

	// Free text
	"observaciones": domain.FieldObservations,
	"obs":           domain.FieldObservations,
	"comentarios":   domain.FieldObservations,
	"observations":  domain.FieldObservations,
	"comments":      domain.FieldObservations,
	"notas":         domain.FieldNotes,
	"nota":          domain.FieldNotes,
	"referencia":    domain.FieldNotes,
	"notes":         domain.FieldNotes,
}

// aliasesByLength holds alias keys longest first so partial matches prefer
// the most specific alias ("costo envio" before "costo").
var aliasesByLength = func() []string {
	keys := make([]string, 0, len(columnAliases))
	for k := range columnAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// headerKey folds a header for alias lookup: "Dirección_Entrega" -> "direccion entrega".
func headerKey(h string) string {
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ", ":", " ", "/", " ").Replace(h)
	return lookup.Fold(h)
}

// SuggestMapping proposes a mapping for every header. Exact alias hits get
// ConfidenceExact; headers containing an alias get ConfidencePartial unless
// that field is already taken. Everything else maps to ignore.
func SuggestMapping(headers []string) []domain.ColumnMapping {
	out := make([]domain.ColumnMapping, len(headers))
	taken := make(map[domain.CanonicalField]bool)

	for i, h := range headers {
		out[i] = domain.ColumnMapping{SourceHeader: h, TargetField: domain.FieldIgnore, Transform: "trim"}
		key := headerKey(h)
		if f, ok := columnAliases[key]; ok && !taken[f] {
			out[i].TargetField = f
			out[i].Confidence = ConfidenceExact
			taken[f] = true
		}
	}

	for i, h := range headers {
		if out[i].TargetField != domain.FieldIgnore {
			continue
		}
		key := " " + headerKey(h) + " "
		for _, alias := range aliasesByLength {
			f := columnAliases[alias]
			if taken[f] || len(alias) < 3 {
				continue
			}
			if strings.Contains(key, " "+alias+" ") {
				out[i].TargetField = f
				out[i].Confidence = ConfidencePartial
				taken[f] = true
				break
			}
		}
	}

	for i := range out {
		out[i].Transform = defaultTransform(out[i].TargetField)
	}
	return out
}

func defaultTransform(f domain.CanonicalField) string {
	switch f {
	case domain.FieldRecipientPhone:
		return "digits"
	case domain.FieldRecipientEmail:
		return "lower"
	}
	switch f.Kind() {
	case domain.KindNumber:
		return "number"
	case domain.KindBool:
		return "boolean"
	}
	return "trim"
}

// MappedFields returns the set of canonical fields targeted by mappings,
// excluding the ignore sentinel.
func MappedFields(mappings []domain.ColumnMapping) map[domain.CanonicalField]bool {
	out := make(map[domain.CanonicalField]bool, len(mappings))
	for _, m := range mappings {
		if m.TargetField != domain.FieldIgnore {
			out[m.TargetField] = true
		}
	}
	return out
}
