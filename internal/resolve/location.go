package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/inference"
	"github.com/ignite/shipment-importer/internal/lookup"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
)

// LocationResult is the resolved location of one row with its messages.
type LocationResult struct {
	Location domain.ResolvedLocation
	Warnings []domain.Issue
	Errors   map[string]string
}

// Failed reports whether the row must not be written.
func (r *LocationResult) Failed() bool { return len(r.Errors) > 0 }

// LocationResolver runs the location state machine against one snapshot.
type LocationResolver struct {
	idx      *lookup.Index
	inferrer inference.Inferrer
	timeout  time.Duration
}

// NewLocationResolver builds a resolver. inferrer may be nil, which
// disables address inference. timeout bounds each inference call.
func NewLocationResolver(idx *lookup.Index, inferrer inference.Inferrer, timeout time.Duration) *LocationResolver {
	return &LocationResolver{idx: idx, inferrer: inferrer, timeout: timeout}
}

// Resolve applies, in order: address inference (only when no department or
// locality column is mapped), the explicit department, the explicit
// locality, the locality invariant and the no-department notice.
func (r *LocationResolver) Resolve(ctx context.Context, row domain.NormalizedRow, locationMapped bool) LocationResult {
	res := LocationResult{}
	loc := &res.Location
	loc.DeliveryType = domain.ParseDeliveryType(row.DeliveryType)

	if !locationMapped && row.RecipientAddress != "" && r.inferrer != nil {
		r.applyInference(ctx, row, &res)
	}

	if strings.TrimSpace(row.DepartmentName) != "" {
		r.resolveDepartment(row.DepartmentName, &res)
	}

	if strings.TrimSpace(row.LocalityName) != "" {
		r.resolveLocality(row.LocalityName, &res)
	}

	switch {
	case loc.LocalityID == nil && loc.LocalityManual == nil:
		res.addError(string(domain.FieldLocalityName), "locality is required")
	case loc.LocalityID != nil && loc.LocalityManual != nil:
		loc.LocalityManual = nil
	}

	if loc.DepartmentID == nil && loc.LocalityID == nil {
		res.warn(domain.FieldDepartmentName, "no department set")
	}
	return res
}

func (r *LocationResolver) applyInference(ctx context.Context, row domain.NormalizedRow, res *LocationResult) {
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	inferred, err := r.inferrer.Infer(callCtx, row.RecipientAddress, r.idx)
	if err != nil {
		logger.Warn("[resolve] address inference failed", "error", err.Error())
		return
	}
	if inferred == nil {
		return
	}

	res.Location.DepartmentID = inferred.DepartmentID
	res.Location.LocalityID = inferred.LocalityID
	res.Location.LocalityManual = manualText(inferred.LocalityManual)
	if inferred.DeliveryType != "" && row.DeliveryType == "" {
		res.Location.DeliveryType = inferred.DeliveryType
	}
	for _, w := range inferred.Warnings {
		res.warn(domain.FieldRecipientAddress, w)
	}
}

func (r *LocationResolver) resolveDepartment(name string, res *LocationResult) {
	if d, ok := r.idx.DepartmentByName(name); ok {
		res.Location.DepartmentID = intPtr(d.ID)
		return
	}
	if d, ok := r.idx.PartialDepartment(name); ok {
		res.Location.DepartmentID = intPtr(d.ID)
		res.warn(domain.FieldDepartmentName, fmt.Sprintf("partial match: %q matched department %q", name, d.Name))
		return
	}
	res.Location.DepartmentID = nil
	res.warn(domain.FieldDepartmentName, fmt.Sprintf("department %q not found", name))
}

func (r *LocationResolver) resolveLocality(name string, res *LocationResult) {
	loc := &res.Location
	loc.LocalityID = nil
	loc.LocalityManual = nil

	exact := r.idx.LocalitiesByName(name)
	switch {
	case len(exact) == 1:
		r.acceptLocality(exact[0], res)
		return

	case len(exact) > 1:
		if loc.DepartmentID != nil {
			var inDept []domain.Locality
			for _, l := range exact {
				if l.DepartmentID == *loc.DepartmentID {
					inDept = append(inDept, l)
				}
			}
			if len(inDept) == 1 {
				loc.LocalityID = intPtr(inDept[0].ID)
				return
			}
		}
		loc.LocalityManual = manualText(&name)
		res.warn(domain.FieldLocalityName,
			fmt.Sprintf("ambiguous: %d localities named %q, set a department to disambiguate", len(exact), name))
		return
	}

	if loc.DepartmentID != nil {
		if l, ok := r.idx.PartialLocalityInDepartment(name, *loc.DepartmentID); ok {
			loc.LocalityID = intPtr(l.ID)
			res.warn(domain.FieldLocalityName, fmt.Sprintf("partial match: %q matched locality %q", name, l.Name))
			return
		}
	}
	if l, ok := r.idx.PartialLocality(name); ok {
		r.acceptLocality(l, res)
		res.warn(domain.FieldLocalityName, fmt.Sprintf("partial match: %q matched locality %q", name, l.Name))
		return
	}

	loc.LocalityManual = manualText(&name)
	res.warn(domain.FieldLocalityName, fmt.Sprintf("locality %q not found, kept as text", name))
}

// acceptLocality sets the locality and backfills its department, or warns
// when an already known department disagrees. A known department is kept.
func (r *LocationResolver) acceptLocality(l domain.Locality, res *LocationResult) {
	loc := &res.Location
	loc.LocalityID = intPtr(l.ID)
	switch {
	case loc.DepartmentID == nil:
		loc.DepartmentID = intPtr(l.DepartmentID)
	case *loc.DepartmentID != l.DepartmentID:
		deptName := fmt.Sprint(l.DepartmentID)
		if d, ok := r.idx.DepartmentByID(l.DepartmentID); ok {
			deptName = d.Name
		}
		res.warn(domain.FieldDepartmentName,
			fmt.Sprintf("department conflict: locality %q belongs to %q", l.Name, deptName))
	}
}

func (r *LocationResult) warn(f domain.CanonicalField, msg string) {
	r.Warnings = append(r.Warnings, domain.Issue{Field: string(f), Message: msg})
}

func (r *LocationResult) addError(field, msg string) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[field] = msg
}

// manualText drops blank manual localities; an empty string is no locality.
func manualText(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strPtr(strings.TrimSpace(*s))
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }
