package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/lookup"
)

// Agency resolves an agency name. An override for the name wins
// unconditionally, including a nil override meaning "no agency". Otherwise
// only an exact case-insensitive name match resolves; a miss is a warning.
func Agency(name string, overrides map[string]*string, idx *lookup.Index) (*string, *domain.Issue) {
	if id, ok := agencyOverride(name, overrides); ok {
		return id, nil
	}
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	if a, ok := idx.AgencyByName(name); ok {
		return strPtr(a.ID), nil
	}
	return nil, &domain.Issue{
		Field:   string(domain.FieldAgencyName),
		Message: fmt.Sprintf("agency %q not found", name),
	}
}

func agencyOverride(name string, overrides map[string]*string) (*string, bool) {
	if len(overrides) == 0 {
		return nil, false
	}
	if id, ok := overrides[name]; ok {
		return id, true
	}
	if id, ok := overrides[strings.TrimSpace(name)]; ok {
		return id, true
	}
	// Keys differing only by case resolve to the lowest one in byte order.
	key := lookup.Key(name)
	var matches []string
	for k := range overrides {
		if lookup.Key(k) == key {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return overrides[matches[0]], true
}

// ServiceType resolves a service type code, exact first and then
// case-insensitive. An unknown code is silently left unresolved.
func ServiceType(code string, idx *lookup.Index) *string {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if s, ok := idx.ServiceTypeByCode(strings.TrimSpace(code)); ok {
		return strPtr(s.ID)
	}
	return nil
}

// References resolves both organizational references of a row.
func References(row domain.NormalizedRow, overrides map[string]*string, idx *lookup.Index) (domain.ResolvedReferences, []domain.Issue) {
	var warnings []domain.Issue
	agencyID, issue := Agency(row.AgencyName, overrides, idx)
	if issue != nil {
		warnings = append(warnings, *issue)
	}
	return domain.ResolvedReferences{
		AgencyID:      agencyID,
		ServiceTypeID: ServiceType(row.ServiceType, idx),
	}, warnings
}
