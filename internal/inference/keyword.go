package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/lookup"
)

// minNameLen keeps very short catalogue names from matching inside addresses.
const minNameLen = 4

var branchKeywords = []string{"sucursal", "agencia", "retira", "retiro en", "pick up", "pickup"}

// Keyword infers locations by finding catalogue names inside the address.
type Keyword struct{}

// NewKeyword returns a Keyword inferrer.
func NewKeyword() *Keyword { return &Keyword{} }

// Infer prefers the longest locality name found in the address, narrowed
// by any department name also found there.
func (k *Keyword) Infer(ctx context.Context, address string, idx *lookup.Index) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := " " + normalizeText(address) + " "
	res := &Result{}

	for _, kw := range branchKeywords {
		if strings.Contains(text, " "+kw+" ") {
			res.DeliveryType = domain.DeliveryBranch
			break
		}
	}

	var dept *domain.Department
	for _, d := range idx.Departments() {
		if containsName(text, d.Name) && (dept == nil || len(d.Name) > len(dept.Name)) {
			d := d
			dept = &d
		}
	}

	var best []domain.Locality
	bestLen := 0
	for _, l := range idx.Localities() {
		if !containsName(text, l.Name) {
			continue
		}
		n := len(lookup.Fold(l.Name))
		switch {
		case n > bestLen:
			best, bestLen = []domain.Locality{l}, n
		case n == bestLen && lookup.Key(l.Name) == lookup.Key(best[0].Name):
			best = append(best, l)
		}
	}

	if dept != nil && len(best) > 1 {
		var narrowed []domain.Locality
		for _, l := range best {
			if l.DepartmentID == dept.ID {
				narrowed = append(narrowed, l)
			}
		}
		if len(narrowed) > 0 {
			best = narrowed
		}
	}

	switch {
	case len(best) == 1:
		loc := best[0]
		res.LocalityID = &loc.ID
		res.DepartmentID = &loc.DepartmentID
		if dept != nil && dept.ID != loc.DepartmentID {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("address mentions department %q but locality %q belongs to another", dept.Name, loc.Name))
		}
	case len(best) > 1:
		name := best[0].Name
		res.LocalityManual = &name
		if dept != nil {
			res.DepartmentID = &dept.ID
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("address matches %d localities named %q", len(best), name))
	default:
		if dept != nil {
			res.DepartmentID = &dept.ID
		}
		res.Warnings = append(res.Warnings, "could not infer locality from address")
	}
	return res, nil
}

func containsName(text, name string) bool {
	n := normalizeText(name)
	if len(n) < minNameLen {
		return false
	}
	return strings.Contains(text, " "+n+" ")
}

// normalizeText folds and replaces punctuation with spaces so names can be
// matched on word boundaries.
func normalizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', ';', ':', '-', '/', '(', ')', '#', '"', '\'':
			return ' '
		}
		return r
	}, s)
	return lookup.Fold(s)
}
