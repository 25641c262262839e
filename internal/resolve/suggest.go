package resolve

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/lookup"
)

const (
	// MaxSuggestions caps SuggestAgencies.
	MaxSuggestions  = 3
	maxEditDistance = 3
)

// SuggestAgencies lists up to MaxSuggestions agencies whose folded name
// contains or is contained in name, or is within a small edit distance.
// Suggestions are advisory and never resolve a row.
func SuggestAgencies(name string, idx *lookup.Index) []domain.Agency {
	needle := lookup.Fold(name)
	if needle == "" {
		return nil
	}

	type candidate struct {
		agency    domain.Agency
		substring bool
		distance  int
	}
	var found []candidate
	for _, a := range idx.Agencies() {
		hay := lookup.Fold(a.Name)
		if hay == "" {
			continue
		}
		dist := fuzzy.LevenshteinDistance(needle, hay)
		sub := strings.Contains(hay, needle) || strings.Contains(needle, hay)
		if sub || dist <= maxEditDistance {
			found = append(found, candidate{agency: a, substring: sub, distance: dist})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].substring != found[j].substring {
			return found[i].substring
		}
		return found[i].distance < found[j].distance
	})

	if len(found) > MaxSuggestions {
		found = found[:MaxSuggestions]
	}
	out := make([]domain.Agency, len(found))
	for i, c := range found {
		out[i] = c.agency
	}
	return out
}
