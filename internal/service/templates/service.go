package templates

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/shipment-importer/internal/domain"
)

const (
	// MaxSuggestions caps the ranked suggestions of Match.
	MaxSuggestions = 5
	// MinOverlap is the lowest header overlap worth suggesting.
	MinOverlap = 0.3
)

// MatchKind says how a template matched.
type MatchKind string

const (
	MatchExact  MatchKind = "exact"
	MatchSorted MatchKind = "sorted"
	MatchNone   MatchKind = "none"
)

// Suggestion is a partially matching template.
type Suggestion struct {
	Template domain.ImportTemplate `json:"template"`
	Score    float64               `json:"score"`
}

// MatchResult reports the best template for a header list.
type MatchResult struct {
	Kind        MatchKind              `json:"kind"`
	Template    *domain.ImportTemplate `json:"template,omitempty"`
	Suggestions []Suggestion           `json:"suggestions,omitempty"`
}

// Service implements template business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a template service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Match finds the owner's template for headers: an exact signature match,
// else the same headers in another order, else up to MaxSuggestions
// templates ranked by header overlap.
func (s *Service) Match(ctx context.Context, ownerOrgID string, headers []string) (*MatchResult, error) {
	all, err := s.repo.ListByOwner(ctx, ownerOrgID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	sig := Signature(headers)
	for i := range all {
		if all[i].HeaderSignature == sig {
			return &MatchResult{Kind: MatchExact, Template: &all[i]}, nil
		}
	}

	sorted := sortedSignature(sig)
	for i := range all {
		if sortedSignature(all[i].HeaderSignature) == sorted {
			return &MatchResult{Kind: MatchSorted, Template: &all[i]}, nil
		}
	}

	current := splitSignature(sig)
	var suggestions []Suggestion
	for _, t := range all {
		score := overlap(current, splitSignature(t.HeaderSignature))
		if score >= MinOverlap {
			suggestions = append(suggestions, Suggestion{Template: t, Score: score})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return &MatchResult{Kind: MatchNone, Suggestions: suggestions}, nil
}

// SaveInput is a template to create or update.
type SaveInput struct {
	OwnerOrgID string                 `json:"owner_org_id" validate:"required"`
	Name       string                 `json:"name" validate:"required,max=120"`
	Headers    []string               `json:"headers" validate:"required,min=1"`
	Mapping    []domain.ColumnMapping `json:"mapping" validate:"required,dive"`
	Defaults   map[string]string      `json:"defaults"`
}

// Save creates a template for the given headers.
func (s *Service) Save(ctx context.Context, in SaveInput) (*domain.ImportTemplate, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &domain.ImportTemplate{
		ID:              uuid.NewString(),
		OwnerOrgID:      in.OwnerOrgID,
		Name:            strings.TrimSpace(in.Name),
		HeaderSignature: Signature(in.Headers),
		Mapping:         in.Mapping,
		Defaults:        in.Defaults,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces an existing template. The owner cannot change.
func (s *Service) Update(ctx context.Context, id string, in SaveInput) (*domain.ImportTemplate, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerOrgID != in.OwnerOrgID {
		return nil, ErrNotFound
	}
	t.Name = strings.TrimSpace(in.Name)
	t.HeaderSignature = Signature(in.Headers)
	t.Mapping = in.Mapping
	t.Defaults = in.Defaults
	t.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns one template.
func (s *Service) Get(ctx context.Context, id string) (*domain.ImportTemplate, error) {
	return s.repo.Get(ctx, id)
}

// List returns the owner's templates.
func (s *Service) List(ctx context.Context, ownerOrgID string) ([]domain.ImportTemplate, error) {
	return s.repo.ListByOwner(ctx, ownerOrgID)
}

func validateInput(in SaveInput) error {
	if strings.TrimSpace(in.OwnerOrgID) == "" || strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: owner and name are required", ErrInvalid)
	}
	if len(in.Headers) == 0 {
		return fmt.Errorf("%w: headers are required", ErrInvalid)
	}
	known := make(map[string]bool, len(in.Headers))
	for _, h := range in.Headers {
		known[h] = true
	}
	seen := make(map[string]bool, len(in.Mapping))
	for _, m := range in.Mapping {
		if seen[m.SourceHeader] {
			return fmt.Errorf("%w: header %q mapped twice", ErrInvalid, m.SourceHeader)
		}
		seen[m.SourceHeader] = true
		if !known[m.SourceHeader] {
			return fmt.Errorf("%w: mapping references unknown header %q", ErrInvalid, m.SourceHeader)
		}
		if !m.TargetField.Valid() {
			return fmt.Errorf("%w: unknown target field %q", ErrInvalid, m.TargetField)
		}
	}
	return nil
}
