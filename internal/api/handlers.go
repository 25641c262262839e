package api

import (
	"context"
	"time"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/service/shipimport"
	"github.com/ignite/shipment-importer/internal/service/templates"
	"github.com/ignite/shipment-importer/internal/storage"
)

// ImportService is the import workflow used by the handlers.
type ImportService interface {
	Preview(ctx context.Context, req domain.ImportRequest) (*shipimport.PreviewResult, error)
	Commit(ctx context.Context, req domain.ImportRequest) (*domain.ImportRun, error)
	RetryFailed(ctx context.Context, runID string) (*domain.ImportRun, error)
	RetryDuplicates(ctx context.Context, runID string) (*domain.ImportRun, error)
	GetRun(ctx context.Context, runID string) (*domain.ImportRun, error)
	SuggestAgencies(ctx context.Context, name string) ([]domain.Agency, error)
}

// TemplateService manages saved column mappings.
type TemplateService interface {
	Match(ctx context.Context, ownerOrgID string, headers []string) (*templates.MatchResult, error)
	Save(ctx context.Context, in templates.SaveInput) (*domain.ImportTemplate, error)
	Update(ctx context.Context, id string, in templates.SaveInput) (*domain.ImportTemplate, error)
	Get(ctx context.Context, id string) (*domain.ImportTemplate, error)
	List(ctx context.Context, ownerOrgID string) ([]domain.ImportTemplate, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	imports   ImportService
	templates TemplateService
	archive   storage.Archive
	maxUpload int64
	now       func() time.Time
}

// NewHandlers creates the handlers. archive may be nil to skip archiving
// uploads.
func NewHandlers(imports ImportService, tpl TemplateService, archive storage.Archive, maxUpload int64) *Handlers {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handlers{
		imports:   imports,
		templates: tpl,
		archive:   archive,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}
