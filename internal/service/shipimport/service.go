package shipimport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/shipment-importer/internal/datanorm"
	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/inference"
	"github.com/ignite/shipment-importer/internal/lookup"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
	"github.com/ignite/shipment-importer/internal/resolve"
)

// Deps are the collaborators of the service. References, Creator and Runs
// are required; the rest may be nil.
type Deps struct {
	References lookup.Source
	Creator    ShipmentCreator
	Duplicates DuplicateChecker
	Inferrer   inference.Inferrer
	Runs       RunStore
	Locker     Locker
}

// Service runs shipment imports. It is safe for concurrent use; every run
// loads its own reference snapshot.
type Service struct {
	deps Deps
	cfg  Config
	now  func() time.Time
}

// NewService creates an import service.
func NewService(deps Deps, cfg Config) *Service {
	return &Service{deps: deps, cfg: cfg.withDefaults(), now: time.Now}
}

// PreviewResult is the dry-run view of a request.
type PreviewResult struct {
	Rows    []domain.PreviewRow   `json:"rows"`
	Summary domain.PreviewSummary `json:"summary"`
}

// Preview normalizes, resolves and validates every row without writing.
// The sender is optional here; without it duplicate checks are skipped.
func (s *Service) Preview(ctx context.Context, req domain.ImportRequest) (*PreviewResult, error) {
	if err := s.checkSize(req); err != nil {
		return nil, err
	}
	idx, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	sender := strings.TrimSpace(req.Defaults[datanorm.SenderOrgKey])
	p := s.newPipeline(&req, sender, idx)

	rows := make([]domain.PreviewRow, 0, len(req.Rows))
	for i := range req.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows = append(rows, p.previewRow(ctx, i))
	}
	return &PreviewResult{Rows: rows, Summary: domain.TallyPreview(rows)}, nil
}

// Commit writes every acceptable row and persists the run.
func (s *Service) Commit(ctx context.Context, req domain.ImportRequest) (*domain.ImportRun, error) {
	req.RowIndexes = nil
	return s.execute(ctx, domain.RunCommit, "", req)
}

// RetryFailed re-submits the rows of a run that produced no shipment id,
// with the run's dedupe setting and without force.
func (s *Service) RetryFailed(ctx context.Context, runID string) (*domain.ImportRun, error) {
	prev, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	req := subset(prev, func(o domain.RowOutcome) bool { return o.ShipmentID == "" })
	req.Force = false
	return s.execute(ctx, domain.RunRetryFailed, prev.ID, req)
}

// RetryDuplicates re-submits only the rows skipped as duplicates, forcing
// them past the duplicate check.
func (s *Service) RetryDuplicates(ctx context.Context, runID string) (*domain.ImportRun, error) {
	prev, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	req := subset(prev, func(o domain.RowOutcome) bool { return o.Status == domain.RowSkippedDuplicate })
	req.Force = true
	return s.execute(ctx, domain.RunRetryDuplicates, prev.ID, req)
}

// GetRun returns a persisted run.
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.ImportRun, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, ErrRunNotFound
	}
	run, err := s.deps.Runs.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return run, nil
}

// SuggestAgencies returns advisory agency candidates for a name.
func (s *Service) SuggestAgencies(ctx context.Context, name string) ([]domain.Agency, error) {
	idx, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return resolve.SuggestAgencies(name, idx), nil
}

func (s *Service) execute(ctx context.Context, kind domain.RunKind, parentID string, req domain.ImportRequest) (*domain.ImportRun, error) {
	if err := s.checkSize(req); err != nil {
		return nil, err
	}
	sender := strings.TrimSpace(req.Defaults[datanorm.SenderOrgKey])
	if sender == "" {
		return nil, ErrMissingSender
	}

	if s.deps.Locker != nil {
		release, ok, err := s.deps.Locker.TryLock(ctx, "import:"+sender)
		if err != nil {
			return nil, fmt.Errorf("acquire import lock: %w", err)
		}
		if !ok {
			return nil, ErrImportInProgress
		}
		defer release()
	}

	idx, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	started := s.now()
	run := &domain.ImportRun{
		ID:          uuid.NewString(),
		ParentID:    parentID,
		Kind:        kind,
		SenderOrgID: sender,
		Request:     req,
		CreatedAt:   started.UTC(),
	}
	p := s.newPipeline(&run.Request, sender, idx)

	outcomes := make([]domain.RowOutcome, 0, len(req.Rows))
	for start := 0; start < len(req.Rows); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(req.Rows) {
			end = len(req.Rows)
		}
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				outcomes = append(outcomes, cancelledOutcome(req.IndexOf(i)))
				continue
			}
			outcomes = append(outcomes, p.commitRow(ctx, run.ID, i))
		}
		logger.Debug("[shipimport] batch done", "run_id", run.ID, "from", start, "to", end)
	}

	run.Outcomes = outcomes
	run.Summary = domain.Tally(outcomes)

	importRuns.WithLabelValues(string(kind)).Inc()
	importRunDuration.WithLabelValues(string(kind)).Observe(s.now().Sub(started).Seconds())
	for _, o := range outcomes {
		importRows.WithLabelValues(string(o.Status)).Inc()
	}

	// The run is stored even when the caller went away, so the rows it did
	// not reach can be retried.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CallTimeout)
	defer cancel()
	if err := s.deps.Runs.Save(saveCtx, run); err != nil {
		collaboratorErrors.WithLabelValues("run_store").Inc()
		logger.Error("[shipimport] save run failed", "run_id", run.ID, "error", err.Error())
	}

	logger.Info("[shipimport] run complete",
		"run_id", run.ID, "kind", string(kind), "sender_org_id", sender,
		"total", run.Summary.Total, "inserted", run.Summary.Inserted,
		"failed", run.Summary.Failed, "skipped", run.Summary.Skipped)
	return run, nil
}

func (s *Service) checkSize(req domain.ImportRequest) error {
	if len(req.Rows) > s.cfg.MaxRows {
		return fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(req.Rows), s.cfg.MaxRows)
	}
	return nil
}

func (s *Service) loadIndex(ctx context.Context) (*lookup.Index, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	idx, err := lookup.Load(callCtx, s.deps.References)
	if err != nil {
		collaboratorErrors.WithLabelValues("references").Inc()
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	return idx, nil
}

func (s *Service) newPipeline(req *domain.ImportRequest, sender string, idx *lookup.Index) *pipeline {
	mapped := datanorm.MappedFields(req.Mapping)
	return &pipeline{
		req:            req,
		sender:         sender,
		idx:            idx,
		location:       resolve.NewLocationResolver(idx, s.deps.Inferrer, s.cfg.CallTimeout),
		locationMapped: mapped[domain.FieldDepartmentName] || mapped[domain.FieldLocalityName],
		dedup:          &dedupGate{checker: s.deps.Duplicates, timeout: s.cfg.CallTimeout},
		creator:        s.deps.Creator,
		timeout:        s.cfg.CallTimeout,
	}
}

// subset builds a request holding only the rows of prev whose outcome
// matches keep, preserving their original row indexes.
func subset(prev *domain.ImportRun, keep func(domain.RowOutcome) bool) domain.ImportRequest {
	src := prev.Request
	pos := make(map[int]int, len(src.Rows))
	for i := range src.Rows {
		pos[src.IndexOf(i)] = i
	}

	req := src
	req.Rows = nil
	req.RowIndexes = nil
	for _, o := range prev.Outcomes {
		if !keep(o) {
			continue
		}
		i, ok := pos[o.RowIndex]
		if !ok {
			continue
		}
		req.Rows = append(req.Rows, src.Rows[i])
		req.RowIndexes = append(req.RowIndexes, o.RowIndex)
	}
	return req
}
