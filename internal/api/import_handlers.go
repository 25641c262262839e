package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/shipment-importer/internal/datanorm"
	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/pkg/httputil"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
	"github.com/ignite/shipment-importer/internal/service/templates"
	"github.com/ignite/shipment-importer/internal/storage"
)

const archiveTimeout = 10 * time.Second

// importRequestDTO is the body of preview and commit.
type importRequestDTO struct {
	Rows              []domain.RawRow          `json:"rows" validate:"required"`
	Mapping           []domain.ColumnMapping   `json:"mapping" validate:"required,unique=SourceHeader,dive"`
	Defaults          map[string]string        `json:"defaults"`
	EntityResolutions domain.EntityResolutions `json:"entity_resolutions"`
	// DedupeCheck defaults to true when omitted.
	DedupeCheck *bool `json:"dedupe_check"`
	Force       bool  `json:"force"`
}

func (d importRequestDTO) toDomain() domain.ImportRequest {
	dedupe := true
	if d.DedupeCheck != nil {
		dedupe = *d.DedupeCheck
	}
	return domain.ImportRequest{
		Rows:              d.Rows,
		Mapping:           d.Mapping,
		Defaults:          d.Defaults,
		EntityResolutions: d.EntityResolutions,
		DedupeCheck:       dedupe,
		Force:             d.Force,
	}
}

// parseResponse describes an uploaded spreadsheet.
type parseResponse struct {
	UploadID         string                 `json:"upload_id"`
	Filename         string                 `json:"filename"`
	Headers          []string               `json:"headers"`
	SampleRows       []domain.RawRow        `json:"sample_rows"`
	TotalRows        int                    `json:"total_rows"`
	Rows             []domain.RawRow        `json:"rows,omitempty"`
	SuggestedMapping []domain.ColumnMapping `json:"suggested_mapping"`
	TemplateMatch    *templates.MatchResult `json:"template_match,omitempty"`
	ArchiveLocation  string                 `json:"archive_location,omitempty"`
}

// HandleParse decodes an uploaded CSV/XLSX file and suggests a mapping.
// Form fields: file (required), owner_org_id (enables template matching),
// include_rows=true (returns every row, not just the sample).
//
//	POST /api/imports/parse
func (h *Handlers) HandleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		httputil.BadRequest(w, "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "could not read upload")
		return
	}

	sheet, err := datanorm.Parse(bytes.NewReader(data), header.Filename)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	owner := strings.TrimSpace(r.FormValue("owner_org_id"))
	resp := parseResponse{
		UploadID:         uuid.NewString(),
		Filename:         header.Filename,
		Headers:          sheet.Headers,
		SampleRows:       sheet.Sample(datanorm.SampleSize),
		TotalRows:        sheet.TotalRows(),
		SuggestedMapping: datanorm.SuggestMapping(sheet.Headers),
	}
	if r.FormValue("include_rows") == "true" {
		resp.Rows = sheet.Rows
	}

	if owner != "" && h.templates != nil {
		match, err := h.templates.Match(r.Context(), owner, sheet.Headers)
		if err != nil {
			logger.Warn("[api] template match failed", "owner_org_id", owner, "error", err.Error())
		} else {
			resp.TemplateMatch = match
		}
	}

	resp.ArchiveLocation = h.archiveUpload(r.Context(), owner, resp.UploadID, header.Filename, data)

	logger.Info("[api] upload parsed",
		"upload_id", resp.UploadID, "owner_org_id", owner,
		"headers", len(sheet.Headers), "rows", resp.TotalRows)
	httputil.OK(w, resp)
}

// archiveUpload keeps the original file. Failures are logged; parsing
// does not depend on the archive.
func (h *Handlers) archiveUpload(ctx context.Context, owner, uploadID, filename string, data []byte) string {
	if h.archive == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	loc, err := h.archive.Put(ctx, storage.Key(owner, uploadID, filename, h.now()), contentType, data)
	if err != nil {
		logger.Warn("[api] archive upload failed", "upload_id", uploadID, "error", err.Error())
		return ""
	}
	return loc
}

// HandlePreview runs the pipeline without writing.
//
//	POST /api/imports/preview
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var body importRequestDTO
	if !httputil.Decode(w, r, &body) || !validateBody(w, &body) {
		return
	}
	res, err := h.imports.Preview(r.Context(), body.toDomain())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// HandleCommit writes every acceptable row and returns the run.
//
//	POST /api/imports/commit
func (h *Handlers) HandleCommit(w http.ResponseWriter, r *http.Request) {
	var body importRequestDTO
	if !httputil.Decode(w, r, &body) || !validateBody(w, &body) {
		return
	}
	run, err := h.imports.Commit(r.Context(), body.toDomain())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, runResponse(run))
}

// HandleGetRun returns a stored run.
//
//	GET /api/imports/runs/{id}
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.imports.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, runResponse(run))
}

// HandleRetryFailed re-submits the rows of a run that created nothing.
//
//	POST /api/imports/runs/{id}/retry-failed
func (h *Handlers) HandleRetryFailed(w http.ResponseWriter, r *http.Request) {
	run, err := h.imports.RetryFailed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, runResponse(run))
}

// HandleRetryDuplicates forces the skipped duplicates of a run.
//
//	POST /api/imports/runs/{id}/retry-duplicates
func (h *Handlers) HandleRetryDuplicates(w http.ResponseWriter, r *http.Request) {
	run, err := h.imports.RetryDuplicates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, runResponse(run))
}

// HandleSuggestAgencies lists agencies resembling an unresolved name.
//
//	GET /api/imports/agencies/suggest?name=
func (h *Handlers) HandleSuggestAgencies(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	agencies, err := h.imports.SuggestAgencies(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if agencies == nil {
		agencies = []domain.Agency{}
	}
	httputil.OK(w, map[string]interface{}{"name": name, "suggestions": agencies})
}

// runView is a run as returned to clients. The original request is left
// out; it can hold hundreds of rows the client already has.
type runView struct {
	RunID     string               `json:"run_id"`
	ParentID  string               `json:"parent_id,omitempty"`
	Kind      domain.RunKind       `json:"kind"`
	Summary   domain.ImportSummary `json:"summary"`
	Results   []domain.RowOutcome  `json:"results"`
	CreatedAt time.Time            `json:"created_at"`
}

func runResponse(run *domain.ImportRun) runView {
	results := run.Outcomes
	if results == nil {
		results = []domain.RowOutcome{}
	}
	return runView{
		RunID:     run.ID,
		ParentID:  run.ParentID,
		Kind:      run.Kind,
		Summary:   run.Summary,
		Results:   results,
		CreatedAt: run.CreatedAt,
	}
}
