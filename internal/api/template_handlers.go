package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/pkg/httputil"
	"github.com/ignite/shipment-importer/internal/service/templates"
)

type matchTemplateRequest struct {
	OwnerOrgID string   `json:"owner_org_id" validate:"required"`
	Headers    []string `json:"headers" validate:"required,min=1"`
}

// HandleListTemplates lists an owner's templates.
//
//	GET /api/import-templates?owner_org_id=
func (h *Handlers) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner_org_id"))
	if owner == "" {
		httputil.BadRequest(w, "owner_org_id is required")
		return
	}
	list, err := h.templates.List(r.Context(), owner)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.ImportTemplate{}
	}
	httputil.OK(w, map[string]interface{}{"templates": list, "total": len(list)})
}

//	POST /api/import-templates
func (h *Handlers) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in templates.SaveInput
	if !httputil.Decode(w, r, &in) || !validateBody(w, &in) {
		return
	}
	tpl, err := h.templates.Save(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, tpl)
}

//	PUT /api/import-templates/{id}
func (h *Handlers) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var in templates.SaveInput
	if !httputil.Decode(w, r, &in) || !validateBody(w, &in) {
		return
	}
	tpl, err := h.templates.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, tpl)
}

//	GET /api/import-templates/{id}
func (h *Handlers) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, tpl)
}

// HandleMatchTemplate finds the owner's template for a header list. It
// never applies the template.
//
//	POST /api/import-templates/match
func (h *Handlers) HandleMatchTemplate(w http.ResponseWriter, r *http.Request) {
	var body matchTemplateRequest
	if !httputil.Decode(w, r, &body) || !validateBody(w, &body) {
		return
	}
	res, err := h.templates.Match(r.Context(), body.OwnerOrgID, body.Headers)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}
