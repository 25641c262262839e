package shipimport

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/shipment-importer/internal/datanorm"
	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/lookup"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
	"github.com/ignite/shipment-importer/internal/resolve"
)

const (
	errRowUnexpected = "unexpected error processing row"
	errRowDatabase   = "database error"
	reasonCancelled  = "import cancelled"
	reasonInvalid    = "validation failed"
	rowErrorKey      = "_row"
)

// pipeline evaluates the rows of one request against one snapshot.
type pipeline struct {
	req            *domain.ImportRequest
	sender         string
	idx            *lookup.Index
	location       *resolve.LocationResolver
	locationMapped bool
	dedup          *dedupGate
	creator        ShipmentCreator
	timeout        time.Duration
}

// evaluation is a row after normalization, resolution and validation.
type evaluation struct {
	row        domain.NormalizedRow
	location   domain.ResolvedLocation
	references domain.ResolvedReferences
	warnings   []domain.Issue
	errors     map[string]string
}

func (p *pipeline) evaluate(ctx context.Context, i int) evaluation {
	row := datanorm.Normalize(p.req.Rows[i], p.req.Mapping, p.req.Defaults)
	row.SenderOrgID = p.sender

	loc := p.location.Resolve(ctx, row, p.locationMapped)
	refs, refWarnings := resolve.References(row, p.req.EntityResolutions.Agencies, p.idx)

	ev := evaluation{
		row:        row,
		location:   loc.Location,
		references: refs,
		warnings:   append(loc.Warnings, refWarnings...),
	}
	for _, w := range ev.warnings {
		resolutionWarnings.WithLabelValues(w.Field).Inc()
	}
	for f, msg := range loc.Errors {
		ev.addError(f, msg)
	}
	for f, msg := range validateRow(row) {
		ev.addError(f, msg)
	}
	return ev
}

func (e *evaluation) addError(field, msg string) {
	if e.errors == nil {
		e.errors = make(map[string]string)
	}
	e.errors[field] = msg
}

func (p *pipeline) duplicateQuery(ev evaluation) DuplicateQuery {
	return DuplicateQuery{
		SenderOrgID: p.sender,
		Row:         ev.row,
		Location:    ev.location,
		References:  ev.references,
	}
}

func (p *pipeline) dedupEnabled() bool {
	return p.req.DedupeCheck && !p.req.Force
}

// commitRow runs one row to a terminal outcome. It never panics.
func (p *pipeline) commitRow(ctx context.Context, runID string, i int) (out domain.RowOutcome) {
	rowIndex := p.req.IndexOf(i)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[shipimport] row panicked", "run_id", runID, "row", rowIndex, "panic", fmt.Sprint(r))
			out = domain.RowOutcome{
				RowIndex: rowIndex,
				Status:   domain.RowFailed,
				Reason:   errRowUnexpected,
				Errors:   map[string]string{rowErrorKey: errRowUnexpected},
			}
		}
	}()

	ev := p.evaluate(ctx, i)
	out = domain.RowOutcome{RowIndex: rowIndex, Warnings: ev.warnings}

	if len(ev.errors) > 0 {
		out.Status = domain.RowFailed
		out.Reason = reasonInvalid
		out.Errors = ev.errors
		return out
	}

	if hit := p.dedup.check(ctx, p.dedupEnabled(), p.duplicateQuery(ev)); hit != nil {
		out.Status = domain.RowSkippedDuplicate
		out.ShipmentID = hit.ShipmentID
		out.Reason = hit.Reason
		return out
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	created, err := p.creator.CreateShipment(callCtx, buildDraft(runID, ev))
	if err != nil {
		collaboratorErrors.WithLabelValues("create").Inc()
		logger.Error("[shipimport] create shipment failed", "run_id", runID, "row", rowIndex, "error", err.Error())
		out.Status = domain.RowFailed
		out.Reason = errRowDatabase
		out.Errors = map[string]string{rowErrorKey: errRowDatabase}
		return out
	}

	out.Status = domain.RowInserted
	out.ShipmentID = created.ID
	out.TrackingCode = created.TrackingCode
	return out
}

// previewRow evaluates one row without writing. Duplicates become warnings.
func (p *pipeline) previewRow(ctx context.Context, i int) (out domain.PreviewRow) {
	rowIndex := p.req.IndexOf(i)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[shipimport] preview row panicked", "row", rowIndex, "panic", fmt.Sprint(r))
			out = domain.PreviewRow{RowIndex: rowIndex, Errors: map[string]string{rowErrorKey: errRowUnexpected}}
		}
	}()

	ev := p.evaluate(ctx, i)
	out = domain.PreviewRow{
		RowIndex:   rowIndex,
		Normalized: ev.row,
		Location:   ev.location,
		References: ev.references,
		Warnings:   ev.warnings,
		Errors:     ev.errors,
	}
	if len(ev.errors) == 0 && p.sender != "" {
		if hit := p.dedup.check(ctx, p.dedupEnabled(), p.duplicateQuery(ev)); hit != nil {
			msg := hit.Reason
			if hit.ShipmentID != "" {
				msg = fmt.Sprintf("%s (shipment %s)", hit.Reason, hit.ShipmentID)
			}
			out.Warnings = append(out.Warnings, domain.Issue{Field: "duplicate", Message: msg})
		}
	}
	return out
}

func buildDraft(runID string, ev evaluation) domain.ShipmentDraft {
	row := ev.row
	return domain.ShipmentDraft{
		ImportRunID:      runID,
		SenderOrgID:      row.SenderOrgID,
		RecipientName:    row.RecipientName,
		RecipientPhone:   row.RecipientPhone,
		RecipientEmail:   row.RecipientEmail,
		RecipientAddress: row.RecipientAddress,
		DepartmentID:     ev.location.DepartmentID,
		LocalityID:       ev.location.LocalityID,
		LocalityManual:   ev.location.LocalityManual,
		DeliveryType:     ev.location.DeliveryType,
		AgencyID:         ev.references.AgencyID,
		ServiceTypeID:    ev.references.ServiceTypeID,
		FreightPaid:      row.FreightPaid != nil && *row.FreightPaid,
		FreightAmount:    row.FreightAmount,
		ShippingCost:     row.ShippingCost,
		Observations:     row.Observations,
		Notes:            row.Notes,
		Packages: []domain.PackageDraft{{
			Size:               row.PackageSize,
			Weight:             row.Weight,
			ContentDescription: row.ContentDescription,
		}},
	}
}

func cancelledOutcome(rowIndex int) domain.RowOutcome {
	return domain.RowOutcome{
		RowIndex: rowIndex,
		Status:   domain.RowFailed,
		Reason:   reasonCancelled,
		Errors:   map[string]string{rowErrorKey: reasonCancelled},
	}
}
