package domain

// RowStatus is the terminal state of a committed row.
type RowStatus string

const (
	RowInserted         RowStatus = "INSERTED"
	RowFailed           RowStatus = "FAILED"
	RowSkippedDuplicate RowStatus = "SKIPPED_DUPLICATE"
)

// RowOutcome records what happened to one row in one attempt.
type RowOutcome struct {
	RowIndex     int               `json:"row_index"`
	Status       RowStatus         `json:"status"`
	ShipmentID   string            `json:"shipment_id,omitempty"`
	TrackingCode string            `json:"tracking_code,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Warnings     []Issue           `json:"warnings,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// ImportSummary aggregates the outcomes of one attempt.
type ImportSummary struct {
	Total        int `json:"total"`
	Inserted     int `json:"inserted"`
	WithWarnings int `json:"with_warnings"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
}

// Tally derives a summary from outcomes. Summaries are never maintained
// incrementally, so Inserted+Failed+Skipped always equals Total.
func Tally(outcomes []RowOutcome) ImportSummary {
	s := ImportSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case RowInserted:
			s.Inserted++
			if len(o.Warnings) > 0 {
				s.WithWarnings++
			}
		case RowSkippedDuplicate:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// PreviewRow is the dry-run view of one row.
type PreviewRow struct {
	RowIndex   int                `json:"row_index"`
	Normalized NormalizedRow      `json:"normalized"`
	Location   ResolvedLocation   `json:"location"`
	References ResolvedReferences `json:"references"`
	Warnings   []Issue            `json:"warnings,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
}

// PreviewSummary counts preview rows. OK rows have neither warnings nor errors.
type PreviewSummary struct {
	Total        int `json:"total"`
	OK           int `json:"ok"`
	WithWarnings int `json:"with_warnings"`
	WithErrors   int `json:"with_errors"`
}

// TallyPreview derives a preview summary from preview rows.
func TallyPreview(rows []PreviewRow) PreviewSummary {
	s := PreviewSummary{Total: len(rows)}
	for _, r := range rows {
		switch {
		case len(r.Errors) > 0:
			s.WithErrors++
		case len(r.Warnings) > 0:
			s.WithWarnings++
		default:
			s.OK++
		}
	}
	return s
}
