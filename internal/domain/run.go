package domain

import "time"

// RunKind distinguishes a first commit from its retries.
type RunKind string

const (
	RunCommit          RunKind = "commit"
	RunRetryFailed     RunKind = "retry_failed"
	RunRetryDuplicates RunKind = "retry_duplicates"
)

// EntityResolutions carries user overrides. A nil agency value means
// "explicitly no agency" for that name.
type EntityResolutions struct {
	Agencies map[string]*string `json:"agencies,omitempty"`
}

// ImportRequest is everything needed to replay an import.
type ImportRequest struct {
	Rows              []RawRow          `json:"rows"`
	Mapping           []ColumnMapping   `json:"mapping"`
	Defaults          map[string]string `json:"defaults"`
	EntityResolutions EntityResolutions `json:"entity_resolutions"`
	DedupeCheck       bool              `json:"dedupe_check"`
	Force             bool              `json:"force"`
	// RowIndexes holds the original index of each row when the request
	// is a subset of an earlier run. Empty means 0..len(Rows)-1.
	RowIndexes []int `json:"row_indexes,omitempty"`
}

// IndexOf returns the original row index of the i-th row.
func (r *ImportRequest) IndexOf(i int) int {
	if i < len(r.RowIndexes) {
		return r.RowIndexes[i]
	}
	return i
}

// ImportRun is one persisted commit attempt and its outcomes.
type ImportRun struct {
	ID          string        `json:"id"`
	ParentID    string        `json:"parent_id,omitempty"`
	Kind        RunKind       `json:"kind"`
	SenderOrgID string        `json:"sender_org_id"`
	Request     ImportRequest `json:"request"`
	Outcomes    []RowOutcome  `json:"outcomes"`
	Summary     ImportSummary `json:"summary"`
	CreatedAt   time.Time     `json:"created_at"`
}
