package shipimport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/inference"
)

// refSource is an in-memory reference catalogue.
type refSource struct {
	loads int
}

func (r *refSource) Departments(context.Context) ([]domain.Department, error) {
	r.loads++
	return []domain.Department{{ID: 1, Name: "Montevideo"}, {ID: 2, Name: "Canelones"}}, nil
}

func (r *refSource) Localities(context.Context) ([]domain.Locality, error) {
	return []domain.Locality{
		{ID: 10, Name: "Pocitos", DepartmentID: 1},
		{ID: 20, Name: "Shangrilá", DepartmentID: 2},
	}, nil
}

func (r *refSource) Agencies(context.Context) ([]domain.Agency, error) {
	return []domain.Agency{{ID: "ag-1", Name: "DAC"}}, nil
}

func (r *refSource) ServiceTypes(context.Context) ([]domain.ServiceType, error) {
	return []domain.ServiceType{{ID: "st-1", Code: "EXPRESS"}}, nil
}

// mockCreator records drafts and misbehaves for chosen recipients.
type mockCreator struct {
	mu      sync.Mutex
	drafts  []domain.ShipmentDraft
	failFor map[string]bool
	panicOn map[string]bool
}

func newMockCreator() *mockCreator {
	return &mockCreator{failFor: map[string]bool{}, panicOn: map[string]bool{}}
}

func (m *mockCreator) CreateShipment(_ context.Context, d domain.ShipmentDraft) (*domain.CreatedShipment, error) {
	if m.panicOn[d.RecipientName] {
		panic("boom")
	}
	if m.failFor[d.RecipientName] {
		return nil, errors.New("pq: connection reset")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, d)
	n := len(m.drafts)
	return &domain.CreatedShipment{ID: fmt.Sprintf("shp-%d", n), TrackingCode: fmt.Sprintf("TRK%04d", n)}, nil
}

func (m *mockCreator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

// mockDupes flags recipients by name.
type mockDupes struct {
	names map[string]string
	err   error
	calls int
}

func (m *mockDupes) CheckDuplicate(_ context.Context, q DuplicateQuery) (*DuplicateResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if id, ok := m.names[q.Row.RecipientName]; ok {
		return &DuplicateResult{Duplicate: true, ShipmentID: id, Reason: "same recipient within 72h"}, nil
	}
	return &DuplicateResult{}, nil
}

type mockLocker struct {
	held     bool
	released int
}

func (m *mockLocker) TryLock(context.Context, string) (func(), bool, error) {
	if m.held {
		return nil, false, nil
	}
	return func() { m.released++ }, true, nil
}

type fixture struct {
	svc     *Service
	refs    *refSource
	creator *mockCreator
	dupes   *mockDupes
	runs    *MemoryRunStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		refs:    &refSource{},
		creator: newMockCreator(),
		dupes:   &mockDupes{names: map[string]string{}},
		runs:    NewMemoryRunStore(0),
	}
	f.svc = NewService(Deps{
		References: f.refs,
		Creator:    f.creator,
		Duplicates: f.dupes,
		Runs:       f.runs,
	}, Config{})
	return f
}

var testMapping = []domain.ColumnMapping{
	{SourceHeader: "Nombre", TargetField: domain.FieldRecipientName},
	{SourceHeader: "Departamento", TargetField: domain.FieldDepartmentName},
	{SourceHeader: "Localidad", TargetField: domain.FieldLocalityName},
	{SourceHeader: "Agencia", TargetField: domain.FieldAgencyName},
}

func request(rows ...domain.RawRow) domain.ImportRequest {
	return domain.ImportRequest{
		Rows:        rows,
		Mapping:     testMapping,
		Defaults:    map[string]string{"sender_org_id": "org-1", "service_type": "express"},
		DedupeCheck: true,
	}
}

func row(name, locality string) domain.RawRow {
	return domain.RawRow{"Nombre": name, "Localidad": locality}
}

func assertSummaryConsistent(t *testing.T, run *domain.ImportRun) {
	t.Helper()
	s := run.Summary
	assert.Equal(t, len(run.Outcomes), s.Total)
	assert.Equal(t, s.Total, s.Inserted+s.Failed+s.Skipped)
	assert.LessOrEqual(t, s.WithWarnings, s.Inserted)
	assert.Equal(t, domain.Tally(run.Outcomes), s)
}

func TestCommit_MixedOutcomes(t *testing.T) {
	f := newFixture(t)
	f.creator.failFor["Db Fail"] = true
	f.creator.panicOn["Panics"] = true

	run, err := f.svc.Commit(context.Background(), request(
		row("Ana", "Pocitos"),
		row("", "Pocitos"),
		domain.RawRow{"Nombre": "Sin Localidad", "Departamento": "Canelones"},
		row("Db Fail", "Pocitos"),
		row("Panics", "Pocitos"),
		domain.RawRow{"Nombre": "Luis", "Localidad": "Pocitos", "Agencia": "Desconocida"},
	))
	require.NoError(t, err)
	require.Len(t, run.Outcomes, 6)
	assertSummaryConsistent(t, run)

	o := run.Outcomes
	assert.Equal(t, domain.RowInserted, o[0].Status)
	assert.NotEmpty(t, o[0].ShipmentID)
	assert.NotEmpty(t, o[0].TrackingCode)

	assert.Equal(t, domain.RowFailed, o[1].Status)
	assert.Contains(t, o[1].Errors, "recipient_name")

	assert.Equal(t, domain.RowFailed, o[2].Status)
	assert.Contains(t, o[2].Errors, "locality_name")

	assert.Equal(t, domain.RowFailed, o[3].Status)
	assert.Equal(t, "database error", o[3].Errors["_row"])

	assert.Equal(t, domain.RowFailed, o[4].Status)
	assert.Equal(t, errRowUnexpected, o[4].Errors["_row"])

	assert.Equal(t, domain.RowInserted, o[5].Status)
	assert.NotEmpty(t, o[5].Warnings)

	assert.Equal(t, domain.ImportSummary{Total: 6, Inserted: 2, WithWarnings: 1, Failed: 4}, run.Summary)
	for i, out := range o {
		assert.Equal(t, i, out.RowIndex)
	}
}

func TestCommit_BuildsDraft(t *testing.T) {
	f := newFixture(t)
	req := request(domain.RawRow{"Nombre": "Ana", "Localidad": "Pocitos", "Agencia": "dac"})

	_, err := f.svc.Commit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, f.creator.count())

	d := f.creator.drafts[0]
	assert.Equal(t, "org-1", d.SenderOrgID)
	assert.Equal(t, 10, *d.LocalityID)
	assert.Equal(t, 1, *d.DepartmentID)
	assert.Nil(t, d.LocalityManual)
	assert.Equal(t, "ag-1", *d.AgencyID)
	assert.Equal(t, "st-1", *d.ServiceTypeID)
	assert.Equal(t, domain.DeliveryHome, d.DeliveryType)
	assert.Len(t, d.Packages, 1)
	assert.NotEmpty(t, d.ImportRunID)
}

func TestCommit_PartialLocalityMatch(t *testing.T) {
	f := newFixture(t)

	run, err := f.svc.Commit(context.Background(), request(row("Ana", "SHANGRILA")))
	require.NoError(t, err)

	o := run.Outcomes[0]
	require.Equal(t, domain.RowInserted, o.Status)
	require.NotEmpty(t, o.Warnings)
	assert.Equal(t, "locality_name", o.Warnings[0].Field)
	assert.Contains(t, o.Warnings[0].Message, "partial match")
	assert.Equal(t, 2, *f.creator.drafts[0].DepartmentID)
	assert.Equal(t, 1, run.Summary.WithWarnings)
}

func TestCommit_BlankInferredLocalityFailsRow(t *testing.T) {
	geocoder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"locality_manual":""}`))
	}))
	defer geocoder.Close()

	f := newFixture(t)
	f.svc.deps.Inferrer = inference.NewRemote(geocoder.Client(), geocoder.URL)

	req := request(domain.RawRow{"Nombre": "Ana", "Direccion": "Calle Falsa 123"})
	req.Mapping = []domain.ColumnMapping{
		{SourceHeader: "Nombre", TargetField: domain.FieldRecipientName},
		{SourceHeader: "Direccion", TargetField: domain.FieldRecipientAddress},
	}

	run, err := f.svc.Commit(context.Background(), req)
	require.NoError(t, err)

	o := run.Outcomes[0]
	assert.Equal(t, domain.RowFailed, o.Status)
	assert.Contains(t, o.Errors, "locality_name")
	assert.Zero(t, f.creator.count())
}

func TestCommit_CountsResolutionWarnings(t *testing.T) {
	f := newFixture(t)
	agency := resolutionWarnings.WithLabelValues("agency_name")
	locality := resolutionWarnings.WithLabelValues("locality_name")
	agencyBefore, localityBefore := testutil.ToFloat64(agency), testutil.ToFloat64(locality)

	_, err := f.svc.Commit(context.Background(), request(
		domain.RawRow{"Nombre": "Ana", "Localidad": "Pocitos", "Agencia": "Desconocida"},
		row("Luis", "SHANGRILA"),
	))
	require.NoError(t, err)

	assert.Equal(t, agencyBefore+1, testutil.ToFloat64(agency))
	assert.Equal(t, localityBefore+1, testutil.ToFloat64(locality))
}

func TestCommit_RejectsOversizedImport(t *testing.T) {
	f := newFixture(t)
	rows := make([]domain.RawRow, 501)
	for i := range rows {
		rows[i] = row(fmt.Sprintf("R%d", i), "Pocitos")
	}

	run, err := f.svc.Commit(context.Background(), request(rows...))
	assert.ErrorIs(t, err, ErrTooManyRows)
	assert.Nil(t, run)
	assert.Equal(t, 0, f.refs.loads)
	assert.Equal(t, 0, f.creator.count())
}

func TestCommit_RequiresSender(t *testing.T) {
	f := newFixture(t)
	req := request(row("Ana", "Pocitos"))
	delete(req.Defaults, "sender_org_id")

	_, err := f.svc.Commit(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingSender)
	assert.Equal(t, 0, f.creator.count())
}

func TestCommit_SenderNeverTakenFromRows(t *testing.T) {
	f := newFixture(t)
	req := request(row("Ana", "Pocitos"))
	req.Mapping = append(req.Mapping, domain.ColumnMapping{SourceHeader: "Org", TargetField: "sender_org_id"})
	req.Rows[0]["Org"] = "org-evil"

	_, err := f.svc.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "org-1", f.creator.drafts[0].SenderOrgID)
}

func TestCommit_ManyBatches(t *testing.T) {
	f := newFixture(t)
	rows := make([]domain.RawRow, 60)
	for i := range rows {
		rows[i] = row(fmt.Sprintf("R%d", i), "Pocitos")
	}

	run, err := f.svc.Commit(context.Background(), request(rows...))
	require.NoError(t, err)
	assert.Equal(t, 60, run.Summary.Inserted)
	assert.Equal(t, 1, f.refs.loads, "one snapshot per run")
	assertSummaryConsistent(t, run)
}

func TestCommit_DuplicateThenRetryDuplicates(t *testing.T) {
	f := newFixture(t)
	f.dupes.names["Ana"] = "shp-old"

	run, err := f.svc.Commit(context.Background(), request(row("Ana", "Pocitos"), row("Luis", "Pocitos")))
	require.NoError(t, err)
	assertSummaryConsistent(t, run)

	dup := run.Outcomes[0]
	assert.Equal(t, domain.RowSkippedDuplicate, dup.Status)
	assert.Equal(t, "shp-old", dup.ShipmentID)
	assert.NotEmpty(t, dup.Reason)
	assert.Equal(t, 1, run.Summary.Skipped)
	assert.Equal(t, 1, f.creator.count(), "duplicate is skipped before any write")

	retry, err := f.svc.RetryDuplicates(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunRetryDuplicates, retry.Kind)
	assert.Equal(t, run.ID, retry.ParentID)
	assert.NotEqual(t, run.ID, retry.ID)
	require.Len(t, retry.Outcomes, 1)
	assert.Equal(t, 0, retry.Outcomes[0].RowIndex)
	assert.Equal(t, domain.RowInserted, retry.Outcomes[0].Status)
	assert.Equal(t, domain.ImportSummary{Total: 1, Inserted: 1}, retry.Summary)

	stored, err := f.svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RowSkippedDuplicate, stored.Outcomes[0].Status, "earlier run is not merged")
}

func TestCommit_DedupDisabledOrForced(t *testing.T) {
	f := newFixture(t)
	f.dupes.names["Ana"] = "shp-old"

	req := request(row("Ana", "Pocitos"))
	req.DedupeCheck = false
	run, err := f.svc.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.RowInserted, run.Outcomes[0].Status)

	req = request(row("Ana", "Pocitos"))
	req.Force = true
	run, err = f.svc.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.RowInserted, run.Outcomes[0].Status)
	assert.Equal(t, 0, f.dupes.calls)
}

func TestCommit_DedupErrorDoesNotFailRow(t *testing.T) {
	f := newFixture(t)
	f.dupes.err = errors.New("timeout")

	run, err := f.svc.Commit(context.Background(), request(row("Ana", "Pocitos")))
	require.NoError(t, err)
	assert.Equal(t, domain.RowInserted, run.Outcomes[0].Status)
	assert.Equal(t, 1, f.dupes.calls)
}

func TestRetryFailed_OnlyRowsWithoutShipment(t *testing.T) {
	f := newFixture(t)
	f.creator.failFor["Db Fail"] = true
	f.dupes.names["Dup"] = "shp-old"

	run, err := f.svc.Commit(context.Background(), request(
		row("Ana", "Pocitos"),
		row("Db Fail", "Pocitos"),
		row("Dup", "Pocitos"),
	))
	require.NoError(t, err)
	require.Equal(t, domain.ImportSummary{Total: 3, Inserted: 1, Failed: 1, Skipped: 1}, run.Summary)

	delete(f.creator.failFor, "Db Fail")
	retry, err := f.svc.RetryFailed(context.Background(), run.ID)
	require.NoError(t, err)

	require.Len(t, retry.Outcomes, 1)
	assert.Equal(t, 1, retry.Outcomes[0].RowIndex)
	assert.Equal(t, domain.RowInserted, retry.Outcomes[0].Status)
	assert.Equal(t, domain.RunRetryFailed, retry.Kind)

	// Nothing is left without a shipment id.
	again, err := f.svc.RetryFailed(context.Background(), retry.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Outcomes)
}

func TestRetry_UnknownRun(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RetryFailed(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = f.svc.RetryDuplicates(context.Background(), "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestCommit_CancelledContextLeavesRowsRetryable(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel once the snapshot is loaded, before any row runs.
	f.svc.deps.References = cancellingSource{refSource: f.refs, cancel: cancel}

	run, err := f.svc.Commit(ctx, request(row("Ana", "Pocitos"), row("Luis", "Pocitos")))
	require.NoError(t, err)
	for _, o := range run.Outcomes {
		assert.Equal(t, domain.RowFailed, o.Status)
		assert.Equal(t, reasonCancelled, o.Reason)
	}
	assert.Equal(t, 0, f.creator.count())

	_, err = f.runs.Get(context.Background(), run.ID)
	require.NoError(t, err, "run is stored even after cancellation")

	f.svc.deps.References = f.refs
	retry, err := f.svc.RetryFailed(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retry.Summary.Inserted)
}

type cancellingSource struct {
	*refSource
	cancel context.CancelFunc
}

func (c cancellingSource) ServiceTypes(ctx context.Context) ([]domain.ServiceType, error) {
	out, err := c.refSource.ServiceTypes(ctx)
	c.cancel()
	return out, err
}

func TestCommit_LockHeld(t *testing.T) {
	f := newFixture(t)
	lock := &mockLocker{held: true}
	f.svc.deps.Locker = lock

	_, err := f.svc.Commit(context.Background(), request(row("Ana", "Pocitos")))
	assert.ErrorIs(t, err, ErrImportInProgress)

	lock.held = false
	_, err = f.svc.Commit(context.Background(), request(row("Ana", "Pocitos")))
	require.NoError(t, err)
	assert.Equal(t, 1, lock.released)
}

func TestPreview_NoWritesAndDuplicateWarnings(t *testing.T) {
	f := newFixture(t)
	f.dupes.names["Ana"] = "shp-old"

	res, err := f.svc.Preview(context.Background(), request(
		row("Ana", "Pocitos"),
		row("Luis", "Pocitos"),
		row("Eva", "SHANGRILA"),
		row("", "Pocitos"),
	))
	require.NoError(t, err)
	assert.Equal(t, 0, f.creator.count())
	require.Len(t, res.Rows, 4)

	assert.Equal(t, "duplicate", res.Rows[0].Warnings[0].Field)
	assert.Contains(t, res.Rows[0].Warnings[0].Message, "shp-old")
	assert.Empty(t, res.Rows[1].Warnings)
	assert.Equal(t, 10, *res.Rows[1].Location.LocalityID)
	assert.Contains(t, res.Rows[3].Errors, "recipient_name")

	assert.Equal(t, domain.PreviewSummary{Total: 4, OK: 1, WithWarnings: 2, WithErrors: 1}, res.Summary)
}

func TestPreview_RejectsOversizedImport(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Preview(context.Background(), request(make([]domain.RawRow, 501)...))
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestSuggestAgencies(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.SuggestAgencies(context.Background(), "DAC Centro")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ag-1", got[0].ID)
}
