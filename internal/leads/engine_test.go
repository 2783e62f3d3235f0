package leads

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/calllist"
	"github.com/sells-group/leadflow/internal/classify"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/resilience"
	closeapi "github.com/sells-group/leadflow/pkg/close"
	"github.com/sells-group/leadflow/pkg/zoom"
)

// mockClient implements closeapi.Client with per-method overrides plus call
// counters, so tests assert exactly which mutations ran.
type mockClient struct {
	findFn         func(ctx context.Context, email string) (*closeapi.Lead, error)
	createFn       func(ctx context.Context, req closeapi.CreateLeadRequest) (*closeapi.Lead, error)
	searchFn       func(ctx context.Context, query string, limit, skip int) ([]closeapi.Lead, bool, error)
	noteFn         func(ctx context.Context, leadID, note string) error
	listFieldsFn   func(ctx context.Context) ([]closeapi.CustomField, error)
	createFieldFn  func(ctx context.Context, req closeapi.CustomFieldRequest) (*closeapi.CustomField, error)
	listSearchesFn func(ctx context.Context) ([]closeapi.SavedSearch, error)

	finds        int
	creates      []closeapi.CreateLeadRequest
	notes        []string
	fieldCreates int
}

func (m *mockClient) FindLeadByEmail(ctx context.Context, email string) (*closeapi.Lead, error) {
	m.finds++
	if m.findFn != nil {
		return m.findFn(ctx, email)
	}
	return nil, nil
}

func (m *mockClient) CreateLead(ctx context.Context, req closeapi.CreateLeadRequest) (*closeapi.Lead, error) {
	m.creates = append(m.creates, req)
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &closeapi.Lead{ID: "lead_new"}, nil
}

func (m *mockClient) UpdateLead(ctx context.Context, leadID string, fields map[string]any) error {
	return nil
}

func (m *mockClient) SearchLeads(ctx context.Context, query string, limit, skip int) ([]closeapi.Lead, bool, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit, skip)
	}
	return nil, false, nil
}

func (m *mockClient) CreateNote(ctx context.Context, leadID, note string) error {
	m.notes = append(m.notes, note)
	if m.noteFn != nil {
		return m.noteFn(ctx, leadID, note)
	}
	return nil
}

func (m *mockClient) ListCustomFields(ctx context.Context) ([]closeapi.CustomField, error) {
	if m.listFieldsFn != nil {
		return m.listFieldsFn(ctx)
	}
	// The four pipeline fields already exist under their logical names.
	return []closeapi.CustomField{
		{ID: "cf_source", Name: model.FieldLeadSource},
		{ID: "cf_watch", Name: model.FieldWatchTime},
		{ID: "cf_priority", Name: model.FieldPriority},
		{ID: "cf_date", Name: model.FieldWebinarDate},
	}, nil
}

func (m *mockClient) CreateCustomField(ctx context.Context, req closeapi.CustomFieldRequest) (*closeapi.CustomField, error) {
	m.fieldCreates++
	if m.createFieldFn != nil {
		return m.createFieldFn(ctx, req)
	}
	return &closeapi.CustomField{ID: "cf_" + req.Name, Name: req.Name}, nil
}

func (m *mockClient) ListSavedSearches(ctx context.Context) ([]closeapi.SavedSearch, error) {
	if m.listSearchesFn != nil {
		return m.listSearchesFn(ctx)
	}
	return nil, nil
}

func (m *mockClient) CreateSavedSearch(ctx context.Context, name, query string) (*closeapi.SavedSearch, error) {
	return &closeapi.SavedSearch{ID: "sv_" + name, Name: name, Query: query}, nil
}

func (m *mockClient) UpdateSavedSearch(ctx context.Context, id, query string) error { return nil }

func (m *mockClient) DeleteSavedSearch(ctx context.Context, id string) error { return nil }

type mockZoom struct {
	webinarsFn     func(ctx context.Context) ([]zoom.Webinar, error)
	participantsFn func(ctx context.Context, webinarID string) ([]zoom.Participant, error)
	absenteesFn    func(ctx context.Context, webinarID string) ([]zoom.Registrant, error)
}

func (m *mockZoom) ListPastWebinars(ctx context.Context) ([]zoom.Webinar, error) {
	if m.webinarsFn != nil {
		return m.webinarsFn(ctx)
	}
	return nil, nil
}

func (m *mockZoom) ListParticipants(ctx context.Context, webinarID string) ([]zoom.Participant, error) {
	if m.participantsFn != nil {
		return m.participantsFn(ctx, webinarID)
	}
	return nil, nil
}

func (m *mockZoom) ListAbsentees(ctx context.Context, webinarID string) ([]zoom.Registrant, error) {
	if m.absenteesFn != nil {
		return m.absenteesFn(ctx, webinarID)
	}
	return nil, nil
}

func newTestEngine(store *mockClient, zc zoom.Client) *Engine {
	return NewEngine(Config{
		Store:       store,
		Zoom:        zc,
		Classifier:  classify.New(classify.DefaultConfig()),
		Synthesizer: calllist.NewSynthesizer(store, classify.DefaultSetterMinMinutes, 0),
		Now:         func() time.Time { return time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC) },
	})
}

func TestUpsertCreatesNewLead(t *testing.T) {
	store := &mockClient{}
	e := newTestEngine(store, &mockZoom{})

	minutes := 80
	out, err := e.Upsert(context.Background(), UpsertInput{
		Email: " Ana@Example.com ",
		Name:  "Ana Diaz",
		Classification: model.Classification{
			Source:         model.SourceWebinarWatchedFull,
			Priority:       10,
			SetterEligible: true,
			MinutesWatched: &minutes,
		},
		WebinarDate: "2026-02-12",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, out.Status)
	assert.Equal(t, "lead_new", out.LeadID)

	require.Len(t, store.creates, 1)
	req := store.creates[0]
	assert.Equal(t, "ana@example.com", req.Email)
	assert.Equal(t, "Ana Diaz", req.Name)
	assert.Equal(t, "webinar-watched-full", req.Custom["cf_source"])
	assert.Equal(t, 10, req.Custom["cf_priority"])
	assert.Equal(t, 80, req.Custom["cf_watch"])
	assert.Equal(t, "2026-02-12", req.Custom["cf_date"])

	require.Len(t, store.notes, 1)
	assert.Contains(t, store.notes[0], "📋 SETTER CALL INFO")
	assert.Contains(t, store.notes[0], "🔥 HOT")
}

// The first classification wins: a second event for the same address causes
// no mutation at all, whatever its priority.
func TestUpsertFirstClassificationWins(t *testing.T) {
	var stored *closeapi.Lead
	store := &mockClient{}
	store.findFn = func(ctx context.Context, email string) (*closeapi.Lead, error) {
		return stored, nil
	}
	store.createFn = func(ctx context.Context, req closeapi.CreateLeadRequest) (*closeapi.Lead, error) {
		stored = &closeapi.Lead{ID: "lead_1"}
		return stored, nil
	}
	e := newTestEngine(store, &mockZoom{})

	first, err := e.Upsert(context.Background(), UpsertInput{
		Email:          "ana@example.com",
		Classification: model.Classification{Source: model.SourceWebinarNoShow, Priority: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, first.Status)

	second, err := e.Upsert(context.Background(), UpsertInput{
		Email:          "ANA@example.com",
		Classification: model.Classification{Source: model.SourceBooked, Priority: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, "lead_1", second.LeadID)

	assert.Len(t, store.creates, 1)
	assert.Len(t, store.notes, 1)
}

func TestUpsertRejectsEmptyEmail(t *testing.T) {
	store := &mockClient{}
	e := newTestEngine(store, &mockZoom{})

	_, err := e.Upsert(context.Background(), UpsertInput{Email: "   "})
	require.Error(t, err)
	assert.True(t, resilience.IsValidation(err))
	assert.Zero(t, store.finds)
	assert.Empty(t, store.creates)
}

// A lost note never fails the upsert; the lead record is already written.
func TestUpsertNoteFailureIsNonFatal(t *testing.T) {
	store := &mockClient{
		noteFn: func(ctx context.Context, leadID, note string) error {
			return eris.New("activity endpoint down")
		},
	}
	e := newTestEngine(store, &mockZoom{})

	out, err := e.Upsert(context.Background(), UpsertInput{
		Email:          "ana@example.com",
		Classification: model.Classification{Source: model.SourceBooked, Priority: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, out.Status)
}

func TestBindingResolvedOnce(t *testing.T) {
	listCalls := 0
	store := &mockClient{}
	store.listFieldsFn = func(ctx context.Context) ([]closeapi.CustomField, error) {
		listCalls++
		return []closeapi.CustomField{
			{ID: "cf_source", Name: model.FieldLeadSource},
			{ID: "cf_watch", Name: model.FieldWatchTime},
			{ID: "cf_priority", Name: model.FieldPriority},
			{ID: "cf_date", Name: model.FieldWebinarDate},
		}, nil
	}
	e := newTestEngine(store, &mockZoom{})

	first, err := e.Binding(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Resolved())

	second, err := e.Binding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, listCalls)
}

func TestBindingProvisionFailureIsFatal(t *testing.T) {
	store := &mockClient{
		listFieldsFn: func(ctx context.Context) ([]closeapi.CustomField, error) {
			return nil, eris.New("forbidden")
		},
	}
	e := newTestEngine(store, &mockZoom{})

	_, err := e.Binding(context.Background())
	require.Error(t, err)
	assert.True(t, resilience.IsFatal(err))
}

func TestSyncCallListsAt(t *testing.T) {
	store := &mockClient{}
	e := newTestEngine(store, &mockZoom{})

	ref := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	results, err := e.SyncCallListsAt(context.Background(), ref)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, model.TierHot, results[0].Tier)
	assert.Equal(t, calllist.ActionCreated, results[0].Action)
}
