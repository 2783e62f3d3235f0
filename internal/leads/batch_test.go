package leads

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/resilience"
	closeapi "github.com/sells-group/leadflow/pkg/close"
	"github.com/sells-group/leadflow/pkg/zoom"
)

func TestProcessWebinar(t *testing.T) {
	store := &mockClient{}
	zc := &mockZoom{
		participantsFn: func(ctx context.Context, webinarID string) ([]zoom.Participant, error) {
			return []zoom.Participant{
				{Name: "Full Watcher", Email: "full@example.com", Duration: 80 * 60},
				{Name: "Warm Watcher", Email: "warm@example.com", Duration: 40 * 60},
				{Name: "Brief Watcher", Email: "brief@example.com", Duration: 10 * 60},
				{Name: "Zero Minutes", Email: "zero@example.com", Duration: 30},
				{Name: "No Email", Email: "", Duration: 80 * 60},
			}, nil
		},
		absenteesFn: func(ctx context.Context, webinarID string) ([]zoom.Registrant, error) {
			return []zoom.Registrant{
				{Email: "ghost@example.com", FirstName: "No", LastName: "Show"},
			}, nil
		},
	}
	e := newTestEngine(store, zc)

	summary, err := e.ProcessWebinar(context.Background(), "987654321")
	require.NoError(t, err)

	assert.Equal(t, "987654321", summary.WebinarID)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Created)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, summary.WatchedFull)
	assert.Equal(t, 2, summary.WatchedPartial)
	assert.Equal(t, 2, summary.SetterEligible)
	assert.Equal(t, 1, summary.NoShows)
	assert.Equal(t, 3, summary.ViewsSynced)
	assert.Empty(t, summary.Errors)

	// Three attendees plus one absentee; the zero-minute and email-less
	// records never reach the store.
	assert.Len(t, store.creates, 4)

	// Webinar dates come from the engine clock.
	assert.Equal(t, "2026-02-12", store.creates[0].Custom["cf_date"])
}

func TestProcessWebinarPartialFailure(t *testing.T) {
	store := &mockClient{
		createFn: func(ctx context.Context, req closeapi.CreateLeadRequest) (*closeapi.Lead, error) {
			if req.Email == "bad@example.com" {
				return nil, resilience.NewTransientError(eris.New("service unavailable"), 503)
			}
			return &closeapi.Lead{ID: "lead_" + req.Email}, nil
		},
	}
	zc := &mockZoom{
		participantsFn: func(ctx context.Context, webinarID string) ([]zoom.Participant, error) {
			return []zoom.Participant{
				{Email: "good@example.com", Duration: 80 * 60},
				{Email: "bad@example.com", Duration: 80 * 60},
				{Email: "also-good@example.com", Duration: 80 * 60},
			}, nil
		},
	}
	e := newTestEngine(store, zc)

	summary, err := e.ProcessWebinar(context.Background(), "w1")
	require.NoError(t, err)

	// The failed lead is recorded and the batch continues past it.
	assert.Equal(t, 2, summary.Processed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "bad@example.com", summary.Errors[0].Email)
	// The 503 is a temporary condition, so the report marks it re-runnable.
	assert.True(t, summary.Errors[0].Transient)
}

func TestProcessWebinarFatalAborts(t *testing.T) {
	store := &mockClient{
		listFieldsFn: func(ctx context.Context) ([]closeapi.CustomField, error) {
			return nil, eris.New("forbidden")
		},
	}
	zc := &mockZoom{
		participantsFn: func(ctx context.Context, webinarID string) ([]zoom.Participant, error) {
			return []zoom.Participant{
				{Email: "a@example.com", Duration: 80 * 60},
				{Email: "b@example.com", Duration: 80 * 60},
			}, nil
		},
	}
	e := newTestEngine(store, zc)

	summary, err := e.ProcessWebinar(context.Background(), "w1")
	require.Error(t, err)
	assert.True(t, resilience.IsFatal(err))
	// The run stops on the first lead; nothing else is attempted.
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, store.finds)
}

func TestProcessWebinarAbsenteesBestEffort(t *testing.T) {
	store := &mockClient{}
	zc := &mockZoom{
		participantsFn: func(ctx context.Context, webinarID string) ([]zoom.Participant, error) {
			return []zoom.Participant{{Email: "a@example.com", Duration: 80 * 60}}, nil
		},
		absenteesFn: func(ctx context.Context, webinarID string) ([]zoom.Registrant, error) {
			return nil, eris.New("unsupported webinar type")
		},
	}
	e := newTestEngine(store, zc)

	summary, err := e.ProcessWebinar(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.NoShows)
}

func TestProcessWebinarListFailure(t *testing.T) {
	zc := &mockZoom{
		participantsFn: func(ctx context.Context, webinarID string) ([]zoom.Participant, error) {
			return nil, eris.New("not found")
		},
	}
	e := newTestEngine(&mockClient{}, zc)

	_, err := e.ProcessWebinar(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list participants")
}

func TestProcessRecent(t *testing.T) {
	store := &mockClient{}
	listCalls := 0
	store.listSearchesFn = func(ctx context.Context) ([]closeapi.SavedSearch, error) {
		listCalls++
		return nil, nil
	}
	zc := &mockZoom{
		webinarsFn: func(ctx context.Context) ([]zoom.Webinar, error) {
			return []zoom.Webinar{{ID: "w1"}, {ID: "w2"}}, nil
		},
		participantsFn: func(ctx context.Context, webinarID string) ([]zoom.Participant, error) {
			if webinarID == "w2" {
				return nil, eris.New("recording purged")
			}
			return []zoom.Participant{{Email: "a@example.com", Duration: 80 * 60}}, nil
		},
	}
	e := newTestEngine(store, zc)

	summary, err := e.ProcessRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Webinars, 2)

	assert.Equal(t, 1, summary.Webinars[0].Processed)
	assert.Empty(t, summary.Webinars[0].Errors)

	// The failed webinar is reported in place and the run continues.
	assert.Equal(t, "w2", summary.Webinars[1].WebinarID)
	require.Len(t, summary.Webinars[1].Errors, 1)
	assert.Contains(t, summary.Webinars[1].Errors[0].Err, "recording purged")
	assert.False(t, summary.Webinars[1].Errors[0].Transient)

	// Call lists sync exactly once, at the end of the run.
	assert.Equal(t, 1, listCalls)
}
