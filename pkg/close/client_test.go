package close

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/resilience"
)

func TestFindLeadByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/lead/", r.URL.Path)
			assert.Equal(t, `email:ana@example.com`, r.URL.Query().Get("query"))
			assert.Equal(t, "1", r.URL.Query().Get("_limit"))

			user, _, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "test-key", user)

			w.Write([]byte(`{"data": [{"id": "lead_1", "display_name": "Ana Diaz"}]}`))
		}))
		defer srv.Close()

		c := NewClient("test-key", WithBaseURL(srv.URL))
		lead, err := c.FindLeadByEmail(context.Background(), " Ana@Example.com ")
		require.NoError(t, err)
		require.NotNil(t, lead)
		assert.Equal(t, "lead_1", lead.ID)
	})

	t.Run("not found returns nil without error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": []}`))
		}))
		defer srv.Close()

		c := NewClient("test-key", WithBaseURL(srv.URL))
		lead, err := c.FindLeadByEmail(context.Background(), "missing@example.com")
		require.NoError(t, err)
		assert.Nil(t, lead)
	})
}

func TestCreateLead(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/lead/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id": "lead_new", "custom.cf_priority": 10}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	lead, err := c.CreateLead(context.Background(), CreateLeadRequest{
		Name:  "Ana Diaz",
		Email: "ana@example.com",
		Custom: map[string]any{
			"cf_priority": 10,
			"":            "dropped", // unresolved field binding
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "lead_new", lead.ID)
	assert.Equal(t, 10, lead.CustomInt("cf_priority"))

	assert.Equal(t, "Ana Diaz", got["name"])
	assert.Equal(t, float64(10), got["custom.cf_priority"])
	assert.NotContains(t, got, "custom.")
	contacts := got["contacts"].([]any)
	require.Len(t, contacts, 1)
	emails := contacts[0].(map[string]any)["emails"].([]any)
	assert.Equal(t, "ana@example.com", emails[0].(map[string]any)["email"])
}

func TestUpdateLeadEmptyFieldsIsNoOp(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	require.NoError(t, c.UpdateLead(context.Background(), "lead_1", nil))
	assert.Zero(t, calls)

	require.NoError(t, c.UpdateLead(context.Background(), "lead_1", map[string]any{"custom.cf_x": 1}))
	assert.Equal(t, 1, calls)
}

func TestSearchLeadsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `custom.cf_source:*`, r.URL.Query().Get("query"))
		assert.Equal(t, "50", r.URL.Query().Get("_limit"))
		assert.Equal(t, "100", r.URL.Query().Get("_skip"))
		w.Write([]byte(`{"data": [{"id": "lead_1"}, {"id": "lead_2"}], "has_more": true}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	leads, hasMore, err := c.SearchLeads(context.Background(), `custom.cf_source:*`, 50, 100)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
	assert.True(t, hasMore)
}

func TestCreateNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity/note/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "lead_1", body["lead_id"])
		assert.Equal(t, "hello", body["note"])
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	require.NoError(t, c.CreateNote(context.Background(), "lead_1", "hello"))
}

func TestSavedSearchEndpoints(t *testing.T) {
	t.Run("create sends type and shared", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/saved_search/", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "lead", body["_type"])
			assert.Equal(t, true, body["shared"])
			assert.Equal(t, "My List", body["name"])
			w.Write([]byte(`{"id": "sv_1", "name": "My List"}`))
		}))
		defer srv.Close()

		c := NewClient("test-key", WithBaseURL(srv.URL))
		ss, err := c.CreateSavedSearch(context.Background(), "My List", `a:"1"`)
		require.NoError(t, err)
		assert.Equal(t, "sv_1", ss.ID)
	})

	t.Run("delete targets the view", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/saved_search/sv_1", r.URL.Path)
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := NewClient("test-key", WithBaseURL(srv.URL))
		require.NoError(t, c.DeleteSavedSearch(context.Background(), "sv_1"))
	})
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "service unavailable", status: http.StatusServiceUnavailable, wantTransient: true},
		{name: "bad request", status: http.StatusBadRequest, wantTransient: false},
		{name: "not found", status: http.StatusNotFound, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient("test-key", WithBaseURL(srv.URL))
			_, err := c.ListCustomFields(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
		})
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.ListSavedSearches(ctx)
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	c := NewClient("test-key")
	hc, ok := c.(*httpClient)
	require.True(t, ok)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.NotNil(t, hc.limiter)
	assert.NotNil(t, hc.http)
}
