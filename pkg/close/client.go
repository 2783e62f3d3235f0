// Package close provides authenticated REST access to the Close CRM API:
// lead CRUD and search, note activities, custom field provisioning, and
// saved-search (smart view) management.
package close

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/resilience"
)

const defaultBaseURL = "https://api.close.com/api/v1"

// Client defines the Close API operations the pipeline uses. It is the
// store side of the lead upsert and call-list contracts: find-by-email is
// exact on the normalized address, creates accept custom fields
// opportunistically, and search supports offset pagination.
type Client interface {
	FindLeadByEmail(ctx context.Context, email string) (*Lead, error)
	CreateLead(ctx context.Context, req CreateLeadRequest) (*Lead, error)
	UpdateLead(ctx context.Context, leadID string, fields map[string]any) error
	SearchLeads(ctx context.Context, query string, limit, skip int) ([]Lead, bool, error)
	CreateNote(ctx context.Context, leadID, note string) error
	ListCustomFields(ctx context.Context) ([]CustomField, error)
	CreateCustomField(ctx context.Context, req CustomFieldRequest) (*CustomField, error)
	ListSavedSearches(ctx context.Context) ([]SavedSearch, error)
	CreateSavedSearch(ctx context.Context, name, query string) (*SavedSearch, error)
	UpdateSavedSearch(ctx context.Context, id, query string) error
	DeleteSavedSearch(ctx context.Context, id string) error
}

// CustomField is a lead custom field definition.
type CustomField struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Choices []string `json:"choices,omitempty"`
}

// CustomFieldRequest creates a lead custom field.
type CustomFieldRequest struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Choices []string `json:"choices,omitempty"`
}

// SavedSearch is a saved lead search ("smart view"). Close allows several
// saved searches with the same name; the call-list synthesizer enforces
// one-per-tier on top of this.
type SavedSearch struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets a per-second limit for Close API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Close API client. The API key authenticates as the
// basic-auth username with an empty password. Calls are throttled to 5 req/s
// by default, matching the documented per-key limit.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// do performs an authenticated request and decodes the JSON response into
// out (when non-nil). Rate-limit and server-side failures come back as
// resilience.TransientError; other non-2xx statuses are plain errors.
func (c *httpClient) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "close: rate limit")
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "close: marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return eris.Wrap(err, "close: create request")
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://app.close.com")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "close: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "close: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := eris.Errorf("close: %s %s status %d: %s", method, path, resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return eris.Wrap(err, fmt.Sprintf("close: unmarshal %s", path))
		}
	}
	return nil
}

func (c *httpClient) FindLeadByEmail(ctx context.Context, email string) (*Lead, error) {
	params := url.Values{
		"query":  {fmt.Sprintf("email:%s", model.NormalizeEmail(email))},
		"_limit": {"1"},
	}
	var out struct {
		Data []Lead `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/lead/", params, nil, &out); err != nil {
		return nil, eris.Wrap(err, "close: find lead by email")
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &out.Data[0], nil
}

func (c *httpClient) CreateLead(ctx context.Context, req CreateLeadRequest) (*Lead, error) {
	var lead Lead
	if err := c.do(ctx, http.MethodPost, "/lead/", nil, req, &lead); err != nil {
		return nil, eris.Wrap(err, "close: create lead")
	}
	return &lead, nil
}

func (c *httpClient) UpdateLead(ctx context.Context, leadID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodPut, "/lead/"+leadID, nil, fields, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("close: update lead %s", leadID))
	}
	return nil
}

func (c *httpClient) SearchLeads(ctx context.Context, query string, limit, skip int) ([]Lead, bool, error) {
	params := url.Values{
		"query":  {query},
		"_limit": {strconv.Itoa(limit)},
		"_skip":  {strconv.Itoa(skip)},
	}
	var out struct {
		Data    []Lead `json:"data"`
		HasMore bool   `json:"has_more"`
	}
	if err := c.do(ctx, http.MethodGet, "/lead/", params, nil, &out); err != nil {
		return nil, false, eris.Wrap(err, "close: search leads")
	}
	return out.Data, out.HasMore, nil
}

func (c *httpClient) CreateNote(ctx context.Context, leadID, note string) error {
	body := map[string]string{
		"lead_id": leadID,
		"note":    note,
	}
	if err := c.do(ctx, http.MethodPost, "/activity/note/", nil, body, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("close: create note for %s", leadID))
	}
	return nil
}

func (c *httpClient) ListCustomFields(ctx context.Context) ([]CustomField, error) {
	var out struct {
		Data []CustomField `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/custom_field/lead/", nil, nil, &out); err != nil {
		return nil, eris.Wrap(err, "close: list custom fields")
	}
	return out.Data, nil
}

func (c *httpClient) CreateCustomField(ctx context.Context, req CustomFieldRequest) (*CustomField, error) {
	var field CustomField
	if err := c.do(ctx, http.MethodPost, "/custom_field/lead/", nil, req, &field); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("close: create custom field %s", req.Name))
	}
	return &field, nil
}

func (c *httpClient) ListSavedSearches(ctx context.Context) ([]SavedSearch, error) {
	params := url.Values{"_type": {"lead"}}
	var out struct {
		Data []SavedSearch `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/saved_search/", params, nil, &out); err != nil {
		return nil, eris.Wrap(err, "close: list saved searches")
	}
	return out.Data, nil
}

func (c *httpClient) CreateSavedSearch(ctx context.Context, name, query string) (*SavedSearch, error) {
	body := map[string]any{
		"name":   name,
		"query":  query,
		"_type":  "lead",
		"shared": true,
	}
	var ss SavedSearch
	if err := c.do(ctx, http.MethodPost, "/saved_search/", nil, body, &ss); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("close: create saved search %q", name))
	}
	return &ss, nil
}

func (c *httpClient) UpdateSavedSearch(ctx context.Context, id, query string) error {
	body := map[string]any{
		"query":  query,
		"shared": true,
	}
	if err := c.do(ctx, http.MethodPut, "/saved_search/"+id, nil, body, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("close: update saved search %s", id))
	}
	return nil
}

func (c *httpClient) DeleteSavedSearch(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/saved_search/"+id, nil, nil, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("close: delete saved search %s", id))
	}
	return nil
}
