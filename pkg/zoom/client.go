// Package zoom provides Server-to-Server OAuth access to the Zoom webinar API.
package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadflow/internal/resilience"
)

const (
	defaultBaseURL  = "https://api.zoom.us/v2"
	defaultOAuthURL = "https://zoom.us/oauth/token"

	// tokenSafetyWindow refreshes the OAuth token this long before expiry.
	tokenSafetyWindow = 5 * time.Minute

	participantPageSize = 300
)

// Webinar is a scheduled or past webinar occurrence.
type Webinar struct {
	ID        string    `json:"id"`
	UUID      string    `json:"uuid"`
	Topic     string    `json:"topic"`
	StartTime time.Time `json:"start_time"`
}

// UnmarshalJSON decodes the id as either a JSON number or a string. The
// list endpoint serializes webinar ids numerically; everything downstream
// carries them as strings for URL paths.
func (w *Webinar) UnmarshalJSON(data []byte) error {
	type alias Webinar
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.ID = strings.Trim(string(aux.ID), `"`)
	return nil
}

// Participant is one attendance record of a past webinar. Duration is in
// seconds as reported by Zoom.
type Participant struct {
	Name     string `json:"name"`
	Email    string `json:"user_email"`
	Duration int    `json:"duration"`
}

// Registrant is a webinar registrant, used for absentee (no-show) listings.
type Registrant struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName joins the registrant's name parts.
func (r Registrant) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Client defines the Zoom API operations the webinar batch processing uses.
type Client interface {
	ListPastWebinars(ctx context.Context) ([]Webinar, error)
	ListParticipants(ctx context.Context, webinarID string) ([]Participant, error)
	ListAbsentees(ctx context.Context, webinarID string) ([]Registrant, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithOAuthURL overrides the default token endpoint.
func WithOAuthURL(u string) Option {
	return func(c *httpClient) { c.oauthURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets a per-second limit for Zoom API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	accountID    string
	clientID     string
	clientSecret string
	baseURL      string
	oauthURL     string
	http         *http.Client
	limiter      *rate.Limiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Zoom API client using account-credentials OAuth.
func NewClient(accountID, clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		oauthURL:     defaultOAuthURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
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

// token returns a cached access token, fetching a fresh one when the cached
// token is missing or inside the refresh window.
func (c *httpClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {c.accountID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "zoom: create token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "zoom: request token")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "zoom: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("zoom: token status %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", eris.Wrap(err, "zoom: unmarshal token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSafetyWindow)
	return c.accessToken, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "zoom: rate limit")
	}

	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "zoom: create request")
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "zoom: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "zoom: read response")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("zoom: %s status %d: %s", path, resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, fmt.Sprintf("zoom: unmarshal %s", path))
	}
	return nil
}

func (c *httpClient) ListPastWebinars(ctx context.Context) ([]Webinar, error) {
	params := url.Values{
		"page_size": {"30"},
		"type":      {"past"},
	}
	var out struct {
		Webinars []Webinar `json:"webinars"`
	}
	if err := c.get(ctx, "/users/me/webinars", params, &out); err != nil {
		return nil, err
	}
	return out.Webinars, nil
}

func (c *httpClient) ListParticipants(ctx context.Context, webinarID string) ([]Participant, error) {
	var participants []Participant
	nextPageToken := ""

	for {
		params := url.Values{
			"page_size": {fmt.Sprintf("%d", participantPageSize)},
		}
		if nextPageToken != "" {
			params.Set("next_page_token", nextPageToken)
		}

		var out struct {
			Participants  []Participant `json:"participants"`
			NextPageToken string        `json:"next_page_token"`
		}
		if err := c.get(ctx, "/past_webinars/"+encodeWebinarID(webinarID)+"/participants", params, &out); err != nil {
			return nil, err
		}

		participants = append(participants, out.Participants...)
		nextPageToken = out.NextPageToken
		if nextPageToken == "" {
			return participants, nil
		}
	}
}

func (c *httpClient) ListAbsentees(ctx context.Context, webinarID string) ([]Registrant, error) {
	params := url.Values{
		"page_size": {fmt.Sprintf("%d", participantPageSize)},
	}
	var out struct {
		Registrants []Registrant `json:"registrants"`
	}
	if err := c.get(ctx, "/past_webinars/"+encodeWebinarID(webinarID)+"/absentees", params, &out); err != nil {
		return nil, err
	}
	return out.Registrants, nil
}

// encodeWebinarID prepares a webinar identifier for use in a URL path.
// UUID-shaped IDs containing '/', '+' or '=' must be double URL-encoded per
// the Zoom API docs; plain numeric IDs pass through untouched.
func encodeWebinarID(id string) string {
	if strings.ContainsAny(id, "/+=") {
		return url.PathEscape(url.PathEscape(id))
	}
	return id
}
