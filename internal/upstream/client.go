// Package upstream is the HTTP client for the job-board backend that owns
// companies and jobs. This service mirrors the backend's authorization
// decisions client-side; it never overrides them, so every call here forwards
// the caller's own bearer token.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jobdeck/admin-backend/internal/config"
	"golang.org/x/time/rate"
)

// Company is an accessible-company record as the backend returns it.
type Company struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Industry string `json:"industry,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// Job is a job posting resource owned by the backend.
type Job struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	SalaryMin   int64     `json:"salary_min"`
	SalaryMax   int64     `json:"salary_max"`
	Currency    string    `json:"currency"`
	ApplyMethod string    `json:"apply_method"`
	ApplyURL    string    `json:"apply_url,omitempty"`
	ApplyEmail  string    `json:"apply_email,omitempty"`
	Deadline    time.Time `json:"deadline"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobPayload is the write shape for job create/update calls.
type JobPayload struct {
	CompanyID   string    `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	SalaryMin   int64     `json:"salary_min"`
	SalaryMax   int64     `json:"salary_max"`
	Currency    string    `json:"currency"`
	ApplyMethod string    `json:"apply_method"`
	ApplyURL    string    `json:"apply_url,omitempty"`
	ApplyEmail  string    `json:"apply_email,omitempty"`
	Deadline    time.Time `json:"deadline"`
}

// APIError is a backend rejection normalized into status, combined message and,
// for structured 400s, the intact field-level message map.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

func New(cfg config.UpstreamConfig) *Client {
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

// ListAccessibleCompanies returns the companies the caller may administer.
func (c *Client) ListAccessibleCompanies(ctx context.Context, token string) ([]Company, error) {
	var out struct {
		Data []Company `json:"data"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/api/admin/companies/accessible", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CreateJob(ctx context.Context, token string, payload JobPayload) (Job, error) {
	var out Job
	if err := c.do(ctx, token, http.MethodPost, "/api/admin/jobs", payload, &out); err != nil {
		return Job{}, err
	}
	return out, nil
}

func (c *Client) UpdateJob(ctx context.Context, token, jobID string, payload JobPayload) (Job, error) {
	var out Job
	if err := c.do(ctx, token, http.MethodPut, "/api/admin/jobs/"+url.PathEscape(jobID), payload, &out); err != nil {
		return Job{}, err
	}
	return out, nil
}

func (c *Client) DeleteJob(ctx context.Context, token, jobID string) error {
	return c.do(ctx, token, http.MethodDelete, "/api/admin/jobs/"+url.PathEscape(jobID), nil, nil)
}

func (c *Client) ListJobs(ctx context.Context, token, companyID string) ([]Job, error) {
	path := "/api/admin/jobs"
	if companyID != "" {
		q := url.Values{}
		q.Set("company_id", companyID)
		path += "?" + q.Encode()
	}
	var out struct {
		Data []Job `json:"data"`
	}
	if err := c.do(ctx, token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) SetJobActive(ctx context.Context, token, jobID string, active bool) (Job, error) {
	body := map[string]bool{"is_active": active}
	var out Job
	if err := c.do(ctx, token, http.MethodPatch, "/api/admin/jobs/"+url.PathEscape(jobID), body, &out); err != nil {
		return Job{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling upstream: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading upstream response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return normalizeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding upstream response: %w", err)
		}
	}
	return nil
}

// normalizeError maps backend error bodies into an APIError. 400 bodies are a
// field -> message(s) map (values may be a string or a list); other statuses
// carry a {"detail": "..."} envelope.
func normalizeError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}

	if detail, ok := raw["detail"]; ok {
		var msg string
		if json.Unmarshal(detail, &msg) == nil && msg != "" {
			apiErr.Message = msg
			return apiErr
		}
	}

	if status == http.StatusBadRequest {
		fields := make(map[string][]string, len(raw))
		for field, val := range fields400(raw) {
			fields[field] = val
		}
		if len(fields) > 0 {
			apiErr.Fields = fields
			apiErr.Message = combineFieldErrors(fields)
			return apiErr
		}
	}

	apiErr.Message = http.StatusText(status)
	return apiErr
}

func fields400(raw map[string]json.RawMessage) map[string][]string {
	fields := make(map[string][]string, len(raw))
	for field, val := range raw {
		var many []string
		if json.Unmarshal(val, &many) == nil && len(many) > 0 {
			fields[field] = many
			continue
		}
		var one string
		if json.Unmarshal(val, &one) == nil && one != "" {
			fields[field] = []string{one}
		}
	}
	return fields
}

func combineFieldErrors(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], "; ")))
	}
	return strings.Join(parts, ", ")
}
