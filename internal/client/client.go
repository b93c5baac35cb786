// Package client provides an HTTP client for the MathFish annotation
// API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is an HTTP client for the annotation API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config configures the client.
type Config struct {
	// BaseURL is the base URL of the annotation server.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MaxIdleConns controls the maximum number of idle (keep-alive) connections
	// across all hosts. Zero means no limit.
	MaxIdleConns int

	// MaxConnsPerHost limits the total number of connections per host.
	// Zero means no limit.
	MaxConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle (keep-alive)
	// connection will remain idle before closing itself.
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8000",
		Timeout:         30 * time.Second,
		MaxIdleConns:    100,
		MaxConnsPerHost: 100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 100
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost / 5, // 20% per host
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// BaseURL returns the server base URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionConfig describes the annotation session.
type SessionConfig struct {
	Annotator     string `json:"annotator"`
	TotalProblems int    `json:"total_problems"`
	SharedCount   int    `json:"shared_count"`
}

// Problem is one assigned problem as served to the annotation page.
type Problem struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	Source      string            `json:"source"`
	Metadata    map[string]any    `json:"metadata"`
	Elements    map[string]string `json:"elements"`
	NumProblems int               `json:"num_problems"`
	IsShared    bool              `json:"is_shared"`
}

// Annotation is one saved annotation record.
type Annotation struct {
	ProblemID string   `json:"problem_id"`
	Annotator string   `json:"annotator"`
	Standards []string `json:"standards"`
	Notes     string   `json:"notes"`
	Skipped   bool     `json:"skipped"`
}

// AnnotateRequest is the body for saving an annotation.
type AnnotateRequest struct {
	ProblemID string   `json:"problem_id"`
	Standards []string `json:"standards"`
	Notes     string   `json:"notes"`
	Skipped   bool     `json:"skipped"`
}

// SaveResult is the server's reply to a save: Saved is the annotator's
// total after this save.
type SaveResult struct {
	OK    bool `json:"ok"`
	Saved int  `json:"saved"`
}

// Grade is one grade level of the standards hierarchy.
type Grade struct {
	Name    string             `json:"name"`
	SortKey int                `json:"sort_key"`
	Domains map[string]*Domain `json:"domains"`
}

// Domain is one domain within a grade.
type Domain struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Clusters    map[string]*Cluster `json:"clusters"`
}

// Cluster groups related standards.
type Cluster struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	ClusterType string               `json:"cluster_type"`
	Standards   map[string]*Standard `json:"standards"`
}

// Standard is a standard or sub-standard node.
type Standard struct {
	ID           string               `json:"id"`
	Description  string               `json:"description"`
	SubStandards map[string]*Standard `json:"sub_standards,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// APIError represents an API error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Health checks if the server is healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetConfig returns the annotation session configuration.
func (c *Client) GetConfig(ctx context.Context) (*SessionConfig, error) {
	var resp SessionConfig
	if err := c.get(ctx, "/api/config", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProblems returns the annotator's problems in assignment order.
func (c *Client) ListProblems(ctx context.Context) ([]Problem, error) {
	var problems []Problem
	if err := c.get(ctx, "/api/problems", &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

// GetStandards returns the standards hierarchy keyed by grade.
func (c *Client) GetStandards(ctx context.Context) (map[string]*Grade, error) {
	var hierarchy map[string]*Grade
	if err := c.get(ctx, "/api/standards", &hierarchy); err != nil {
		return nil, err
	}
	return hierarchy, nil
}

// GetAnnotations returns the session annotator's saved annotations
// keyed by problem id.
func (c *Client) GetAnnotations(ctx context.Context) (map[string]Annotation, error) {
	var annotations map[string]Annotation
	if err := c.get(ctx, "/api/annotations", &annotations); err != nil {
		return nil, err
	}
	return annotations, nil
}

// GetAnnotatorLog returns a named annotator's saved annotations.
func (c *Client) GetAnnotatorLog(ctx context.Context, annotator string) (map[string]Annotation, error) {
	var annotations map[string]Annotation
	if err := c.get(ctx, fmt.Sprintf("/api/annotations/%s", annotator), &annotations); err != nil {
		return nil, err
	}
	return annotations, nil
}

// Annotate saves one annotation.
func (c *Client) Annotate(ctx context.Context, req AnnotateRequest) (*SaveResult, error) {
	var result SaveResult
	if err := c.post(ctx, "/api/annotate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMetricsSnapshot returns the JSON metrics snapshot.
func (c *Client) GetMetricsSnapshot(ctx context.Context) (map[string]any, error) {
	var snapshot map[string]any
	if err := c.get(ctx, "/api/metrics", &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// do executes a request.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
		return &apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
