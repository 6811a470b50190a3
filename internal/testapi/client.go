// Package testapi is the client for the remote test API that stores tests
// and their questions.
package testapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "http://localhost:4000/api"
	createTestPath   = "/tests/create"
	maxResponseBytes = 1 << 20
)

var ErrUpstream = errors.New("test api request failed")

// StatusError is returned when the test API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("test api status %d", e.StatusCode)
	}
	return fmt.Sprintf("test api status %d: %s", e.StatusCode, body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSecond throttles outbound calls; zero or less disables it.
	RatePerSecond float64
	HTTPClient    *http.Client
}

type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type CreateTestRequest struct {
	TestName      string `json:"testName"`
	CategoryName  string `json:"categoryName"`
	QuestionsText string `json:"questionsText"`
}

type CreateTestResponse struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &Client{baseURL: base, client: client, limiter: limiter}
}

func (c *Client) BaseURL() string { return c.baseURL }

// CreateTest posts a test with its normalized questions text. It is not
// retried on failure.
func (c *Client) CreateTest(ctx context.Context, in CreateTestRequest) (*CreateTestResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createTestPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return &CreateTestResponse{StatusCode: resp.StatusCode, Body: string(raw)}, nil
}
