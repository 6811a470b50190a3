package testapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTestSendsPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tests/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("Test created successfully"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/api/"})
	resp, err := c.CreateTest(context.Background(), CreateTestRequest{
		TestName:      "Weekly quiz",
		CategoryName:  "Math",
		QuestionsText: "What is 2+2?(2,3,4,5)[4]",
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Test created successfully", resp.Body)
	assert.Equal(t, map[string]string{
		"testName":      "Weekly quiz",
		"categoryName":  "Math",
		"questionsText": "What is 2+2?(2,3,4,5)[4]",
	}, got)
}

func TestCreateTestUpstreamStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "duplicate test name", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.CreateTest(context.Background(), CreateTestRequest{TestName: "x"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Contains(t, se.Error(), "duplicate test name")
	assert.Equal(t, 1, calls, "failed submissions are not retried")
}

func TestCreateTestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, Timeout: time.Second})
	_, err := c.CreateTest(context.Background(), CreateTestRequest{})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCreateTestRespectsCanceledContext(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", RatePerSecond: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreateTest(ctx, CreateTestRequest{})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Nil(t, c.limiter)

	c = NewClient(Config{BaseURL: " http://api.local/api/ ", RatePerSecond: 2})
	assert.Equal(t, "http://api.local/api", c.BaseURL())
	assert.NotNil(t, c.limiter)
}
