package plugin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fastRetries shrinks the retry schedule for the duration of a test.
func fastRetries(t *testing.T, attempts int) {
	t.Helper()
	oldAttempts, oldDelay := sendAttempts, sendDelay
	sendAttempts, sendDelay = attempts, time.Millisecond
	t.Cleanup(func() {
		sendAttempts, sendDelay = oldAttempts, oldDelay
	})
}

type capturedRequest struct {
	contentType string
	body        []byte
}

// captureServer answers every request with the next status from statuses,
// repeating the last one, and records what it received.
type captureServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []capturedRequest
}

func newCaptureServer(t *testing.T, body string, statuses ...int) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		cs.mu.Lock()
		cs.requests = append(cs.requests, capturedRequest{contentType: r.Header.Get("Content-Type"), body: b})
		n := len(cs.requests)
		cs.mu.Unlock()

		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *captureServer) count() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.requests)
}

func (cs *captureServer) decode(t *testing.T, i int, v interface{}) {
	t.Helper()
	cs.mu.Lock()
	defer cs.mu.Unlock()
	require.Greater(t, len(cs.requests), i)
	require.Equal(t, "application/json", cs.requests[i].contentType)
	require.NoError(t, json.Unmarshal(cs.requests[i].body, v))
}

func testPayload() *AlertPayload {
	return &AlertPayload{
		Summary:  "WindowPost failed",
		Severity: "critical",
		Source:   "scheduler-1",
		Details: map[string]interface{}{
			"task":  "wdpost",
			"error": "no sectors",
		},
		Time: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
