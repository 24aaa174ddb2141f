// Package testutil holds HTTP and data helpers shared by handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func NewTestRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewTestRequestWithJSON encodes body as the request's JSON payload.
func NewTestRequestWithJSON(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func ParseJSONResponse(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode response %q: %v", body, err)
	}
	return out
}

func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d (body %q)", want, rr.Code, rr.Body.String())
	}
}

// AssertJSONContains checks a top-level field of a JSON object.
func AssertJSONContains(t *testing.T, body []byte, key string, want any) {
	t.Helper()
	got := ParseJSONResponse(t, body)
	if got[key] != want {
		t.Fatalf("expected %s=%v, got %v", key, want, got[key])
	}
}

func RandomUUID() uuid.UUID {
	return uuid.New()
}

func RandomEmail() string {
	return fmt.Sprintf("friend-%s@example.com", uuid.NewString()[:8])
}

// RandomVisitorID returns an id accepted by the visitor routes.
func RandomVisitorID() string {
	return uuid.NewString()
}
