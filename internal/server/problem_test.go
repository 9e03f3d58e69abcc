package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) Problem {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w *httptest.ResponseRecorder)
		wantStatus int
		wantType   string
	}{
		{
			name:       "not found",
			write:      func(w *httptest.ResponseRecorder) { NotFound(w, "missing", "/x") },
			wantStatus: 404,
			wantType:   ProblemTypeNotFound,
		},
		{
			name:       "bad request",
			write:      func(w *httptest.ResponseRecorder) { BadRequest(w, "bad", "/x") },
			wantStatus: 400,
			wantType:   ProblemTypeBadRequest,
		},
		{
			name:       "internal",
			write:      func(w *httptest.ResponseRecorder) { InternalError(w, "boom", "/x") },
			wantStatus: 500,
			wantType:   ProblemTypeInternal,
		},
		{
			name:       "rate limited",
			write:      func(w *httptest.ResponseRecorder) { RateLimited(w, "slow down", "/x") },
			wantStatus: 429,
			wantType:   ProblemTypeRateLimited,
		},
		{
			name:       "device unreachable",
			write:      func(w *httptest.ResponseRecorder) { DeviceUnreachable(w, "no answer", "/x") },
			wantStatus: 502,
			wantType:   ProblemTypeBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			p := decodeProblem(t, w)
			if p.Type != tt.wantType {
				t.Errorf("type = %q, want %q", p.Type, tt.wantType)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("body status = %d, want %d", p.Status, tt.wantStatus)
			}
			if p.Instance != "/x" {
				t.Errorf("instance = %q, want /x", p.Instance)
			}
		})
	}
}
