package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fakeCompletion(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["model"] != DefaultModel {
			t.Errorf("unexpected model %v", payload["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "boom"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{APIKey: "test-key", BaseURL: baseURL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client reported enabled")
	}
	if _, err := nilClient.Analyze(context.Background(), "x"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestClientAnalyze(t *testing.T) {
	srv := fakeCompletion(t, http.StatusOK, "```json\n{\"thesis_strength\": 75, \"antithesis_risk\": 25, \"integrity_score\": 70, \"synthesis\": \"Commit with a staged budget.\"}\n```")
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Analyze(context.Background(), "Should I invest $50k in a hardware startup?")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.ThesisStrength != 75 || got.AntithesisRisk != 25 || got.IntegrityScore != 70 {
		t.Fatalf("unexpected assessment %+v", got)
	}
}

func TestClientAnalyzeMalformed(t *testing.T) {
	srv := fakeCompletion(t, http.StatusOK, `{"thesis_strength": 75}`)
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Analyze(context.Background(), "dilemma")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := fakeCompletion(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Analyze(context.Background(), "dilemma")
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if !Retryable(err) {
		t.Fatal("429 should be retryable")
	}
	if Retryable(&MalformedResponseError{Reason: "x"}) {
		t.Fatal("malformed replies should not be retryable")
	}
}

func TestClientExtract(t *testing.T) {
	srv := fakeCompletion(t, http.StatusOK, `{"urgency":0.2,"strategy":0.9,"risk":0.1,"support":0.8,"stability":0.9,"irreversibility":0.1,"stakes":0.3,"time_pressure":0.2,"reasoning":"Calm."}`)
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Extract(context.Background(), "Routine maintenance window next month.")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Strategy != 0.9 || got.Reasoning != "Calm." {
		t.Fatalf("unexpected signals %+v", got)
	}
}
