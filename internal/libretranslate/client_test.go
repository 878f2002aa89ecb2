package libretranslate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oukeidos/libretag/internal/apperrors"
)

func newTestClient(t *testing.T, url, apiKey string) *Client {
	t.Helper()
	c, err := NewClient(Options{URL: url, Timeout: time.Second, APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestClient_Translate_Success(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "libretag/") {
			t.Errorf("User-Agent = %q", ua)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"translatedText":"Hallo Welt","detectedLanguage":{"confidence":90,"language":"en"}}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/translate", "")
	text, err := c.Translate(context.Background(), Request{Text: "Hello world", Source: "en", Target: "de"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if text != "Hallo Welt" {
		t.Errorf("Translate() = %q, want %q", text, "Hallo Welt")
	}
	want := map[string]any{"q": "Hello world", "source": "en", "target": "de"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("request %s = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["api_key"]; ok {
		t.Errorf("api_key must be omitted when not configured")
	}
}

func TestClient_Translate_SendsAPIKey(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"translatedText":"ok"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, " secret-key ")
	if _, err := c.Translate(context.Background(), Request{Text: "x", Source: "auto", Target: "en"}); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got.APIKey != "secret-key" {
		t.Errorf("api_key = %q", got.APIKey)
	}
}

func TestClient_Translate_EmptyTranslationIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"translatedText":""}`)
	}))
	defer server.Close()

	text, err := newTestClient(t, server.URL, "").Translate(context.Background(), Request{Text: "x"})
	if err != nil || text != "" {
		t.Fatalf("Translate() = %q, %v; want empty success", text, err)
	}
}

func TestClient_Translate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apperrors.Kind
		wantMsg  string
	}{
		{"service unavailable", http.StatusServiceUnavailable, `{"error":"overloaded"}`, apperrors.KindServer, "ERROR: 503 Service Unavailable"},
		{"internal error", http.StatusInternalServerError, ``, apperrors.KindServer, "ERROR: 500 Internal Server Error"},
		{"bad request", http.StatusBadRequest, `{"error":"Invalid request: missing q parameter"}`, apperrors.KindBadRequest, "ERROR: 400 Bad Request (Invalid request: missing q parameter)"},
		{"forbidden", http.StatusForbidden, `{"error":"Invalid API key"}`, apperrors.KindAuth, "ERROR: 403 Forbidden (Invalid API key)"},
		{"rate limited", http.StatusTooManyRequests, `{"error":"Too many request limits violations"}`, apperrors.KindRateLimit, "ERROR: 429 Too Many Requests (Too many request limits violations)"},
		{"invalid json", http.StatusOK, `<html>proxy error</html>`, apperrors.KindParse, "ERROR: response is not valid JSON"},
		{"missing field", http.StatusOK, `{"translation":"Hallo"}`, apperrors.KindParse, "ERROR: response has no translatedText field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL, "").Translate(context.Background(), Request{Text: "Hello"})
			if !apperrors.Is(err, tt.wantKind) {
				t.Fatalf("Translate() error = %v, want kind %s", err, tt.wantKind)
			}
			if got := apperrors.PublicMessage(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestClient_Translate_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url, "").Translate(context.Background(), Request{Text: "Hello"})
	if !apperrors.Is(err, apperrors.KindNetwork) {
		t.Fatalf("Translate() error = %v, want network", err)
	}
	if !strings.HasPrefix(apperrors.PublicMessage(err), "ERROR: ") {
		t.Errorf("message = %q", apperrors.PublicMessage(err))
	}
	if strings.Contains(apperrors.PublicMessage(err), url) {
		t.Errorf("message should not repeat the URL: %q", apperrors.PublicMessage(err))
	}
}

func TestClient_Translate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		io.WriteString(w, `{"translatedText":"late"}`)
	}))
	defer server.Close()

	c, err := NewClient(Options{URL: server.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	_, err = c.Translate(context.Background(), Request{Text: "Hello"})
	if !apperrors.Is(err, apperrors.KindNetwork) {
		t.Fatalf("Translate() error = %v, want network", err)
	}
}

func TestClient_Translate_SingleRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	newTestClient(t, server.URL, "").Translate(context.Background(), Request{Text: "Hello"})
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("server received %d requests, want exactly 1", n)
	}
}

func TestNewClient_Validation(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://example.com/translate", "localhost:5000", "http://"} {
		if _, err := NewClient(Options{URL: raw}); !apperrors.Is(err, apperrors.KindValidation) {
			t.Errorf("NewClient(%q) error = %v, want validation", raw, err)
		}
	}
}
