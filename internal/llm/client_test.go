package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type completionChoice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

func completionWith(content string) completionResponse {
	var resp completionResponse
	var c completionChoice
	c.Message.Role = "assistant"
	c.Message.Content = content
	resp.Choices = append(resp.Choices, c)
	return resp
}

func newStubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_ReturnsTrimmedReply(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionWith("  Grand Street is lively.  "))
	})

	c := New("test-key", WithBaseURL(srv.URL+"/v1"), WithMaxRetries(0))
	out, err := c.Generate(context.Background(), "what is grand street like")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "Grand Street is lively." {
		t.Fatalf("reply should be trimmed, got %q", out)
	}
}

func TestGenerate_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream busy", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionWith("second try"))
	})

	c := New("test-key", WithBaseURL(srv.URL+"/v1"), WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	out, err := c.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "second try" || calls.Load() != 2 {
		t.Fatalf("expected one retry, got %q after %d calls", out, calls.Load())
	}
}

func TestGenerate_EmptyChoicesIsError(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse{})
	})

	c := New("test-key", WithBaseURL(srv.URL+"/v1"), WithMaxRetries(0))
	if _, err := c.Generate(context.Background(), "hello"); !errors.Is(err, ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}

func TestGenerate_ExhaustedRetriesReturnLastError(t *testing.T) {
	var calls atomic.Int32
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	c := New("test-key", WithBaseURL(srv.URL+"/v1"), WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	if _, err := c.Generate(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected initial call plus one retry, got %d", calls.Load())
	}
}

func TestOptions_GuardInvalidValues(t *testing.T) {
	c := New("test-key", WithModel("  "), WithMaxRetries(-1), WithRetryDelay(0), WithBaseURL(""))
	if c.model != DefaultModel {
		t.Fatalf("blank model must keep the default, got %q", c.model)
	}
	if c.maxRetries != 2 || c.retryDelay != time.Second {
		t.Fatalf("invalid retry settings must keep defaults: %d %v", c.maxRetries, c.retryDelay)
	}
}
