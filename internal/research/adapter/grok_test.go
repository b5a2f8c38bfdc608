package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/research/secrets"
)

func chatReply(t *testing.T, content string) []byte {
	t.Helper()
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 340},
	}
	data, err := json.Marshal(reply)
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return data
}

func testInput() Input {
	return Input{
		Domains: []domain.Domain{domain.DomainMetals, domain.DomainCrypto},
		Portfolio: domain.PortfolioContext{
			Source:     "mock",
			Highlights: []string{"tech concentration", "asymmetric bets"},
		},
	}
}

func TestGrokRunSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		payload := `{
			"whatChanged": [{"id": "g-wc-1", "title": "t", "detail": "d", "domain": "metals", "confidence": 0.8}],
			"opportunities": [], "risks": [], "outsideCoreFocus": [],
			"sentiment": [{"domain": "metals", "score": 0.2, "label": "bullish", "rationale": "r"}],
			"checklist": [], "sources": []
		}`
		_, _ = w.Write(chatReply(t, payload))
	}))
	defer srv.Close()

	a := NewGrok(secrets.StaticStore{grokSecretName: "test-key"})
	a.baseURL = srv.URL

	out, err := a.Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Model != "grok" || len(out.WhatChanged) != 1 {
		t.Errorf("unexpected output: %+v", out)
	}
	if out.WhatChanged[0].SourceModel != "grok" {
		t.Errorf("finding not tagged with adapter identity")
	}
	if out.Usage == nil || out.Usage.In != 120 || out.Usage.Out != 340 {
		t.Errorf("usage = %+v, want 120/340", out.Usage)
	}
}

func TestGrokRunMissingCredential(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	a := NewGrok(secrets.StaticStore{})
	a.baseURL = srv.URL

	_, err := a.Run(context.Background(), testInput())
	var ae *domain.AdapterError
	if !errors.As(err, &ae) || ae.Kind != domain.ErrAuthFailed {
		t.Fatalf("error = %v, want AUTH_FAILED", err)
	}
	if calls.Load() != 0 {
		t.Errorf("adapter hit the network despite a missing credential")
	}
}

func TestGrokRunHTTPStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		expect domain.ErrorKind
	}{
		{429, domain.ErrRateLimited},
		{401, domain.ErrAuthFailed},
		{504, domain.ErrTimeout},
		{503, domain.ErrBackendUnavailable},
		{418, domain.ErrValidation},
		{500, domain.ErrProvider},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		a := NewGrok(secrets.StaticStore{grokSecretName: "test-key"})
		a.baseURL = srv.URL

		_, err := a.Run(context.Background(), testInput())
		var ae *domain.AdapterError
		if !errors.As(err, &ae) {
			t.Fatalf("status %d: error = %v, want *AdapterError", tt.status, err)
		}
		if ae.Kind != tt.expect || ae.HTTPStatus != tt.status {
			t.Errorf("status %d: kind = %s (http %d), want %s", tt.status, ae.Kind, ae.HTTPStatus, tt.expect)
		}
		srv.Close()
	}
}

func TestGrokRunMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatReply(t, "sorry, I can't produce JSON today"))
	}))
	defer srv.Close()

	a := NewGrok(secrets.StaticStore{grokSecretName: "test-key"})
	a.baseURL = srv.URL

	_, err := a.Run(context.Background(), testInput())
	var ae *domain.AdapterError
	if !errors.As(err, &ae) || ae.Kind != domain.ErrValidation {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestPerplexityRunExtractsFencedJSON(t *testing.T) {
	payload := "Here is the research:\n```json\n" + `{
		"whatChanged": [], "opportunities": [], "risks": [], "outsideCoreFocus": [],
		"sentiment": [{"domain": "metals", "score": -0.3, "label": "bearish", "rationale": "r"}],
		"checklist": ["a"], "sources": [{"label": "s", "url": "https://example.com", "confidence": 0.7}]
	}` + "\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatReply(t, payload))
	}))
	defer srv.Close()

	a := NewPerplexity(secrets.StaticStore{perplexitySecretName: "test-key"})
	a.baseURL = srv.URL

	out, err := a.Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Model != "perplexity" || len(out.Sentiment) != 1 {
		t.Errorf("unexpected output: %+v", out)
	}
}
