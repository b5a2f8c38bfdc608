package adapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/research/secrets"
)

const (
	grokBaseURL    = "https://api.x.ai/v1"
	grokModel      = "grok-3"
	grokTimeout    = 30 * time.Second
	grokSecretName = "XAI_API_KEY"
)

const grokSystemPrompt = `You are a financial markets social pulse analyst. ` +
	`Your role is to surface real-time narrative shifts, sentiment signals, and catalyst chatter across financial markets.

Focus on:
- What has changed in market narrative recently
- Social/sentiment-driven opportunities
- Crowding and sentiment-driven risks
- Signals outside core focus that merit attention

Respond ONLY with a valid JSON object matching the exact schema in the user message. ` +
	`No prose, no markdown fences, no commentary outside the JSON.`

// Grok covers social pulse and catalyst chatter via the XAI API.
type Grok struct {
	secrets secrets.Store
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewGrok(store secrets.Store) *Grok {
	return &Grok{
		secrets: store,
		client:  newHTTPClient(grokTimeout),
		baseURL: grokBaseURL,
		log:     slog.Default().With("adapter", "grok"),
	}
}

func (a *Grok) Name() string { return "grok" }

func (a *Grok) Run(ctx context.Context, in Input) (*domain.ModelOutput, error) {
	key, ok := a.secrets.Get(grokSecretName)
	if !ok {
		return nil, domain.NewAdapterError(domain.ErrAuthFailed, "%s not configured", grokSecretName)
	}

	body := map[string]any{
		"model":           grokModel,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []chatMessage{
			{Role: "system", Content: grokSystemPrompt},
			{Role: "user", Content: userPrompt(in, "g", false)},
		},
		"temperature": 0.3,
		"max_tokens":  2048,
	}

	start := time.Now()
	data, err := postJSON(ctx, a.client, "grok", a.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + key}, body, grokTimeout)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Choices) == 0 {
		return nil, domain.NewAdapterError(domain.ErrValidation, "grok: unexpected response envelope")
	}

	extracted, ok := ExtractJSON(resp.Choices[0].Message.Content)
	if !ok {
		return nil, domain.NewAdapterError(domain.ErrValidation, "grok: no JSON object in response")
	}

	out, err := parseOutput(extracted, "grok")
	if err != nil {
		return nil, err
	}
	out.Usage = &domain.TokenUsage{In: resp.Usage.PromptTokens, Out: resp.Usage.CompletionTokens}

	a.log.Debug("provider call ok",
		"latency", time.Since(start),
		"tokens_in", resp.Usage.PromptTokens,
		"tokens_out", resp.Usage.CompletionTokens)
	return out, nil
}
