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
	deepseekBaseURL    = "https://api.deepseek.com"
	deepseekModel      = "deepseek-chat"
	deepseekTimeout    = 60 * time.Second
	deepseekSecretName = "DEEPSEEK_API_KEY"
)

const deepseekSystemPrompt = `You are a quantitative financial analyst specializing in scenario framing, ` +
	`cross-asset correlation analysis, and risk/opportunity modeling. Your role is to provide deep structural ` +
	`analysis and probabilistic scenario framing across financial markets.

Focus on:
- Cross-asset regime shifts and correlation changes
- Scenario trees with probabilistic framing (bull/base/bear)
- Structural risks and asymmetric opportunities
- Tail risks that sentiment-focused models may miss

Respond ONLY with a valid JSON object matching the exact schema in the user message. ` +
	`No prose, no markdown fences, no commentary outside the JSON.`

// DeepSeek provides deep structural analysis and scenario framing.
type DeepSeek struct {
	secrets secrets.Store
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewDeepSeek(store secrets.Store) *DeepSeek {
	return &DeepSeek{
		secrets: store,
		client:  newHTTPClient(deepseekTimeout),
		baseURL: deepseekBaseURL,
		log:     slog.Default().With("adapter", "deepseek"),
	}
}

func (a *DeepSeek) Name() string { return "deepseek" }

func (a *DeepSeek) Run(ctx context.Context, in Input) (*domain.ModelOutput, error) {
	key, ok := a.secrets.Get(deepseekSecretName)
	if !ok {
		return nil, domain.NewAdapterError(domain.ErrAuthFailed, "%s not configured", deepseekSecretName)
	}

	body := map[string]any{
		"model":           deepseekModel,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []chatMessage{
			{Role: "system", Content: deepseekSystemPrompt},
			{Role: "user", Content: userPrompt(in, "d", false)},
		},
		"temperature": 0.3,
		"max_tokens":  2048,
	}

	start := time.Now()
	data, err := postJSON(ctx, a.client, "deepseek", a.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + key}, body, deepseekTimeout)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Choices) == 0 {
		return nil, domain.NewAdapterError(domain.ErrValidation, "deepseek: unexpected response envelope")
	}

	extracted, ok := ExtractJSON(resp.Choices[0].Message.Content)
	if !ok {
		return nil, domain.NewAdapterError(domain.ErrValidation, "deepseek: no JSON object in response")
	}

	out, err := parseOutput(extracted, "deepseek")
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
