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
	perplexityBaseURL    = "https://api.perplexity.ai"
	perplexityModel      = "sonar-pro"
	perplexityTimeout    = 45 * time.Second
	perplexitySecretName = "PERPLEXITY_API_KEY"
)

const perplexitySystemPrompt = "You are a JSON API endpoint for financial research. " +
	"Your output is consumed directly by a machine parser. " +
	"You MUST return ONLY a raw JSON object - no prose, no markdown, no code fences, no commentary. " +
	"Your entire response must start with { and end with }. Any other format will cause a hard failure."

// Perplexity does sourced web research; its findings carry citation URLs
// from live search results.
type Perplexity struct {
	secrets secrets.Store
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewPerplexity(store secrets.Store) *Perplexity {
	return &Perplexity{
		secrets: store,
		client:  newHTTPClient(perplexityTimeout),
		baseURL: perplexityBaseURL,
		log:     slog.Default().With("adapter", "perplexity"),
	}
}

func (a *Perplexity) Name() string { return "perplexity" }

func (a *Perplexity) Run(ctx context.Context, in Input) (*domain.ModelOutput, error) {
	key, ok := a.secrets.Get(perplexitySecretName)
	if !ok {
		return nil, domain.NewAdapterError(domain.ErrAuthFailed, "%s not configured", perplexitySecretName)
	}

	prompt := "IMPORTANT: Output raw JSON only. Start with { - no text before or after, no markdown fences.\n\n" +
		"Research these financial domains using current web sources: " + domainList(in.Domains) + ".\n" +
		portfolioHints(in.Portfolio) + "\n\n" +
		schemaBlock(in, "p", true) + "\n\nBEGIN JSON OUTPUT:"

	body := map[string]any{
		"model": perplexityModel,
		"messages": []chatMessage{
			{Role: "system", Content: perplexitySystemPrompt},
			{Role: "user", Content: prompt},
		},
		"temperature":      0.2,
		"max_tokens":       4096,
		"return_citations": true,
	}

	start := time.Now()
	data, err := postJSON(ctx, a.client, "perplexity", a.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + key}, body, perplexityTimeout)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Choices) == 0 {
		return nil, domain.NewAdapterError(domain.ErrValidation, "perplexity: unexpected response envelope")
	}

	raw := resp.Choices[0].Message.Content
	extracted, ok := ExtractJSON(raw)
	if !ok {
		a.log.Error("JSON extraction failed", "excerpt", excerpt(raw, 600))
		return nil, domain.NewAdapterError(domain.ErrValidation, "perplexity: no JSON object in response")
	}

	out, err := parseOutput(extracted, "perplexity")
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

func excerpt(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
