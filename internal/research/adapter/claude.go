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
	claudeBaseURL    = "https://api.anthropic.com/v1"
	claudeModel      = "claude-sonnet-4-6"
	claudeTimeout    = 60 * time.Second
	claudeAPIVersion = "2023-06-01"
	claudeSecretName = "ANTHROPIC_API_KEY"
)

const claudeSystemPrompt = `You are a cross-domain financial research analyst. ` +
	`Weigh evidence carefully, flag uncertainty explicitly, and keep confidence values honest.

Respond ONLY with a valid JSON object matching the exact schema in the user message. ` +
	`No prose, no markdown fences, no commentary outside the JSON.`

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Claude is run as a shadow provider while under evaluation.
type Claude struct {
	secrets secrets.Store
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewClaude(store secrets.Store) *Claude {
	return &Claude{
		secrets: store,
		client:  newHTTPClient(claudeTimeout),
		baseURL: claudeBaseURL,
		log:     slog.Default().With("adapter", "claude"),
	}
}

func (a *Claude) Name() string { return "claude" }

func (a *Claude) Run(ctx context.Context, in Input) (*domain.ModelOutput, error) {
	key, ok := a.secrets.Get(claudeSecretName)
	if !ok {
		return nil, domain.NewAdapterError(domain.ErrAuthFailed, "%s not configured", claudeSecretName)
	}

	body := map[string]any{
		"model":      claudeModel,
		"max_tokens": 2048,
		"system":     claudeSystemPrompt,
		"messages": []chatMessage{
			{Role: "user", Content: userPrompt(in, "c", false)},
		},
		"temperature": 0.3,
	}

	headers := map[string]string{
		"x-api-key":         key,
		"anthropic-version": claudeAPIVersion,
	}

	start := time.Now()
	data, err := postJSON(ctx, a.client, "claude", a.baseURL+"/messages", headers, body, claudeTimeout)
	if err != nil {
		return nil, err
	}

	var resp claudeResponse
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Content) == 0 {
		return nil, domain.NewAdapterError(domain.ErrValidation, "claude: unexpected response envelope")
	}

	raw := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			raw = block.Text
			break
		}
	}
	extracted, ok := ExtractJSON(raw)
	if !ok {
		a.log.Error("JSON extraction failed", "excerpt", excerpt(raw, 600))
		return nil, domain.NewAdapterError(domain.ErrValidation, "claude: no JSON object in response")
	}

	out, err := parseOutput(extracted, "claude")
	if err != nil {
		return nil, err
	}
	out.Usage = &domain.TokenUsage{In: resp.Usage.InputTokens, Out: resp.Usage.OutputTokens}

	a.log.Debug("provider call ok", "latency", time.Since(start))
	return out, nil
}
