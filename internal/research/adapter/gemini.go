package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/research/secrets"
)

const (
	geminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiModel      = "gemini-3-flash-preview"
	geminiTimeout    = 60 * time.Second
	geminiSecretName = "GEMINI_API_KEY"
)

const geminiSystemPrompt = `You are a broad-coverage financial research analyst. ` +
	`Surface narrative shifts, opportunities and risks across the requested markets.

Respond ONLY with a valid JSON object matching the exact schema in the user message. ` +
	`No prose, no markdown fences, no commentary outside the JSON.`

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Gemini is run as a shadow provider while under evaluation.
type Gemini struct {
	secrets secrets.Store
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewGemini(store secrets.Store) *Gemini {
	return &Gemini{
		secrets: store,
		client:  newHTTPClient(geminiTimeout),
		baseURL: geminiBaseURL,
		log:     slog.Default().With("adapter", "gemini"),
	}
}

func (a *Gemini) Name() string { return "gemini" }

func (a *Gemini) Run(ctx context.Context, in Input) (*domain.ModelOutput, error) {
	key, ok := a.secrets.Get(geminiSecretName)
	if !ok {
		return nil, domain.NewAdapterError(domain.ErrAuthFailed, "%s not configured", geminiSecretName)
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{
				{"text": geminiSystemPrompt + "\n\n" + userPrompt(in, "gm", false)},
			}},
		},
		"generationConfig": map[string]any{
			"temperature":      0.3,
			"maxOutputTokens":  2048,
			"responseMimeType": "application/json",
		},
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", a.baseURL, geminiModel, key)

	start := time.Now()
	data, err := postJSON(ctx, a.client, "gemini", url, nil, body, geminiTimeout)
	if err != nil {
		return nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(data, &resp); err != nil ||
		len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, domain.NewAdapterError(domain.ErrValidation, "gemini: unexpected response envelope")
	}

	raw := resp.Candidates[0].Content.Parts[0].Text
	extracted, ok := ExtractJSON(raw)
	if !ok {
		a.log.Error("JSON extraction failed", "excerpt", excerpt(raw, 600))
		return nil, domain.NewAdapterError(domain.ErrValidation, "gemini: no JSON object in response")
	}

	out, err := parseOutput(extracted, "gemini")
	if err != nil {
		return nil, err
	}
	out.Usage = &domain.TokenUsage{
		In:  resp.UsageMetadata.PromptTokenCount,
		Out: resp.UsageMetadata.CandidatesTokenCount,
	}

	a.log.Debug("provider call ok", "latency", time.Since(start))
	return out, nil
}
