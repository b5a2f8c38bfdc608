// Package portfolio supplies the portfolio context fed into every adapter
// prompt.
package portfolio

import (
	"context"
	"os"
	"strings"

	"github.com/vietddude/ara/internal/core/domain"
)

const maxHighlights = 6

// Provider returns the current portfolio context. Implementations never
// fail hard; when a source is unreadable they fall back to mock context.
type Provider interface {
	Context(ctx context.Context) domain.PortfolioContext
}

// FileProvider reads a markdown memory file and keeps its first bullet
// lines as highlights.
type FileProvider struct {
	Path string
}

func (p FileProvider) Context(_ context.Context) domain.PortfolioContext {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return Mock()
	}

	var highlights []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			highlights = append(highlights, strings.TrimSpace(strings.TrimLeft(line, "-* ")))
			if len(highlights) == maxHighlights {
				break
			}
		}
	}
	if len(highlights) == 0 {
		highlights = []string{"Portfolio file found but contained no bullet highlights."}
	}

	excerptLen := 500
	if len(raw) < excerptLen {
		excerptLen = len(raw)
	}
	return domain.PortfolioContext{
		Source:     "memory-file",
		Highlights: highlights,
		RawExcerpt: string(raw[:excerptLen]),
	}
}

// Mock is the static fallback used when no memory file is available.
func Mock() domain.PortfolioContext {
	return domain.PortfolioContext{
		Source: "mock",
		Highlights: []string{
			"~$1.95M multi-asset allocation with tech concentration",
			"Core interests include equities, metals, crypto, and macro-sensitive assets",
			"Risk discipline emphasizes asymmetric opportunities",
		},
	}
}

// MockProvider always returns the static context.
type MockProvider struct{}

func (MockProvider) Context(_ context.Context) domain.PortfolioContext { return Mock() }
