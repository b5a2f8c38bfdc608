package adapter

import (
	"fmt"
	"math"
	"strings"

	"github.com/vietddude/ara/internal/core/domain"
)

// domainList renders the requested domains as "equities, metals, ...".
func domainList(domains []domain.Domain) string {
	parts := make([]string, len(domains))
	for i, d := range domains {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

// domainUnion renders the quoted union used inside the schema block.
func domainUnion(domains []domain.Domain) string {
	parts := make([]string, len(domains))
	for i, d := range domains {
		parts[i] = fmt.Sprintf("%q", string(d))
	}
	return strings.Join(parts, " | ")
}

func portfolioHints(p domain.PortfolioContext) string {
	if len(p.Highlights) == 0 {
		return "No specific portfolio context provided."
	}
	return "Portfolio context: " + strings.Join(p.Highlights, "; ")
}

func priorRunNote(prior *domain.RunHistoryEntry) string {
	if prior == nil {
		return "No prior run data."
	}
	return fmt.Sprintf("Prior run: confidence %d%% on %s",
		int(math.Round(prior.ConfidenceAggregate*100)),
		prior.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
}

// schemaBlock is the JSON response contract shared by every provider
// prompt. idPrefix namespaces finding ids per provider; withCitations adds
// the citations field for providers that do live web research.
func schemaBlock(in Input, idPrefix string, withCitations bool) string {
	union := domainUnion(in.Domains)
	list := domainList(in.Domains)

	citations := ""
	if withCitations {
		citations = `, "citations": string[]`
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Return a JSON object with this exact structure:
{
  "whatChanged": [{ "id": string, "title": string, "detail": string, "domain": %s | "outside-core", "confidence": number%s }],
  "opportunities": [same shape],
  "risks": [same shape],
  "outsideCoreFocus": [same shape, domain must be "outside-core"],
  "sentiment": [{ "domain": %s, "score": number, "label": "bearish"|"neutral"|"bullish", "rationale": string }],
  "checklist": [string],
  "sources": [{ "label": string, "url"?: string, "confidence": number }]
}

Rules:
- 2-4 items per array (whatChanged, opportunities, risks, outsideCoreFocus)
- sentiment must have exactly one entry per domain: %s
- confidence and score values are floats: confidence 0.0-1.0, sentiment score -1.0-1.0
- id prefixes: "%s-wc-" | "%s-op-" | "%s-r-" | "%s-oc-" followed by a number`,
		union, citations, union, list, idPrefix, idPrefix, idPrefix, idPrefix)

	if withCitations {
		b.WriteString("\n- citations must be real URLs from your search results")
	}
	return b.String()
}

// userPrompt assembles the common user-message scaffold.
func userPrompt(in Input, idPrefix string, withCitations bool) string {
	return fmt.Sprintf("Domains to analyze: %s\n%s\n%s\n\n%s",
		domainList(in.Domains),
		portfolioHints(in.Portfolio),
		priorRunNote(in.PriorRun),
		schemaBlock(in, idPrefix, withCitations))
}
