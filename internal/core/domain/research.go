package domain

import "time"

// Domain is a research coverage area. The set is closed; DomainOutsideCore
// is a sentinel for findings that fall outside every requested domain.
type Domain string

const (
	DomainEquities    Domain = "equities"
	DomainMetals      Domain = "metals"
	DomainCrypto      Domain = "crypto"
	DomainRealEstate  Domain = "real-estate"
	DomainOutsideCore Domain = "outside-core"
)

// AllDomains returns the core coverage set, excluding the outside-core
// sentinel, in canonical order.
func AllDomains() []Domain {
	return []Domain{DomainEquities, DomainMetals, DomainCrypto, DomainRealEstate}
}

// ValidDomain reports whether d names a core coverage area.
func ValidDomain(d Domain) bool {
	for _, v := range AllDomains() {
		if v == d {
			return true
		}
	}
	return false
}

// Finding is a single research observation emitted by one provider.
type Finding struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Detail      string   `json:"detail"`
	Domain      Domain   `json:"domain"`
	Confidence  float64  `json:"confidence"`
	SourceModel string   `json:"sourceModel"`
	Citations   []string `json:"citations,omitempty"`
}

// SentimentLabel buckets a sentiment score.
type SentimentLabel string

const (
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
	SentimentBullish SentimentLabel = "bullish"
)

// LabelForScore maps an averaged sentiment score to its label. Thresholds
// are +/-0.15.
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score > 0.15:
		return SentimentBullish
	case score < -0.15:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// SentimentRow is one provider's (or the merged) stance on one domain.
type SentimentRow struct {
	Domain    Domain         `json:"domain"`
	Score     float64        `json:"score"`
	Label     SentimentLabel `json:"label"`
	Rationale string         `json:"rationale"`
}

// Source is a reference cited by a provider.
type Source struct {
	Label      string  `json:"label"`
	URL        string  `json:"url,omitempty"`
	Confidence float64 `json:"confidence"`
}

// TokenUsage is provider-reported token accounting for one call.
type TokenUsage struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// ModelOutput is the common schema every adapter must normalize into:
// four finding lists, one sentiment row per requested domain, a checklist
// and sources.
type ModelOutput struct {
	Model            string         `json:"model"`
	WhatChanged      []Finding      `json:"whatChanged"`
	Opportunities    []Finding      `json:"opportunities"`
	Risks            []Finding      `json:"risks"`
	OutsideCoreFocus []Finding      `json:"outsideCoreFocus"`
	Sentiment        []SentimentRow `json:"sentiment"`
	Checklist        []string       `json:"checklist"`
	Sources          []Source       `json:"sources"`
	Usage            *TokenUsage    `json:"usage,omitempty"`
}

// Brief is the synthesized, ranked cross-provider research summary.
type Brief struct {
	GeneratedAt         time.Time         `json:"generatedAt"`
	Domains             []Domain          `json:"domains"`
	WhatChanged         []Finding         `json:"whatChanged"`
	TopOpportunities    []Finding         `json:"topOpportunities"`
	TopRisks            []Finding         `json:"topRisks"`
	OutsideCoreFocus    []Finding         `json:"outsideCoreFocus"`
	SectorSentiment     []SentimentRow    `json:"sectorSentiment"`
	ActionChecklist     []string          `json:"actionChecklist"`
	Sources             []Source          `json:"sources"`
	ConfidenceAggregate float64           `json:"confidenceAggregate"`
	PortfolioContext    *PortfolioContext `json:"portfolioContext,omitempty"`
}

// PortfolioContext is the caller's portfolio summary fed into every adapter
// prompt. RawExcerpt stays local and is stripped before persistence.
type PortfolioContext struct {
	Source     string   `json:"source"`
	Highlights []string `json:"highlights"`
	RawExcerpt string   `json:"-"`
}

// RunHistoryEntry summarizes one completed research run.
type RunHistoryEntry struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	Domains             []Domain  `json:"domains"`
	KeyFindingsCount    int       `json:"keyFindingsCount"`
	ConfidenceAggregate float64   `json:"confidenceAggregate"`
}
