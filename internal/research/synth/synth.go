// Package synth merges normalized provider outputs into one ranked brief.
// Pure and deterministic: same inputs in the same order yield the same
// brief (modulo the generation timestamp).
package synth

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vietddude/ara/internal/core/domain"
)

// Top-K per category.
const (
	topWhatChanged   = 4
	topOpportunities = 5
	topRisks         = 5
	topOutsideCore   = 4
)

// Synthesize merges the successful primary outputs into a single brief.
// Shadow outputs must never be passed in here.
func Synthesize(outputs []domain.ModelOutput, domains []domain.Domain) domain.Brief {
	brief := domain.Brief{
		GeneratedAt:      time.Now().UTC(),
		Domains:          domains,
		WhatChanged:      topByConfidence(collect(outputs, whatChanged), topWhatChanged),
		TopOpportunities: topByConfidence(collect(outputs, opportunities), topOpportunities),
		TopRisks:         topByConfidence(collect(outputs, risks), topRisks),
		OutsideCoreFocus: topByConfidence(collect(outputs, outsideCore), topOutsideCore),
		SectorSentiment:  mergeSentiment(outputs, domains),
		ActionChecklist:  mergeChecklist(outputs),
		Sources:          mergeSources(outputs),
	}
	brief.ConfidenceAggregate = confidenceAggregate(outputs)
	return brief
}

func whatChanged(o domain.ModelOutput) []domain.Finding   { return o.WhatChanged }
func opportunities(o domain.ModelOutput) []domain.Finding { return o.Opportunities }
func risks(o domain.ModelOutput) []domain.Finding         { return o.Risks }
func outsideCore(o domain.ModelOutput) []domain.Finding   { return o.OutsideCoreFocus }

func collect(outputs []domain.ModelOutput, pick func(domain.ModelOutput) []domain.Finding) []domain.Finding {
	var all []domain.Finding
	for _, o := range outputs {
		all = append(all, pick(o)...)
	}
	return all
}

// topByConfidence ranks descending and keeps the first n. The sort is
// stable so ties keep input order: first-seen provider wins.
func topByConfidence(findings []domain.Finding, n int) []domain.Finding {
	ranked := make([]domain.Finding, len(findings))
	copy(ranked, findings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// mergeSentiment averages each domain's score over the providers that
// reported it; providers that omit a domain are excluded from its average,
// not treated as zero.
func mergeSentiment(outputs []domain.ModelOutput, domains []domain.Domain) []domain.SentimentRow {
	rows := make([]domain.SentimentRow, 0, len(domains))
	for _, d := range domains {
		var sum float64
		var count int
		var rationales []string
		for _, o := range outputs {
			for _, s := range o.Sentiment {
				if s.Domain == d {
					sum += s.Score
					count++
					if s.Rationale != "" {
						rationales = append(rationales, s.Rationale)
					}
					break
				}
			}
		}

		score := 0.0
		if count > 0 {
			score = sum / float64(count)
		}
		rows = append(rows, domain.SentimentRow{
			Domain:    d,
			Score:     score,
			Label:     domain.LabelForScore(score),
			Rationale: strings.Join(rationales, " | "),
		})
	}
	return rows
}

// mergeChecklist unions all providers' entries, order-preserving, plus the
// standing portfolio-fit reminder.
func mergeChecklist(outputs []domain.ModelOutput) []string {
	seen := map[string]bool{}
	var merged []string
	add := func(item string) {
		if !seen[item] {
			seen[item] = true
			merged = append(merged, item)
		}
	}
	for _, o := range outputs {
		for _, item := range o.Checklist {
			add(item)
		}
	}
	add("Rank opportunities by portfolio fit and downside protection")
	return merged
}

func mergeSources(outputs []domain.ModelOutput) []domain.Source {
	var all []domain.Source
	for _, o := range outputs {
		all = append(all, o.Sources...)
	}
	return all
}

// confidenceAggregate is the mean confidence across every finding in every
// category, rounded to 2 decimals; 0 when no findings exist.
func confidenceAggregate(outputs []domain.ModelOutput) float64 {
	var sum float64
	var count int
	for _, o := range outputs {
		for _, list := range [][]domain.Finding{o.WhatChanged, o.Opportunities, o.Risks, o.OutsideCoreFocus} {
			for _, f := range list {
				sum += f.Confidence
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return math.Round(sum/float64(count)*100) / 100
}

// Summary renders a one-line digest for logs and the CLI.
func Summary(b domain.Brief) string {
	return fmt.Sprintf("findings=%d opportunities=%d risks=%d confidence=%.2f",
		len(b.WhatChanged), len(b.TopOpportunities), len(b.TopRisks), b.ConfidenceAggregate)
}
