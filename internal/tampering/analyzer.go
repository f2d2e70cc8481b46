// Package tampering detects alteration signals across revisions of
// justice-system records. Two modes exist: paired rule comparison of two
// revisions of one record, and corpus-wide statistical pattern analysis.
package tampering

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/doc-integrity/pkg/models"
)

// Analyzer runs both analysis modes over a fixed rule configuration.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer, filling unset config sections from
// the defaults. TrackedNames stays as given since it is caller material.
func NewAnalyzer(config Config) *Analyzer {
	defaults := DefaultConfig()
	if config.QuantityUnits == nil {
		config.QuantityUnits = defaults.QuantityUnits
	}
	if config.StatusPairs == nil {
		config.StatusPairs = defaults.StatusPairs
	}
	if config.MarkerPhrases == nil {
		config.MarkerPhrases = defaults.MarkerPhrases
	}
	if config.ZThreshold == 0 {
		config.ZThreshold = defaults.ZThreshold
	}
	if config.LengthChangePercent == 0 {
		config.LengthChangePercent = defaults.LengthChangePercent
	}
	return &Analyzer{config: config}
}

// AnalyzeCorpus runs every pattern analysis over the corpus and
// aggregates the findings into a report. Documents without text are
// counted but skipped; a corpus of fewer than two usable documents
// yields an empty low-risk report. The result does not depend on input
// order.
func (a *Analyzer) AnalyzeCorpus(docs []models.AnalysisDocument) models.AnalysisReport {
	report := models.AnalysisReport{
		AnalysisID:        uuid.New(),
		GeneratedAt:       time.Now(),
		DocumentsAnalyzed: len(docs),
		Patterns:          []models.Pattern{},
		RiskLevel:         models.RiskLow,
	}

	usable := make([]models.AnalysisDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.TextContent == "" {
			report.SkippedDocuments = append(report.SkippedDocuments, doc.FileName)
			continue
		}
		usable = append(usable, doc)
	}
	sort.Strings(report.SkippedDocuments)
	if len(usable) < 2 {
		return report
	}

	sort.Slice(usable, func(i, j int) bool {
		if usable[i].ID != usable[j].ID {
			return usable[i].ID < usable[j].ID
		}
		return usable[i].Version < usable[j].Version
	})

	patterns := a.frequencyPatterns(usable)
	patterns = append(patterns, a.temporalPatterns(usable)...)
	patterns = append(patterns, a.structuralPatterns(usable)...)
	sortPatterns(patterns)

	report.Patterns = patterns
	for _, p := range patterns {
		switch p.Severity {
		case models.SeverityCritical:
			report.CriticalCount++
		case models.SeverityHigh:
			report.HighCount++
		case models.SeverityModerate:
			report.ModerateCount++
		}
	}
	report.RiskLevel = riskLevel(report)
	report.ConfidenceScore = meanConfidence(patterns)

	return report
}

// sortPatterns orders findings by severity, then type, then description,
// so equal inputs always yield equal reports.
func sortPatterns(patterns []models.Pattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Severity != patterns[j].Severity {
			return severityRank(patterns[i].Severity) > severityRank(patterns[j].Severity)
		}
		if patterns[i].Type != patterns[j].Type {
			return patterns[i].Type < patterns[j].Type
		}
		return patterns[i].Description < patterns[j].Description
	})
}

// riskLevel is a strict ladder: any critical finding dominates, then
// high, then moderate.
func riskLevel(report models.AnalysisReport) models.RiskLevel {
	switch {
	case report.CriticalCount > 0:
		return models.RiskCritical
	case report.HighCount > 0:
		return models.RiskHigh
	case report.ModerateCount > 0:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// meanConfidence is the rounded mean over all findings, 0 when empty.
func meanConfidence(patterns []models.Pattern) int {
	if len(patterns) == 0 {
		return 0
	}
	sum := 0
	for _, p := range patterns {
		sum += p.Confidence
	}
	return int(math.Round(float64(sum) / float64(len(patterns))))
}
