package tampering

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/todmy/doc-integrity/pkg/models"
)

// Corpus-wide pattern analysis. Unlike the paired rules, confidence here
// is graded: it reflects how far a measurement sits from its reference.

// frequencyPatterns flags documents whose mention count for a tracked
// name deviates sharply from the corpus mean for that name.
func (a *Analyzer) frequencyPatterns(docs []models.AnalysisDocument) []models.Pattern {
	if len(docs) < 2 {
		return nil
	}

	var patterns []models.Pattern
	for _, name := range a.config.TrackedNames {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)

		counts := make([]float64, len(docs))
		for i, doc := range docs {
			counts[i] = float64(len(re.FindAllStringIndex(doc.TextContent, -1)))
		}

		mean, std := stat.MeanStdDev(counts, nil)
		if std == 0 {
			continue
		}

		for i, doc := range docs {
			z := (counts[i] - mean) / std
			if math.Abs(z) < a.config.ZThreshold {
				continue
			}
			severity := models.SeverityModerate
			if math.Abs(z) >= 3 {
				severity = models.SeverityHigh
			}
			patterns = append(patterns, models.Pattern{
				Type:       models.PatternFrequency,
				Severity:   severity,
				Confidence: gradedConfidence(50, 15*math.Abs(z), 95),
				Description: fmt.Sprintf("mentions of %q in %s deviate from the corpus mean (%.0f vs %.1f)",
					name, doc.FileName, counts[i], mean),
				Evidence: []string{
					fmt.Sprintf("document %s: %.0f mentions", doc.FileName, counts[i]),
					fmt.Sprintf("corpus mean: %.1f, std dev: %.1f, z-score: %.1f", mean, std, z),
				},
				Location: "frequency analysis: " + name,
			})
		}
	}
	return patterns
}

// revisionRank orders same-day artifacts: explicit version numbers win,
// then filename markers. Zero means no ordering signal.
func revisionRank(doc models.AnalysisDocument) int {
	if doc.Version > 0 {
		return doc.Version
	}
	name := strings.ToLower(doc.FileName)
	switch {
	case strings.Contains(name, "original") || strings.Contains(name, "initial"):
		return 1
	case strings.Contains(name, "revised") || strings.Contains(name, "amended"):
		return 2
	case strings.Contains(name, "final"):
		return 3
	default:
		return 0
	}
}

// temporalPatterns inspects same-day clusters for back-dating: a later
// revision carrying an earlier modification time, or a cluster of
// artifacts with no ordering signal at all.
func (a *Analyzer) temporalPatterns(docs []models.AnalysisDocument) []models.Pattern {
	clusters := make(map[string][]models.AnalysisDocument)
	for _, doc := range docs {
		if doc.LastModified.IsZero() {
			continue
		}
		day := doc.LastModified.UTC().Format("2006-01-02")
		clusters[day] = append(clusters[day], doc)
	}

	days := make([]string, 0, len(clusters))
	for day := range clusters {
		days = append(days, day)
	}
	sort.Strings(days)

	var patterns []models.Pattern
	for _, day := range days {
		cluster := clusters[day]
		if len(cluster) < 2 {
			continue
		}
		sort.Slice(cluster, func(i, j int) bool { return cluster[i].ID < cluster[j].ID })

		unranked := 0
		for _, doc := range cluster {
			if revisionRank(doc) == 0 {
				unranked++
			}
		}

		for i := 0; i < len(cluster); i++ {
			for j := 0; j < len(cluster); j++ {
				earlier, later := cluster[i], cluster[j]
				if revisionRank(earlier) == 0 || revisionRank(later) == 0 {
					continue
				}
				if revisionRank(earlier) >= revisionRank(later) {
					continue
				}
				gap := earlier.LastModified.Sub(later.LastModified)
				if gap <= 0 {
					continue
				}
				patterns = append(patterns, models.Pattern{
					Type:       models.PatternBackdating,
					Severity:   models.SeverityHigh,
					Confidence: gradedConfidence(60, gap.Hours(), 95),
					Description: fmt.Sprintf("later revision %s carries an earlier modification time than %s",
						later.FileName, earlier.FileName),
					Evidence: []string{
						fmt.Sprintf("%s modified %s", earlier.FileName, earlier.LastModified.UTC().Format("2006-01-02 15:04")),
						fmt.Sprintf("%s modified %s", later.FileName, later.LastModified.UTC().Format("2006-01-02 15:04")),
					},
					Location: "temporal analysis: " + day,
				})
			}
		}

		if unranked >= 3 {
			names := make([]string, len(cluster))
			for i, doc := range cluster {
				names[i] = doc.FileName
			}
			patterns = append(patterns, models.Pattern{
				Type:        models.PatternUnordered,
				Severity:    models.SeverityModerate,
				Confidence:  gradedConfidence(30, float64(10*len(cluster)), 80),
				Description: fmt.Sprintf("%d same-day artifacts on %s with no explicit ordering", len(cluster), day),
				Evidence:    names,
				Location:    "temporal analysis: " + day,
			})
		}
	}
	return patterns
}

var structuralMarkerPattern = regexp.MustCompile(`(?m)^[A-Z][A-Z ]+:`)

// structuralPatterns compares consecutive revisions of the same logical
// document for abrupt length or layout discontinuities, a heuristic for
// insertion or redaction.
func (a *Analyzer) structuralPatterns(docs []models.AnalysisDocument) []models.Pattern {
	lineages := make(map[string][]models.AnalysisDocument)
	for _, doc := range docs {
		lineages[doc.ID] = append(lineages[doc.ID], doc)
	}

	ids := make([]string, 0, len(lineages))
	for id := range lineages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var patterns []models.Pattern
	for _, id := range ids {
		revisions := lineages[id]
		if len(revisions) < 2 {
			continue
		}
		sort.Slice(revisions, func(i, j int) bool { return revisions[i].Version < revisions[j].Version })

		for i := 1; i < len(revisions); i++ {
			prev, curr := revisions[i-1], revisions[i]
			lenPrev := float64(len(prev.TextContent))
			lenCurr := float64(len(curr.TextContent))
			if lenPrev == 0 && lenCurr == 0 {
				continue
			}

			pct := math.Abs(lenPrev-lenCurr) / math.Max(lenPrev, lenCurr) * 100
			if pct > a.config.LengthChangePercent {
				severity := models.SeverityHigh
				if pct > 50 {
					severity = models.SeverityCritical
				}
				patterns = append(patterns, models.Pattern{
					Type:       models.PatternStructural,
					Severity:   severity,
					Confidence: gradedConfidence(40, pct, 90),
					Description: fmt.Sprintf("content length of %s changed %.1f%% between versions %d and %d",
						curr.FileName, pct, prev.Version, curr.Version),
					Evidence: []string{
						fmt.Sprintf("version %d: %d characters", prev.Version, len(prev.TextContent)),
						fmt.Sprintf("version %d: %d characters", curr.Version, len(curr.TextContent)),
					},
					Location: "structural analysis: " + id,
				})
				continue
			}

			markersPrev := len(structuralMarkerPattern.FindAllString(prev.TextContent, -1))
			markersCurr := len(structuralMarkerPattern.FindAllString(curr.TextContent, -1))
			delta := markersPrev - markersCurr
			if delta < 0 {
				delta = -delta
			}
			if delta > 2 {
				patterns = append(patterns, models.Pattern{
					Type:       models.PatternStructural,
					Severity:   models.SeverityModerate,
					Confidence: gradedConfidence(50, float64(5*delta), 85),
					Description: fmt.Sprintf("section layout of %s shifted between versions %d and %d",
						curr.FileName, prev.Version, curr.Version),
					Evidence: []string{
						fmt.Sprintf("version %d: %d section headers", prev.Version, markersPrev),
						fmt.Sprintf("version %d: %d section headers", curr.Version, markersCurr),
					},
					Location: "structural analysis: " + id,
				})
			}
		}
	}
	return patterns
}

// gradedConfidence maps a deviation onto a bounded 0-100 score.
func gradedConfidence(base, deviation, limit float64) int {
	return int(math.Round(math.Min(limit, base+deviation)))
}
