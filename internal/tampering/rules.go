package tampering

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/todmy/doc-integrity/pkg/models"
)

// Paired rule-based comparison. Every rule fires only on literal
// matches, so confidence is binary: a detected contradiction always
// carries confidence 100.

// namedEntityPattern captures "Name Surname (context)" occurrences. The
// parenthesized context carries the role ("witness, age 34"); two
// occurrences with equal context and different names are an identity
// substitution.
var namedEntityPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z'-]+(?: [A-Z][a-zA-Z'-]+)+)\s*\(([^)]+)\)`)

// ComparePair scans two revisions of the same underlying record for the
// fixed rule catalogue and returns one contradiction per literal match.
// Output order follows the catalogue: name substitutions, count
// reductions, status flips, removals.
func (a *Analyzer) ComparePair(before, after models.AnalysisDocument) []models.Contradiction {
	contradictions := make([]models.Contradiction, 0)
	docs := []string{before.ID, after.ID}

	contradictions = append(contradictions, nameSubstitutions(before.TextContent, after.TextContent, docs)...)
	contradictions = append(contradictions, a.countReductions(before.TextContent, after.TextContent, docs)...)
	contradictions = append(contradictions, a.statusFlips(before.TextContent, after.TextContent, docs)...)
	contradictions = append(contradictions, a.contentRemovals(before.TextContent, after.TextContent, docs)...)

	return contradictions
}

func newContradiction(t models.ContradictionType, description, beforeText, afterText, location string, docs []string) models.Contradiction {
	return models.Contradiction{
		Type:              t,
		Severity:          severityFor[t],
		Confidence:        100,
		Description:       description,
		Before:            beforeText,
		After:             afterText,
		Documents:         append([]string(nil), docs...),
		EvidenceLocation:  location,
		LegalImplications: append([]string(nil), implicationsFor[t]...),
	}
}

// nameSubstitutions pairs entity occurrences by their parenthesized
// context: same context, different name means the identity was swapped
// while everything around it stayed put.
func nameSubstitutions(before, after string, docs []string) []models.Contradiction {
	entitiesBefore := entityByContext(before)
	entitiesAfter := entityByContext(after)

	contexts := make([]string, 0, len(entitiesBefore))
	for ctx := range entitiesBefore {
		contexts = append(contexts, ctx)
	}
	sort.Strings(contexts)

	var out []models.Contradiction
	for _, ctx := range contexts {
		nameBefore := entitiesBefore[ctx]
		nameAfter, ok := entitiesAfter[ctx]
		if !ok || nameAfter == nameBefore {
			continue
		}
		out = append(out, newContradiction(
			models.ContradictionNameChange,
			fmt.Sprintf("name associated with %q changed from %q to %q", ctx, nameBefore, nameAfter),
			fmt.Sprintf("%s (%s)", nameBefore, ctx),
			fmt.Sprintf("%s (%s)", nameAfter, ctx),
			"named entity: "+ctx,
			docs,
		))
	}
	return out
}

// entityByContext maps each parenthesized context to the first name it
// is attached to. First occurrence wins to keep results deterministic.
func entityByContext(text string) map[string]string {
	entities := make(map[string]string)
	for _, m := range namedEntityPattern.FindAllStringSubmatch(text, -1) {
		ctx := strings.TrimSpace(m[2])
		if _, seen := entities[ctx]; !seen {
			entities[ctx] = m[1]
		}
	}
	return entities
}

// countReductions looks for tracked quantity kinds whose value shrinks
// in the later revision. Units are checked longest first so "digital
// photographs" is not double-reported as "photographs".
func (a *Analyzer) countReductions(before, after string, docs []string) []models.Contradiction {
	units := append([]string(nil), a.config.QuantityUnits...)
	sort.Slice(units, func(i, j int) bool { return len(units[i]) > len(units[j]) })

	var out []models.Contradiction
	var matched []string
	for _, unit := range units {
		if coveredByLonger(unit, matched) {
			continue
		}
		countBefore, okBefore := quantityOf(before, unit)
		countAfter, okAfter := quantityOf(after, unit)
		if !okBefore || !okAfter || countAfter >= countBefore {
			continue
		}
		matched = append(matched, unit)
		out = append(out, newContradiction(
			models.ContradictionCountReduction,
			fmt.Sprintf("count of %s reduced from %d to %d", unit, countBefore, countAfter),
			fmt.Sprintf("%d %s", countBefore, unit),
			fmt.Sprintf("%d %s", countAfter, unit),
			"quantity: "+unit,
			docs,
		))
	}
	return out
}

func coveredByLonger(unit string, matched []string) bool {
	for _, m := range matched {
		if strings.HasSuffix(m, unit) || strings.HasSuffix(unit, m) {
			return true
		}
	}
	return false
}

// quantityOf extracts the first "<number> <unit>" occurrence.
func quantityOf(text, unit string) (int, bool) {
	re := regexp.MustCompile(`(?i)\b(\d+)\s+` + regexp.QuoteMeta(unit) + `\b`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// statusFlips detects a known opposite-status token pair flipping
// between the two revisions, in either direction.
func (a *Analyzer) statusFlips(before, after string, docs []string) []models.Contradiction {
	var out []models.Contradiction
	for _, pair := range a.config.StatusPairs {
		stateBefore := statusIn(before, pair)
		stateAfter := statusIn(after, pair)
		if stateBefore == "" || stateAfter == "" || stateBefore == stateAfter {
			continue
		}
		location := "status token: " + pair.Before + "/" + pair.After
		if pair.Qualifier != "" {
			location = "status token: " + pair.Qualifier
		}
		out = append(out, newContradiction(
			models.ContradictionStatusFlip,
			fmt.Sprintf("status flipped from %q to %q", stateBefore, stateAfter),
			stateBefore,
			stateAfter,
			location,
			docs,
		))
	}
	return out
}

// statusIn reports which side of the pair appears in the text, or "".
// When both sides appear the text is ambiguous and no state is reported.
func statusIn(text string, pair StatusPair) string {
	hasBefore := hasStatusToken(text, pair.Before, pair.Qualifier)
	hasAfter := hasStatusToken(text, pair.After, pair.Qualifier)
	switch {
	case hasBefore && !hasAfter:
		return pair.Before
	case hasAfter && !hasBefore:
		return pair.After
	default:
		return ""
	}
}

func hasStatusToken(text, token, qualifier string) bool {
	pattern := `(?i)\b` + regexp.QuoteMeta(token) + `\b`
	if qualifier != "" {
		pattern = `(?i)\b` + regexp.QuoteMeta(qualifier) + `\b[^a-zA-Z0-9]{0,3}` + regexp.QuoteMeta(token) + `\b`
	}
	return regexp.MustCompile(pattern).MatchString(text)
}

// contentRemovals flags tracked marker phrases present in the earlier
// revision but absent from the later one.
func (a *Analyzer) contentRemovals(before, after string, docs []string) []models.Contradiction {
	lowerBefore := strings.ToLower(before)
	lowerAfter := strings.ToLower(after)

	var out []models.Contradiction
	for _, phrase := range a.config.MarkerPhrases {
		p := strings.ToLower(phrase)
		if !strings.Contains(lowerBefore, p) || strings.Contains(lowerAfter, p) {
			continue
		}
		out = append(out, newContradiction(
			models.ContradictionRemoval,
			fmt.Sprintf("passage containing %q removed", phrase),
			sentenceAround(before, phrase),
			"(absent)",
			"marker phrase: "+phrase,
			docs,
		))
	}
	return out
}

// sentenceAround returns the sentence containing the phrase, for the
// contradiction's before field.
func sentenceAround(text, phrase string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(phrase))
	if idx < 0 {
		return phrase
	}
	start := strings.LastIndexAny(lower[:idx], ".!?\n") + 1
	end := strings.IndexAny(lower[idx:], ".!?\n")
	if end < 0 {
		end = len(text)
	} else {
		end += idx + 1
	}
	return strings.TrimSpace(text[start:end])
}
