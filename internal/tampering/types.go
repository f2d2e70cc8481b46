package tampering

import "github.com/todmy/doc-integrity/pkg/models"

// StatusPair is two opposite status tokens whose flip between revisions
// is treated as a critical alteration. Qualifier, when set, requires the
// token to appear near that label (e.g. "risk assessment: low").
type StatusPair struct {
	Before    string
	After     string
	Qualifier string
}

// Config lists the lexical material the analyzer tracks. The catalogue
// is closed: every rule type maps to a fixed severity, so the rule set
// is enumerable and testable rather than an open-ended set of string
// checks.
type Config struct {
	// TrackedNames are name tokens whose per-document frequency is
	// compared against the corpus mean.
	TrackedNames []string
	// QuantityUnits are the countable kinds checked for reductions.
	QuantityUnits []string
	// StatusPairs are opposite-status tokens checked for flips.
	StatusPairs []StatusPair
	// MarkerPhrases are clauses whose disappearance between revisions
	// counts as content removal.
	MarkerPhrases []string
	// ZThreshold is the minimum |z-score| for a frequency flag.
	ZThreshold float64
	// LengthChangePercent is the minimum length discontinuity between
	// revisions, in percent, for a structural flag.
	LengthChangePercent float64
}

// DefaultConfig returns the default rule material. Tracked names are
// case-specific and left empty; callers supply them.
func DefaultConfig() Config {
	return Config{
		QuantityUnits: []string{
			"digital photographs",
			"photographs",
			"photos",
			"witnesses",
			"witness statements",
			"statements",
			"interviews",
			"exhibits",
			"pages",
		},
		StatusPairs: []StatusPair{
			{Before: "active", After: "closed", Qualifier: "status"},
			{Before: "substantiated", After: "unsubstantiated"},
			{Before: "founded", After: "unfounded"},
			{Before: "low", After: "moderate", Qualifier: "risk assessment"},
		},
		MarkerPhrases: []string{
			"provided statement",
			"witness statement",
			"chain of custody",
			"evidence bag",
			"forensic analysis",
			"medical exam",
		},
		ZThreshold:          2.0,
		LengthChangePercent: 20,
	}
}

// severityFor maps each contradiction type to its fixed severity:
// identity substitutions and status flips are critical, count reductions
// and removals high.
var severityFor = map[models.ContradictionType]models.Severity{
	models.ContradictionNameChange:     models.SeverityCritical,
	models.ContradictionStatusFlip:     models.SeverityCritical,
	models.ContradictionCountReduction: models.SeverityHigh,
	models.ContradictionRemoval:        models.SeverityHigh,
}

// implicationsFor maps each contradiction type to the legal concerns it
// raises in a report.
var implicationsFor = map[models.ContradictionType][]string{
	models.ContradictionNameChange: {
		"witness identity alteration",
		"due process concern over amended records",
	},
	models.ContradictionStatusFlip: {
		"reversal of investigative findings",
		"possible obstruction concern",
	},
	models.ContradictionCountReduction: {
		"suppression of physical evidence",
		"chain of custody concern",
	},
	models.ContradictionRemoval: {
		"suppression of testimony",
		"incomplete disclosure concern",
	},
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return 3
	case models.SeverityHigh:
		return 2
	case models.SeverityModerate:
		return 1
	default:
		return 0
	}
}
