// Package duplicate decides whether an incoming fingerprint matches a
// document already on file. Detection runs a fixed-order cascade of
// match rules and returns the first rule that fires; it never mutates
// the corpus it is given.
package duplicate

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/doc-integrity/internal/fault"
	"github.com/todmy/doc-integrity/pkg/models"
)

// DateKeyFunc maps a fingerprint timestamp to a grouping key for the
// date-based rule. The default keys off the file's own modification day;
// callers wanting content-date grouping inject their own.
type DateKeyFunc func(t time.Time) string

// DayKey is the default date comparator: the calendar day of the file's
// last-modified time, in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Config tunes the detector. Zero values fall back to defaults.
type Config struct {
	// SimilarityThreshold is the minimum Jaccard similarity for the
	// fuzzy content rule.
	SimilarityThreshold float64
	// MinPreviewLength gates the fuzzy rule: shorter previews carry too
	// little signal to compare.
	MinPreviewLength int
	// DateKey groups documents for the date-based rule.
	DateKey DateKeyFunc
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.8,
		MinPreviewLength:    100,
		DateKey:             DayKey,
	}
}

// Detector runs the duplicate match cascade.
type Detector struct {
	config Config
}

// NewDetector creates a detector, filling unset config fields with
// defaults.
func NewDetector(config Config) *Detector {
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	if config.MinPreviewLength <= 0 {
		config.MinPreviewLength = DefaultConfig().MinPreviewLength
	}
	if config.DateKey == nil {
		config.DateKey = DayKey
	}
	return &Detector{config: config}
}

// Detect evaluates the cascade against the existing corpus and returns
// the first match, or a none result with confidence 0. Documents missing
// an id or file name are excluded from consideration; an empty corpus
// always yields none.
func (d *Detector) Detect(fp models.Fingerprint, existing []models.Document) (models.DuplicateResult, error) {
	if fp.FileName == "" && fp.ContentHash == "" {
		return models.DuplicateResult{}, fault.New(fault.Validation, "fingerprint has no identity fields")
	}

	valid := make([]models.Document, 0, len(existing))
	for _, doc := range existing {
		if doc.ID == uuid.Nil || doc.FileName == "" {
			continue
		}
		valid = append(valid, doc)
	}

	none := models.DuplicateResult{IsDuplicate: false, MatchType: models.MatchNone, Confidence: 0}
	if len(valid) == 0 {
		return none, nil
	}

	// Rule 1: exact content hash.
	if fp.ContentHash != "" {
		for i := range valid {
			if valid[i].Fingerprint != nil && valid[i].Fingerprint.ContentHash == fp.ContentHash {
				return models.DuplicateResult{
					IsDuplicate:      true,
					MatchType:        models.MatchExact,
					Confidence:       100,
					ExistingDocument: &valid[i],
					Reason:           "identical file hash detected",
				}, nil
			}
		}
	}

	// Rule 2: same file name and size.
	for i := range valid {
		other := valid[i].Fingerprint
		if other != nil && valid[i].FileName == fp.FileName && other.FileSize == fp.FileSize {
			return models.DuplicateResult{
				IsDuplicate:      true,
				MatchType:        models.MatchRename,
				Confidence:       95,
				ExistingDocument: &valid[i],
				Reason:           "same file name and file size",
			}, nil
		}
	}

	// Rule 3a: same first-page content and page count.
	if fp.FirstPageHash != "" {
		for i := range valid {
			other := valid[i].Fingerprint
			if other != nil && other.FirstPageHash == fp.FirstPageHash && other.PageCount == fp.PageCount {
				return models.DuplicateResult{
					IsDuplicate:      true,
					MatchType:        models.MatchContent,
					Confidence:       85,
					ExistingDocument: &valid[i],
					Reason:           "same first page content and page count",
				}, nil
			}
		}
	}

	// Rule 3b: fuzzy preview similarity, scaled down because word
	// overlap is weaker evidence than a hash.
	if len(fp.ContentPreview) > d.config.MinPreviewLength {
		for i := range valid {
			other := valid[i].Fingerprint
			if other == nil || other.ContentPreview == "" {
				continue
			}
			sim := JaccardSimilarity(fp.ContentPreview, other.ContentPreview)
			if sim > d.config.SimilarityThreshold {
				return models.DuplicateResult{
					IsDuplicate:      true,
					MatchType:        models.MatchContent,
					Confidence:       int(math.Round(sim * 70)),
					ExistingDocument: &valid[i],
					Reason:           fmt.Sprintf("similar content detected (%d%% similarity)", int(math.Round(sim*100))),
				}, nil
			}
		}
	}

	// Rule 4: same calendar day. A hint only, so it carries the lowest
	// confidence in the cascade.
	if !fp.LastModified.IsZero() {
		key := d.config.DateKey(fp.LastModified)
		var sameDay []models.Document
		for i := range valid {
			other := valid[i].Fingerprint
			if other != nil && !other.LastModified.IsZero() && d.config.DateKey(other.LastModified) == key {
				sameDay = append(sameDay, valid[i])
			}
		}
		if len(sameDay) > 0 {
			return models.DuplicateResult{
				IsDuplicate:      true,
				MatchType:        models.MatchDateBased,
				Confidence:       60,
				ExistingDocument: &sameDay[0],
				Reason:           "documents from same date detected",
				DateMatch: &models.DateMatch{
					SharedDate:         key,
					OtherDocuments:     sameDay,
					RequiresComparison: len(sameDay) >= 2,
				},
			}, nil
		}
	}

	return none, nil
}
