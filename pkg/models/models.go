package models

import (
	"time"

	"github.com/google/uuid"
)

// Fingerprint is the content-derived identity of an uploaded file.
// It is immutable once computed: the same bytes and text always produce
// the same fingerprint.
type Fingerprint struct {
	FileName       string    `json:"file_name"`
	FileSize       int64     `json:"file_size"`
	ContentHash    string    `json:"content_hash"`
	PageCount      int       `json:"page_count,omitempty"`
	FirstPageHash  string    `json:"first_page_hash,omitempty"`
	LastModified   time.Time `json:"last_modified"`
	ContentPreview string    `json:"content_preview,omitempty"`
}

// Category classifies a document's evidentiary role.
type Category string

const (
	CategoryPrimary    Category = "Primary"
	CategorySupporting Category = "Supporting"
	CategoryExternal   Category = "External"
	CategoryNone       Category = "No"
)

// ChangeType records how a version came to exist.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeEdited   ChangeType = "edited"
	ChangeImported ChangeType = "imported"
)

// Placement marks which output bundles a document belongs to.
type Placement struct {
	MasterFile      bool `json:"master_file"`
	ExhibitBundle   bool `json:"exhibit_bundle"`
	OversightPacket bool `json:"oversight_packet"`
}

// Finding ties a document passage to an applicable rule.
type Finding struct {
	Law       string `json:"law"`
	Page      string `json:"page"`
	Paragraph string `json:"paragraph"`
	Notes     string `json:"notes"`
}

// Fields is the editable field set of a document. A DocumentVersion
// snapshots exactly these fields; the Document caches the latest snapshot.
type Fields struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	People      []string  `json:"people"`
	Laws        []string  `json:"laws"`
	Findings    []Finding `json:"findings"`
	Include     bool      `json:"include"`
	Placement   Placement `json:"placement"`
	TextContent string    `json:"text_content,omitempty"`
}

// Document is the read-optimized view of a logical document: the latest
// snapshot's fields plus version bookkeeping. It holds no reference into
// the version log and can always be rebuilt from it.
type Document struct {
	ID             uuid.UUID    `json:"id"`
	FileName       string       `json:"file_name"`
	Fields         Fields       `json:"fields"`
	CurrentVersion int          `json:"current_version"`
	UploadedAt     time.Time    `json:"uploaded_at"`
	LastModified   time.Time    `json:"last_modified"`
	LastModifiedBy string       `json:"last_modified_by"`
	Fingerprint    *Fingerprint `json:"fingerprint,omitempty"`
}

// DocumentVersion is one immutable snapshot in a document's history.
// For a given DocumentID, version numbers are gapless and start at 1.
type DocumentVersion struct {
	ID          uuid.UUID  `json:"id"`
	DocumentID  uuid.UUID  `json:"document_id"`
	Version     int        `json:"version"`
	Fields      Fields     `json:"fields"`
	ChangedBy   string     `json:"changed_by"`
	ChangedAt   time.Time  `json:"changed_at"`
	ChangeNotes string     `json:"change_notes,omitempty"`
	ChangeType  ChangeType `json:"change_type"`
}

// MatchType identifies which cascade rule matched a duplicate.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchRename    MatchType = "rename"
	MatchContent   MatchType = "content"
	MatchDateBased MatchType = "date-based"
	MatchNone      MatchType = "none"
)

// DateMatch lists documents sharing the incoming file's calendar day.
// It is a hint for manual review, not a strong duplicate signal.
type DateMatch struct {
	SharedDate         string     `json:"shared_date"`
	OtherDocuments     []Document `json:"other_documents"`
	RequiresComparison bool       `json:"requires_comparison"`
}

// DuplicateResult is the outcome of one detection call. At most one
// result is produced, for the first cascade rule that fired.
type DuplicateResult struct {
	IsDuplicate      bool       `json:"is_duplicate"`
	MatchType        MatchType  `json:"match_type"`
	Confidence       int        `json:"confidence"`
	ExistingDocument *Document  `json:"existing_document,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	DateMatch        *DateMatch `json:"date_match,omitempty"`
}

// ContradictionType is the closed catalogue of paired-comparison rules.
type ContradictionType string

const (
	ContradictionNameChange     ContradictionType = "name_change"
	ContradictionCountReduction ContradictionType = "count_reduction"
	ContradictionStatusFlip     ContradictionType = "status_flip"
	ContradictionRemoval        ContradictionType = "content_removal"
)

// Severity ranks how serious a contradiction or pattern is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
)

// Contradiction is one detected discrepancy between two document texts
// believed to describe the same event. Read-only analyzer output.
type Contradiction struct {
	Type              ContradictionType `json:"type"`
	Severity          Severity          `json:"severity"`
	Confidence        int               `json:"confidence"`
	Description       string            `json:"description"`
	Before            string            `json:"before"`
	After             string            `json:"after"`
	Documents         []string          `json:"documents"`
	EvidenceLocation  string            `json:"evidence_location"`
	LegalImplications []string          `json:"legal_implications,omitempty"`
}

// PatternType identifies a corpus-wide analysis finding.
type PatternType string

const (
	PatternFrequency  PatternType = "frequency_anomaly"
	PatternBackdating PatternType = "backdating"
	PatternUnordered  PatternType = "unordered_revisions"
	PatternStructural PatternType = "structural_discontinuity"
)

// Pattern is one corpus-wide finding with a graded confidence score,
// unlike the binary confidence of paired contradictions.
type Pattern struct {
	Type        PatternType `json:"type"`
	Severity    Severity    `json:"severity"`
	Confidence  int         `json:"confidence"`
	Description string      `json:"description"`
	Evidence    []string    `json:"evidence"`
	Location    string      `json:"location,omitempty"`
}

// RiskLevel is the aggregate assessment of an analysis run.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskModerate RiskLevel = "moderate"
	RiskLow      RiskLevel = "low"
)

// AnalysisReport rolls up one analysis invocation. Reports are never
// merged or mutated after creation.
type AnalysisReport struct {
	AnalysisID        uuid.UUID `json:"analysis_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	DocumentsAnalyzed int       `json:"documents_analyzed"`
	SkippedDocuments  []string  `json:"skipped_documents,omitempty"`
	Patterns          []Pattern `json:"patterns"`
	CriticalCount     int       `json:"critical_count"`
	HighCount         int       `json:"high_count"`
	ModerateCount     int       `json:"moderate_count"`
	RiskLevel         RiskLevel `json:"risk_level"`
	ConfidenceScore   int       `json:"confidence_score"`
}

// AnalysisDocument is the analyzer's view of a document: identity plus
// whatever text and timing metadata the caller has. The analyzer performs
// no I/O of its own.
type AnalysisDocument struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	Title        string    `json:"title"`
	TextContent  string    `json:"text_content,omitempty"`
	Version      int       `json:"version"`
	LastModified time.Time `json:"last_modified"`
}
