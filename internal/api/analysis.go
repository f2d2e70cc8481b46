package api

import (
	"encoding/json"
	"net/http"

	"github.com/todmy/doc-integrity/internal/tampering"
	"github.com/todmy/doc-integrity/pkg/models"
)

// PairRequest carries two revisions of the same underlying record.
type PairRequest struct {
	Before models.AnalysisDocument `json:"before"`
	After  models.AnalysisDocument `json:"after"`
}

// PairResponse lists the contradictions found between the two texts.
type PairResponse struct {
	Contradictions []models.Contradiction `json:"contradictions"`
}

// handlePairAnalysis runs the paired rule catalogue over two texts.
func (s *Server) handlePairAnalysis(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Before.TextContent == "" || req.After.TextContent == "" {
		respondError(w, http.StatusBadRequest, "both documents need text content")
		return
	}

	respondJSON(w, http.StatusOK, PairResponse{
		Contradictions: s.analyzer.ComparePair(req.Before, req.After),
	})
}

// CorpusRequest tunes one corpus analysis run. When TrackedNames is set,
// frequency analysis runs against those names for this request only.
type CorpusRequest struct {
	TrackedNames []string `json:"tracked_names"`
}

// handleCorpusAnalysis runs pattern analysis over every stored document
// version and returns the aggregated report.
func (s *Server) handleCorpusAnalysis(w http.ResponseWriter, r *http.Request) {
	var req CorpusRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	docs, err := s.documents.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	var corpus []models.AnalysisDocument
	for _, doc := range docs {
		history, err := s.store.History(r.Context(), doc.ID)
		if err != nil {
			respondFault(w, err)
			return
		}
		for _, v := range history {
			corpus = append(corpus, models.AnalysisDocument{
				ID:           doc.ID.String(),
				FileName:     doc.FileName,
				Title:        v.Fields.Title,
				TextContent:  v.Fields.TextContent,
				Version:      v.Version,
				LastModified: v.ChangedAt,
			})
		}
	}

	analyzer := s.analyzer
	if len(req.TrackedNames) > 0 {
		analyzer = tampering.NewAnalyzer(tampering.Config{TrackedNames: req.TrackedNames})
	}

	respondJSON(w, http.StatusOK, analyzer.AnalyzeCorpus(corpus))
}
