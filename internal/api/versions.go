package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/todmy/doc-integrity/internal/auth"
	"github.com/todmy/doc-integrity/internal/version"
	"github.com/todmy/doc-integrity/pkg/models"
)

// handleHistory returns a document's versions, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDocumentID(w, r)
	if !ok {
		return
	}

	versions, err := s.store.History(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, versions)
}

// DiffResponse pairs the compared version numbers with their changes.
type DiffResponse struct {
	From    int                   `json:"from"`
	To      int                   `json:"to"`
	Changes []version.FieldChange `json:"changes"`
}

// handleDiff compares two version numbers of one document, given as
// ?from= and ?to= query parameters.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDocumentID(w, r)
	if !ok {
		return
	}

	from, err1 := strconv.Atoi(r.URL.Query().Get("from"))
	to, err2 := strconv.Atoi(r.URL.Query().Get("to"))
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "from and to version numbers are required")
		return
	}

	history, err := s.store.History(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}

	var fromVersion, toVersion *models.DocumentVersion
	for i := range history {
		switch history[i].Version {
		case from:
			fromVersion = &history[i]
		case to:
			toVersion = &history[i]
		}
	}
	if fromVersion == nil || toVersion == nil {
		respondError(w, http.StatusNotFound, "version not found")
		return
	}

	respondJSON(w, http.StatusOK, DiffResponse{
		From:    from,
		To:      to,
		Changes: version.DiffVersions(*fromVersion, *toVersion),
	})
}

// RevertRequest names the version snapshot to restore.
type RevertRequest struct {
	VersionID uuid.UUID `json:"version_id"`
}

// handleRevert appends a new version copying the target snapshot.
func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDocumentID(w, r)
	if !ok {
		return
	}

	var req RevertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VersionID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "version_id is required")
		return
	}

	v, err := s.store.Revert(r.Context(), id, req.VersionID, auth.AuthorName(r.Context()))
	if err != nil {
		respondFault(w, err)
		return
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}

	respondJSON(w, http.StatusOK, IngestResponse{Status: "reverted", Document: doc, Version: v})
}

// handleRebuild recomputes the cached document from its version log.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDocumentID(w, r)
	if !ok {
		return
	}

	doc, err := s.store.Rebuild(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}
