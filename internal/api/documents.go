package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/doc-integrity/internal/auth"
	"github.com/todmy/doc-integrity/internal/duplicate"
	"github.com/todmy/doc-integrity/internal/fingerprint"
	"github.com/todmy/doc-integrity/pkg/models"
)

const maxUploadSize = 10 << 20 // 10 MB

// previewPrefilterMin is the corpus size above which detection consults
// the preview-vector index to order fuzzy-match candidates.
const previewPrefilterMin = 25

var allowedExts = map[string]bool{".md": true, ".txt": true, ".json": true, ".csv": true}

// IngestResponse reports how an upload was resolved.
type IngestResponse struct {
	Status    string                  `json:"status"`
	Document  *models.Document        `json:"document,omitempty"`
	Version   *models.DocumentVersion `json:"version,omitempty"`
	Duplicate *models.DuplicateResult `json:"duplicate,omitempty"`
}

// handleIngest accepts a multipart upload, fingerprints it, runs the
// duplicate cascade and resolves any match according to the caller's
// duplicate_action. A duplicate with no action returns 409 with the
// detection result so the caller can decide.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	fp, content, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := s.detectAgainstCorpus(r, fp)
	if err != nil {
		respondFault(w, err)
		return
	}

	author := auth.AuthorName(r.Context())
	fields := fieldsFromForm(r, string(content))

	if result.IsDuplicate {
		actionValue := r.FormValue("duplicate_action")
		if actionValue == "" {
			respondJSON(w, http.StatusConflict, IngestResponse{
				Status:    "duplicate",
				Duplicate: &result,
			})
			return
		}

		action, err := duplicate.ParseAction(actionValue)
		if err != nil {
			respondFault(w, err)
			return
		}

		switch action {
		case duplicate.ActionSkip:
			respondJSON(w, http.StatusOK, IngestResponse{
				Status:    "skipped",
				Document:  result.ExistingDocument,
				Duplicate: &result,
			})
			return

		case duplicate.ActionReplace:
			existing := result.ExistingDocument
			if existing == nil {
				respondError(w, http.StatusConflict, "duplicate match has no existing document to replace")
				return
			}
			v, err := s.store.AppendVersion(r.Context(), existing.ID, fields, author, models.ChangeImported, "replaced by re-upload of "+fp.FileName)
			if err != nil {
				respondFault(w, err)
				return
			}
			if err := s.storeFingerprint(r, existing.ID, fp); err != nil {
				respondFault(w, err)
				return
			}
			doc, err := s.store.GetDocument(r.Context(), existing.ID)
			if err != nil {
				respondFault(w, err)
				return
			}
			respondJSON(w, http.StatusOK, IngestResponse{
				Status:    "replaced",
				Document:  doc,
				Version:   v,
				Duplicate: &result,
			})
			return

		case duplicate.ActionKeepBoth:
			fp.FileName = duplicate.KeepBothName(fp.FileName, time.Now())
		}
	}

	doc, v, err := s.store.CreateDocument(r.Context(), fp.FileName, fields, author, models.ChangeImported)
	if err != nil {
		respondFault(w, err)
		return
	}
	if err := s.storeFingerprint(r, doc.ID, fp); err != nil {
		respondFault(w, err)
		return
	}

	resp := IngestResponse{Status: "created", Document: doc, Version: v}
	if result.IsDuplicate {
		resp.Duplicate = &result
	}
	respondJSON(w, http.StatusCreated, resp)
}

// handleCheckDuplicate runs detection without any side effects.
func (s *Server) handleCheckDuplicate(w http.ResponseWriter, r *http.Request) {
	fp, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := s.detectAgainstCorpus(r, fp)
	if err != nil {
		respondFault(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleListDocuments lists all documents with fingerprints attached.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.corpus(r)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDocumentID(w, r)
	if !ok {
		return
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// UpdateRequest carries an edited field set plus optional change notes.
type UpdateRequest struct {
	Fields      models.Fields `json:"fields"`
	ChangeNotes string        `json:"change_notes"`
}

// handleUpdateDocument appends an edited version.
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDocumentID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	author := auth.AuthorName(r.Context())
	v, err := s.store.AppendVersion(r.Context(), id, req.Fields, author, models.ChangeEdited, req.ChangeNotes)
	if err != nil {
		respondFault(w, err)
		return
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}

	respondJSON(w, http.StatusOK, IngestResponse{Status: "updated", Document: doc, Version: v})
}

// handleDeleteDocument removes the document cache entry and fingerprint.
// The version log is append-only and keeps its records.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDocumentID(w, r)
	if !ok {
		return
	}

	if err := s.fingerprints.Delete(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete fingerprint")
		return
	}
	if err := s.store.DeleteDocument(r.Context(), id); err != nil {
		respondFault(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// readUpload parses the multipart form and fingerprints the file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (models.Fingerprint, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "file too large or invalid form")
		return models.Fingerprint{}, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file provided")
		return models.Fingerprint{}, nil, false
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if !allowedExts[ext] {
		respondError(w, http.StatusBadRequest, "only .md, .txt, .json, and .csv files are allowed")
		return models.Fingerprint{}, nil, false
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read file")
		return models.Fingerprint{}, nil, false
	}

	lastModified := time.Now()
	if v := r.FormValue("last_modified"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			lastModified = t
		}
	}
	pageCount, _ := strconv.Atoi(r.FormValue("page_count"))

	fp, err := fingerprint.Generate(fingerprint.Input{
		FileName:     header.Filename,
		Size:         header.Size,
		LastModified: lastModified,
		Reader:       bytes.NewReader(content),
		Text:         string(content),
		PageCount:    pageCount,
	})
	if err != nil {
		respondFault(w, err)
		return models.Fingerprint{}, nil, false
	}

	return fp, content, true
}

// corpus returns all documents with their fingerprints joined in.
func (s *Server) corpus(r *http.Request) ([]models.Document, error) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		return nil, err
	}

	fps, err := s.fingerprints.ListAll(r.Context())
	if err != nil {
		return nil, err
	}

	for i := range docs {
		if fp, ok := fps[docs[i].ID]; ok {
			copied := fp
			docs[i].Fingerprint = &copied
		}
	}
	return docs, nil
}

// detectAgainstCorpus runs the cascade over all documents. The cascade
// itself needs the full corpus (rename and date rules look at every
// fingerprint), but above a size threshold the preview-vector index
// orders candidates so the fuzzy rule scans the most similar documents
// first.
func (s *Server) detectAgainstCorpus(r *http.Request, fp models.Fingerprint) (models.DuplicateResult, error) {
	docs, err := s.corpus(r)
	if err != nil {
		return models.DuplicateResult{}, err
	}

	if len(docs) > previewPrefilterMin && fp.ContentPreview != "" {
		vec := pgvector.NewVector(duplicate.PreviewVector(fp.ContentPreview))
		nearest, err := s.fingerprints.NearestByPreview(r.Context(), vec, previewPrefilterMin)
		if err != nil {
			return models.DuplicateResult{}, err
		}
		docs = frontloadCandidates(docs, nearest)
	}

	return s.detector.Detect(fp, docs)
}

// frontloadCandidates reorders docs so the ids in nearest come first, in
// nearest order, with the remainder keeping their original order.
func frontloadCandidates(docs []models.Document, nearest []uuid.UUID) []models.Document {
	byID := make(map[uuid.UUID]int, len(docs))
	for i := range docs {
		byID[docs[i].ID] = i
	}

	picked := make(map[uuid.UUID]bool, len(nearest))
	ordered := make([]models.Document, 0, len(docs))
	for _, id := range nearest {
		if i, ok := byID[id]; ok && !picked[id] {
			ordered = append(ordered, docs[i])
			picked[id] = true
		}
	}
	for i := range docs {
		if !picked[docs[i].ID] {
			ordered = append(ordered, docs[i])
		}
	}
	return ordered
}

func (s *Server) storeFingerprint(r *http.Request, docID uuid.UUID, fp models.Fingerprint) error {
	vec := pgvector.NewVector(duplicate.PreviewVector(fp.ContentPreview))
	return s.fingerprints.Upsert(r.Context(), docID, fp, vec)
}

// fieldsFromForm lifts optional metadata form values into a field set.
func fieldsFromForm(r *http.Request, textContent string) models.Fields {
	return models.Fields{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    models.Category(r.FormValue("category")),
		TextContent: textContent,
	}
}

func parseDocumentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "documentID")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return uuid.Nil, false
	}
	return id, true
}
