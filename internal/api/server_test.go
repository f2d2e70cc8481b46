package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/doc-integrity/internal/auth"
	"github.com/todmy/doc-integrity/internal/duplicate"
	"github.com/todmy/doc-integrity/internal/storage"
	"github.com/todmy/doc-integrity/internal/tampering"
	"github.com/todmy/doc-integrity/internal/version"
	"github.com/todmy/doc-integrity/pkg/models"
)

// stubAuthService accepts any "Bearer valid" token as the clerk user.
type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, email, password, displayName string) (*auth.User, error) {
	return &auth.User{ID: "u1", Email: email, DisplayName: displayName}, nil
}

func (stubAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return "valid", nil
}

func (stubAuthService) ValidateToken(token string) (*auth.Claims, error) {
	if token != "valid" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: "u1", Email: "clerk@example.com", DisplayName: "Records Clerk"}, nil
}

func newTestServer() *Server {
	documents := storage.NewMemoryDocumentRepository()
	versions := storage.NewMemoryVersionRepository()
	fingerprints := storage.NewMemoryFingerprintRepository()

	return NewServer(
		version.NewStore(documents, versions),
		documents,
		fingerprints,
		duplicate.NewDetector(duplicate.DefaultConfig()),
		tampering.NewAnalyzer(tampering.DefaultConfig()),
		stubAuthService{},
	)
}

func multipartUpload(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer valid")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func ingestFile(t *testing.T, handler http.Handler, fileName, content string, fields map[string]string) (*httptest.ResponseRecorder, IngestResponse) {
	t.Helper()

	body, contentType := multipartUpload(t, fileName, content, fields)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/documents/", body, contentType)

	var resp IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return rec, resp
}

func TestHealthIsPublic(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestDocumentRoutesRequireAuth(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestIngest_CreatesDocument(t *testing.T) {
	server := newTestServer()

	rec, resp := ingestFile(t, server.Handler(), "report.txt", "incident narrative", map[string]string{"title": "Incident Report"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Status != "created" || resp.Document == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Document.CurrentVersion != 1 {
		t.Errorf("expected version 1, got %d", resp.Document.CurrentVersion)
	}
	if resp.Version == nil || resp.Version.ChangeType != models.ChangeImported {
		t.Errorf("expected imported initial version, got %+v", resp.Version)
	}
	if resp.Document.LastModifiedBy != "Records Clerk" {
		t.Errorf("expected author from claims, got %q", resp.Document.LastModifiedBy)
	}
}

func TestIngest_DuplicateWithoutActionConflicts(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	if rec, _ := ingestFile(t, handler, "report.txt", "same bytes", nil); rec.Code != http.StatusCreated {
		t.Fatalf("first upload failed: %d", rec.Code)
	}

	rec, resp := ingestFile(t, handler, "copy.txt", "same bytes", nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unresolved duplicate, got %d", rec.Code)
	}
	if resp.Duplicate == nil || resp.Duplicate.MatchType != models.MatchExact {
		t.Errorf("expected exact duplicate details, got %+v", resp.Duplicate)
	}
}

func TestIngest_DuplicateSkip(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	_, first := ingestFile(t, handler, "report.txt", "same bytes", nil)

	rec, resp := ingestFile(t, handler, "copy.txt", "same bytes", map[string]string{"duplicate_action": "skip"})

	if rec.Code != http.StatusOK || resp.Status != "skipped" {
		t.Fatalf("expected skip resolution, got %d %+v", rec.Code, resp)
	}
	if resp.Document == nil || resp.Document.ID != first.Document.ID {
		t.Error("expected the existing document back")
	}
}

func TestIngest_DuplicateReplaceAppendsVersion(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	_, first := ingestFile(t, handler, "report.txt", "same bytes", nil)

	rec, resp := ingestFile(t, handler, "report.txt", "same bytes", map[string]string{"duplicate_action": "replace"})

	if rec.Code != http.StatusOK || resp.Status != "replaced" {
		t.Fatalf("expected replace resolution, got %d %+v", rec.Code, resp)
	}
	if resp.Document.ID != first.Document.ID {
		t.Error("replace must keep the same document")
	}
	if resp.Document.CurrentVersion != 2 {
		t.Errorf("expected version 2 after replace, got %d", resp.Document.CurrentVersion)
	}
}

func TestIngest_DuplicateKeepBothRenames(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	_, first := ingestFile(t, handler, "report.txt", "same bytes", nil)

	rec, resp := ingestFile(t, handler, "report.txt", "same bytes", map[string]string{"duplicate_action": "keep-both"})

	if rec.Code != http.StatusCreated || resp.Status != "created" {
		t.Fatalf("expected keep-both creation, got %d %+v", rec.Code, resp)
	}
	if resp.Document.ID == first.Document.ID {
		t.Error("keep-both must create a new document")
	}
	if resp.Document.FileName == "report.txt" {
		t.Error("keep-both must derive a distinct file name")
	}
}

func TestUpdateHistoryDiffRevert(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	_, created := ingestFile(t, handler, "report.txt", "original narrative", map[string]string{"title": "Original"})
	docID := created.Document.ID

	update := UpdateRequest{
		Fields:      models.Fields{Title: "Amended", TextContent: "amended narrative"},
		ChangeNotes: "amended after review",
	}
	body, _ := json.Marshal(update)
	rec := doRequest(t, handler, http.MethodPut, "/api/v1/documents/"+docID.String(), bytes.NewReader(body), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/documents/"+docID.String()+"/history", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history failed: %d", rec.Code)
	}
	var history []models.DocumentVersion
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 || history[0].Version != 2 {
		t.Fatalf("expected 2 versions newest first, got %+v", history)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/documents/"+docID.String()+"/diff?from=1&to=2", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("diff failed: %d %s", rec.Code, rec.Body.String())
	}
	var diff DiffResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &diff); err != nil {
		t.Fatalf("decode diff: %v", err)
	}
	if len(diff.Changes) == 0 {
		t.Error("expected changes between versions 1 and 2")
	}

	revertBody, _ := json.Marshal(RevertRequest{VersionID: history[1].ID})
	rec = doRequest(t, handler, http.MethodPost, "/api/v1/documents/"+docID.String()+"/revert", bytes.NewReader(revertBody), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("revert failed: %d %s", rec.Code, rec.Body.String())
	}
	var reverted IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reverted); err != nil {
		t.Fatalf("decode revert: %v", err)
	}
	if reverted.Version.Version != 3 {
		t.Errorf("expected revert to append version 3, got %d", reverted.Version.Version)
	}
	if reverted.Document.Fields.Title != "Original" {
		t.Errorf("expected reverted fields, got %+v", reverted.Document.Fields)
	}
}

func TestCheckDuplicate_NoSideEffects(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	ingestFile(t, handler, "report.txt", "same bytes", nil)

	body, contentType := multipartUpload(t, "copy.txt", "same bytes", nil)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/documents/check-duplicate", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("check failed: %d", rec.Code)
	}

	var result models.DuplicateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.MatchType != models.MatchExact {
		t.Errorf("expected exact match, got %+v", result)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/documents/", nil, "")
	var docs []models.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("check-duplicate must not create documents, got %d", len(docs))
	}
}

func TestFrontloadCandidates(t *testing.T) {
	a := models.Document{ID: uuid.New(), FileName: "a.txt"}
	b := models.Document{ID: uuid.New(), FileName: "b.txt"}
	c := models.Document{ID: uuid.New(), FileName: "c.txt"}

	docs := []models.Document{a, b, c}
	ordered := frontloadCandidates(docs, []uuid.UUID{c.ID, uuid.New(), c.ID, b.ID})

	if len(ordered) != 3 {
		t.Fatalf("expected all documents kept, got %d", len(ordered))
	}
	want := []string{"c.txt", "b.txt", "a.txt"}
	for i, name := range want {
		if ordered[i].FileName != name {
			t.Errorf("position %d: expected %s, got %s", i, name, ordered[i].FileName)
		}
	}
}

func TestDetectAgainstCorpus_UsesPreviewIndexOnLargeCorpus(t *testing.T) {
	documents := storage.NewMemoryDocumentRepository()
	versions := storage.NewMemoryVersionRepository()
	fingerprints := storage.NewMemoryFingerprintRepository()

	server := NewServer(
		version.NewStore(documents, versions),
		documents,
		fingerprints,
		duplicate.NewDetector(duplicate.DefaultConfig()),
		tampering.NewAnalyzer(tampering.DefaultConfig()),
		stubAuthService{},
	)

	ctx := context.Background()
	preview := strings.Repeat("shared preview text for the fuzzy content rule ", 3)

	for i := 0; i < previewPrefilterMin+5; i++ {
		doc := &models.Document{ID: uuid.New(), FileName: fmt.Sprintf("doc%02d.txt", i)}
		if err := documents.Create(ctx, doc); err != nil {
			t.Fatalf("create: %v", err)
		}
		fp := models.Fingerprint{
			FileName:       doc.FileName,
			ContentHash:    fmt.Sprintf("hash-%02d", i),
			ContentPreview: fmt.Sprintf("%s variant %02d", preview, i),
		}
		vec := pgvector.NewVector(duplicate.PreviewVector(fp.ContentPreview))
		if err := fingerprints.Upsert(ctx, doc.ID, fp, vec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	incoming := models.Fingerprint{
		FileName:       "incoming.txt",
		ContentHash:    "hash-incoming",
		ContentPreview: preview + " variant 03",
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	result, err := server.detectAgainstCorpus(req, incoming)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	if result.MatchType != models.MatchContent {
		t.Errorf("expected a fuzzy content match through the prefiltered corpus, got %+v", result)
	}
}

func TestPairAnalysisEndpoint(t *testing.T) {
	server := newTestServer()

	req := PairRequest{
		Before: models.AnalysisDocument{ID: "v1", TextContent: "Noel Johnson (witness, age 34) saw 12 digital photographs."},
		After:  models.AnalysisDocument{ID: "v2", TextContent: "Neil Johnson (witness, age 34) saw 8 digital photographs."},
	}
	body, _ := json.Marshal(req)

	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/analysis/pair", bytes.NewReader(body), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("pair analysis failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp PairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Contradictions) != 2 {
		t.Errorf("expected 2 contradictions, got %+v", resp.Contradictions)
	}
}

func TestCorpusAnalysisEndpoint(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	for i := 0; i < 2; i++ {
		name := fmt.Sprintf("report%d.txt", i)
		if rec, _ := ingestFile(t, handler, name, "narrative for "+name, nil); rec.Code != http.StatusCreated && rec.Code != http.StatusConflict {
			t.Fatalf("seed upload failed: %d", rec.Code)
		}
	}

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/analysis/corpus", bytes.NewReader([]byte(`{}`)), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("corpus analysis failed: %d %s", rec.Code, rec.Body.String())
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.AnalysisID == uuid.Nil {
		t.Error("expected an analysis id")
	}
	if report.RiskLevel == "" {
		t.Error("expected a risk level")
	}
}
