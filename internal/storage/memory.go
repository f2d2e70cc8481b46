package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/doc-integrity/pkg/models"
)

// In-memory repositories back library embedding and tests. The version
// log is the source of truth and the document map the derived cache,
// mirroring the Postgres layout.

// MemoryDocumentRepository implements DocumentRepository in process memory.
type MemoryDocumentRepository struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]models.Document
}

// NewMemoryDocumentRepository creates an empty in-memory document repository.
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{documents: make(map[uuid.UUID]models.Document)}
}

// Create inserts a document into the cache.
func (m *MemoryDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = *doc
	return nil
}

// GetByID returns a copy of the document, or nil when absent.
func (m *MemoryDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

// List returns all documents ordered by file name.
func (m *MemoryDocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]models.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].FileName < docs[j].FileName })
	return docs, nil
}

// Update replaces the cached document.
func (m *MemoryDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = *doc
	return nil
}

// Delete removes a document from the cache.
func (m *MemoryDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	return nil
}

// MemoryVersionRepository implements VersionRepository in process memory.
type MemoryVersionRepository struct {
	mu    sync.RWMutex
	byDoc map[uuid.UUID][]models.DocumentVersion
	byID  map[uuid.UUID]models.DocumentVersion
}

// NewMemoryVersionRepository creates an empty in-memory version log.
func NewMemoryVersionRepository() *MemoryVersionRepository {
	return &MemoryVersionRepository{
		byDoc: make(map[uuid.UUID][]models.DocumentVersion),
		byID:  make(map[uuid.UUID]models.DocumentVersion),
	}
}

// Append adds a version snapshot to the log.
func (m *MemoryVersionRepository) Append(ctx context.Context, version *models.DocumentVersion) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byDoc[version.DocumentID] = append(m.byDoc[version.DocumentID], *version)
	m.byID[version.ID] = *version
	return nil
}

// GetByID returns a version snapshot by id, or nil when absent.
func (m *MemoryVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	version, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &version, nil
}

// ListByDocument returns a document's versions newest first.
func (m *MemoryVersionRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.DocumentVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := make([]models.DocumentVersion, len(m.byDoc[documentID]))
	copy(versions, m.byDoc[documentID])
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version > versions[j].Version })
	return versions, nil
}

// MemoryFingerprintRepository implements FingerprintRepository in process
// memory. The preview vector is ignored here; nearest-neighbour
// prefiltering is a Postgres concern and the in-memory corpus is small
// enough for the cascade to scan directly.
type MemoryFingerprintRepository struct {
	mu           sync.RWMutex
	fingerprints map[uuid.UUID]models.Fingerprint
}

// NewMemoryFingerprintRepository creates an empty in-memory fingerprint index.
func NewMemoryFingerprintRepository() *MemoryFingerprintRepository {
	return &MemoryFingerprintRepository{fingerprints: make(map[uuid.UUID]models.Fingerprint)}
}

// Upsert stores a document's fingerprint.
func (m *MemoryFingerprintRepository) Upsert(ctx context.Context, documentID uuid.UUID, fp models.Fingerprint, preview pgvector.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fingerprints[documentID] = fp
	return nil
}

// GetByHash returns the document holding the given content hash.
func (m *MemoryFingerprintRepository) GetByHash(ctx context.Context, contentHash string) (uuid.UUID, *models.Fingerprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, fp := range m.fingerprints {
		if fp.ContentHash == contentHash {
			found := fp
			return id, &found, nil
		}
	}
	return uuid.Nil, nil, nil
}

// ListAll returns a copy of every stored fingerprint keyed by document id.
func (m *MemoryFingerprintRepository) ListAll(ctx context.Context) (map[uuid.UUID]models.Fingerprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[uuid.UUID]models.Fingerprint, len(m.fingerprints))
	for id, fp := range m.fingerprints {
		out[id] = fp
	}
	return out, nil
}

// NearestByPreview returns every fingerprinted document id in stable order.
func (m *MemoryFingerprintRepository) NearestByPreview(ctx context.Context, preview pgvector.Vector, limit int) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.fingerprints))
	for id := range m.fingerprints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Delete removes a document's fingerprint.
func (m *MemoryFingerprintRepository) Delete(ctx context.Context, documentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fingerprints, documentID)
	return nil
}
