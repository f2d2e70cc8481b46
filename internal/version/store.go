// Package version maintains the append-only revision history of logical
// documents. The log is the source of truth: the cached Document is
// always derivable by replaying the latest snapshot, and history is
// never rewritten, only appended to.
package version

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/doc-integrity/internal/fault"
	"github.com/todmy/doc-integrity/internal/storage"
	"github.com/todmy/doc-integrity/pkg/models"
)

// Store coordinates the document cache and the version log. Appends and
// reverts against the same document are serialized by a per-document
// lock, because version assignment is a read-then-write sequence.
// Operations on distinct documents do not contend.
type Store struct {
	documents storage.DocumentRepository
	versions  storage.VersionRepository

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewStore creates a version store over the given repositories.
func NewStore(documents storage.DocumentRepository, versions storage.VersionRepository) *Store {
	return &Store{
		documents: documents,
		versions:  versions,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) lockDocument(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// CreateDocument creates a new logical document at version 1. The change
// type is created for manual entry and imported for ingestion; anything
// else is rejected.
func (s *Store) CreateDocument(ctx context.Context, fileName string, fields models.Fields, createdBy string, changeType models.ChangeType) (*models.Document, *models.DocumentVersion, error) {
	if fileName == "" {
		return nil, nil, fault.New(fault.Validation, "file name is required")
	}
	if changeType == "" {
		changeType = models.ChangeCreated
	}
	if changeType != models.ChangeCreated && changeType != models.ChangeImported {
		return nil, nil, fault.New(fault.Validation, "invalid change type %q for document creation", changeType)
	}

	now := time.Now()
	doc := &models.Document{
		ID:             uuid.New(),
		FileName:       fileName,
		Fields:         fields,
		CurrentVersion: 1,
		UploadedAt:     now,
		LastModified:   now,
		LastModifiedBy: createdBy,
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, nil, fault.Wrap(fault.Storage, err, "create document")
	}

	v := &models.DocumentVersion{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		Version:    1,
		Fields:     fields,
		ChangedBy:  createdBy,
		ChangedAt:  now,
		ChangeType: changeType,
	}

	if err := s.versions.Append(ctx, v); err != nil {
		return nil, nil, fault.Wrap(fault.Storage, err, "append initial version")
	}

	return doc, v, nil
}

// AppendVersion stores a new snapshot for the document and mirrors it
// onto the cached Document. Version numbers stay gapless and increasing.
func (s *Store) AppendVersion(ctx context.Context, documentID uuid.UUID, fields models.Fields, changedBy string, changeType models.ChangeType, notes string) (*models.DocumentVersion, error) {
	if changeType == "" {
		changeType = models.ChangeEdited
	}

	lock := s.lockDocument(documentID)
	lock.Lock()
	defer lock.Unlock()

	return s.appendLocked(ctx, documentID, fields, changedBy, changeType, notes)
}

func (s *Store) appendLocked(ctx context.Context, documentID uuid.UUID, fields models.Fields, changedBy string, changeType models.ChangeType, notes string) (*models.DocumentVersion, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "load document")
	}
	if doc == nil {
		return nil, fault.New(fault.NotFound, "document %s not found", documentID)
	}

	now := time.Now()
	v := &models.DocumentVersion{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Version:     doc.CurrentVersion + 1,
		Fields:      fields,
		ChangedBy:   changedBy,
		ChangedAt:   now,
		ChangeNotes: notes,
		ChangeType:  changeType,
	}

	if err := s.versions.Append(ctx, v); err != nil {
		return nil, fault.Wrap(fault.Storage, err, "append version")
	}

	doc.Fields = fields
	doc.CurrentVersion = v.Version
	doc.LastModified = now
	doc.LastModifiedBy = changedBy
	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, fault.Wrap(fault.Storage, err, "update document cache")
	}

	return v, nil
}

// History returns the document's versions, newest first.
func (s *Store) History(ctx context.Context, documentID uuid.UUID) ([]models.DocumentVersion, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "load document")
	}
	if doc == nil {
		return nil, fault.New(fault.NotFound, "document %s not found", documentID)
	}

	versions, err := s.versions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "list versions")
	}
	return versions, nil
}

// GetDocument returns the cached document state.
func (s *Store) GetDocument(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "load document")
	}
	if doc == nil {
		return nil, fault.New(fault.NotFound, "document %s not found", documentID)
	}
	return doc, nil
}

// GetVersion returns one version snapshot.
func (s *Store) GetVersion(ctx context.Context, versionID uuid.UUID) (*models.DocumentVersion, error) {
	v, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "load version")
	}
	if v == nil {
		return nil, fault.New(fault.NotFound, "version %s not found", versionID)
	}
	return v, nil
}

// Revert appends a new version whose fields copy the target version's.
// History stays monotonic: reverting never deletes or rewrites earlier
// snapshots.
func (s *Store) Revert(ctx context.Context, documentID, targetVersionID uuid.UUID, revertedBy string) (*models.DocumentVersion, error) {
	lock := s.lockDocument(documentID)
	lock.Lock()
	defer lock.Unlock()

	target, err := s.versions.GetByID(ctx, targetVersionID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "load target version")
	}
	if target == nil {
		return nil, fault.New(fault.NotFound, "version %s not found", targetVersionID)
	}
	if target.DocumentID != documentID {
		return nil, fault.New(fault.Validation, "version %s belongs to a different document", targetVersionID)
	}

	notes := fmt.Sprintf("Reverted to version %d", target.Version)
	return s.appendLocked(ctx, documentID, target.Fields, revertedBy, models.ChangeEdited, notes)
}

// DeleteDocument removes the cached document and releases its lock. The
// version log keeps its records.
func (s *Store) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	lock := s.lockDocument(documentID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.documents.Delete(ctx, documentID); err != nil {
		return fault.Wrap(fault.Storage, err, "delete document")
	}

	s.mu.Lock()
	delete(s.locks, documentID)
	s.mu.Unlock()
	return nil
}

// Rebuild recomputes the cached Document from the version log alone and
// writes it back. It exists to demonstrate, and restore, the invariant
// that the log is the sole source of truth.
func (s *Store) Rebuild(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	lock := s.lockDocument(documentID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "load document")
	}
	if doc == nil {
		return nil, fault.New(fault.NotFound, "document %s not found", documentID)
	}

	versions, err := s.versions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fault.Wrap(fault.Storage, err, "list versions")
	}
	if len(versions) == 0 {
		return nil, fault.New(fault.NotFound, "document %s has no versions", documentID)
	}

	latest := versions[0]
	doc.Fields = latest.Fields
	doc.CurrentVersion = latest.Version
	doc.LastModified = latest.ChangedAt
	doc.LastModifiedBy = latest.ChangedBy

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, fault.Wrap(fault.Storage, err, "update document cache")
	}
	return doc, nil
}
