// Package storage holds the repositories behind the version store. The
// engine itself is storage-agnostic: anything that keeps one immutable
// record per (document, version) and a latest-version index satisfies
// these interfaces. Postgres implementations live alongside an in-memory
// one used for library embedding and tests.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/doc-integrity/pkg/models"
)

// DocumentRepository persists the read-optimized document cache.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// VersionRepository persists the append-only version log. Versions are
// only ever appended, never rewritten.
type VersionRepository interface {
	Append(ctx context.Context, version *models.DocumentVersion) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentVersion, error)
	// ListByDocument returns a document's versions newest first.
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.DocumentVersion, error)
}

// FingerprintRepository indexes fingerprints for duplicate candidate
// lookup. The preview vector is a hashed bag-of-words representation of
// the content preview; nearest-neighbour search over it narrows the
// corpus before the exact cascade runs.
type FingerprintRepository interface {
	Upsert(ctx context.Context, documentID uuid.UUID, fp models.Fingerprint, preview pgvector.Vector) error
	GetByHash(ctx context.Context, contentHash string) (uuid.UUID, *models.Fingerprint, error)
	ListAll(ctx context.Context) (map[uuid.UUID]models.Fingerprint, error)
	NearestByPreview(ctx context.Context, preview pgvector.Vector, limit int) ([]uuid.UUID, error)
	Delete(ctx context.Context, documentID uuid.UUID) error
}
