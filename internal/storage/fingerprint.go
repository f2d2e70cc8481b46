package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/doc-integrity/pkg/models"
)

// PostgresFingerprintRepository implements FingerprintRepository using
// PostgreSQL with pgvector. The preview_vector column holds the hashed
// bag-of-words vector of the content preview.
type PostgresFingerprintRepository struct {
	db *sql.DB
}

// NewPostgresFingerprintRepository creates a new PostgresFingerprintRepository.
func NewPostgresFingerprintRepository(db *sql.DB) *PostgresFingerprintRepository {
	return &PostgresFingerprintRepository{db: db}
}

// Upsert stores or replaces a document's fingerprint.
func (r *PostgresFingerprintRepository) Upsert(ctx context.Context, documentID uuid.UUID, fp models.Fingerprint, preview pgvector.Vector) error {
	query := `
		INSERT INTO fingerprints (document_id, file_name, file_size, content_hash, page_count, first_page_hash, last_modified, content_preview, preview_vector, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (document_id) DO UPDATE
		SET file_name = $2, file_size = $3, content_hash = $4, page_count = $5, first_page_hash = $6, last_modified = $7, content_preview = $8, preview_vector = $9
	`

	_, err := r.db.ExecContext(ctx, query,
		documentID,
		fp.FileName,
		fp.FileSize,
		fp.ContentHash,
		fp.PageCount,
		fp.FirstPageHash,
		fp.LastModified,
		fp.ContentPreview,
		preview,
		time.Now(),
	)

	return err
}

// GetByHash retrieves the document carrying the given content hash.
func (r *PostgresFingerprintRepository) GetByHash(ctx context.Context, contentHash string) (uuid.UUID, *models.Fingerprint, error) {
	query := `
		SELECT document_id, file_name, file_size, content_hash, page_count, first_page_hash, last_modified, content_preview
		FROM fingerprints
		WHERE content_hash = $1
	`

	var documentID uuid.UUID
	fp := &models.Fingerprint{}
	err := r.db.QueryRowContext(ctx, query, contentHash).Scan(
		&documentID,
		&fp.FileName,
		&fp.FileSize,
		&fp.ContentHash,
		&fp.PageCount,
		&fp.FirstPageHash,
		&fp.LastModified,
		&fp.ContentPreview,
	)

	if err == sql.ErrNoRows {
		return uuid.Nil, nil, nil
	}
	if err != nil {
		return uuid.Nil, nil, err
	}

	return documentID, fp, nil
}

// ListAll returns every stored fingerprint keyed by document ID.
func (r *PostgresFingerprintRepository) ListAll(ctx context.Context) (map[uuid.UUID]models.Fingerprint, error) {
	query := `
		SELECT document_id, file_name, file_size, content_hash, page_count, first_page_hash, last_modified, content_preview
		FROM fingerprints
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.Fingerprint)
	for rows.Next() {
		var id uuid.UUID
		var fp models.Fingerprint
		if err := rows.Scan(
			&id,
			&fp.FileName,
			&fp.FileSize,
			&fp.ContentHash,
			&fp.PageCount,
			&fp.FirstPageHash,
			&fp.LastModified,
			&fp.ContentPreview,
		); err != nil {
			return nil, err
		}
		out[id] = fp
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// NearestByPreview returns the documents whose preview vectors are
// closest to the given one by cosine distance. This is a prefilter: the
// cascade still decides whether any candidate is a duplicate.
func (r *PostgresFingerprintRepository) NearestByPreview(ctx context.Context, preview pgvector.Vector, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT document_id
		FROM fingerprints
		ORDER BY preview_vector <=> $1
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, preview, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// Delete removes a document's fingerprint.
func (r *PostgresFingerprintRepository) Delete(ctx context.Context, documentID uuid.UUID) error {
	query := `DELETE FROM fingerprints WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, query, documentID)
	return err
}
