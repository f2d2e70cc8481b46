package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/doc-integrity/pkg/models"
)

// PostgresVersionRepository implements VersionRepository using PostgreSQL.
// The versions table carries a unique constraint on (document_id, version)
// so a lost race on version assignment surfaces as a storage error rather
// than silently corrupting the log.
type PostgresVersionRepository struct {
	db *sql.DB
}

// NewPostgresVersionRepository creates a new PostgresVersionRepository.
func NewPostgresVersionRepository(db *sql.DB) *PostgresVersionRepository {
	return &PostgresVersionRepository{db: db}
}

// Append inserts a new version snapshot. Snapshots are never updated or
// deleted afterwards.
func (r *PostgresVersionRepository) Append(ctx context.Context, version *models.DocumentVersion) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	if version.ChangedAt.IsZero() {
		version.ChangedAt = time.Now()
	}

	fields, err := json.Marshal(version.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO document_versions (id, document_id, version, fields, changed_by, changed_at, change_notes, change_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		version.ID,
		version.DocumentID,
		version.Version,
		fields,
		version.ChangedBy,
		version.ChangedAt,
		version.ChangeNotes,
		string(version.ChangeType),
	)

	return err
}

// GetByID retrieves a version snapshot by its ID.
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentVersion, error) {
	query := `
		SELECT id, document_id, version, fields, changed_by, changed_at, change_notes, change_type
		FROM document_versions
		WHERE id = $1
	`

	version, err := scanVersion(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return version, nil
}

// ListByDocument retrieves all versions for a document, newest first.
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.DocumentVersion, error) {
	query := `
		SELECT id, document_id, version, fields, changed_by, changed_at, change_notes, change_type
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []models.DocumentVersion
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *version)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return versions, nil
}

func scanVersion(row rowScanner) (*models.DocumentVersion, error) {
	version := &models.DocumentVersion{}
	var fields []byte
	var changeType string

	err := row.Scan(
		&version.ID,
		&version.DocumentID,
		&version.Version,
		&fields,
		&version.ChangedBy,
		&version.ChangedAt,
		&version.ChangeNotes,
		&changeType,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fields, &version.Fields); err != nil {
		return nil, err
	}
	version.ChangeType = models.ChangeType(changeType)

	return version, nil
}
