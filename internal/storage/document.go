package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/doc-integrity/pkg/models"
)

// PostgresDocumentRepository implements DocumentRepository using PostgreSQL.
type PostgresDocumentRepository struct {
	db *sql.DB
}

// NewPostgresDocumentRepository creates a new PostgresDocumentRepository.
func NewPostgresDocumentRepository(db *sql.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

// Create inserts a new document into the database.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	now := time.Now()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	if doc.LastModified.IsZero() {
		doc.LastModified = now
	}

	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (id, file_name, fields, current_version, uploaded_at, last_modified, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID,
		doc.FileName,
		fields,
		doc.CurrentVersion,
		doc.UploadedAt,
		doc.LastModified,
		doc.LastModifiedBy,
	)

	return err
}

// GetByID retrieves a document by its ID.
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `
		SELECT id, file_name, fields, current_version, uploaded_at, last_modified, last_modified_by
		FROM documents
		WHERE id = $1
	`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List retrieves all documents ordered by file name.
func (r *PostgresDocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	query := `
		SELECT id, file_name, fields, current_version, uploaded_at, last_modified, last_modified_by
		FROM documents
		ORDER BY file_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, *doc)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return documents, nil
}

// Update mirrors a freshly appended version onto the cached document.
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET file_name = $2, fields = $3, current_version = $4, last_modified = $5, last_modified_by = $6
		WHERE id = $1
	`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID,
		doc.FileName,
		fields,
		doc.CurrentVersion,
		doc.LastModified,
		doc.LastModifiedBy,
	)

	return err
}

// Delete removes a document from the database.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	doc := &models.Document{}
	var fields []byte

	err := row.Scan(
		&doc.ID,
		&doc.FileName,
		&fields,
		&doc.CurrentVersion,
		&doc.UploadedAt,
		&doc.LastModified,
		&doc.LastModifiedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fields, &doc.Fields); err != nil {
		return nil, err
	}

	return doc, nil
}
