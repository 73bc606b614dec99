package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
)

const uploadColumns = `id, owner_id, filename, size_bytes, row_count, column_count, created_at`

type UploadRepository interface {
	Create(ctx context.Context, upload models.Upload) (models.Upload, error)
	GetByID(ctx context.Context, uploadID string) (models.Upload, error)
	GetOwned(ctx context.Context, ownerID, uploadID string) (models.Upload, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Upload, error)
	Delete(ctx context.Context, ownerID, uploadID string) error
}

type uploadRepository struct {
	db *sql.DB
}

func NewUploadRepository(db *sql.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, upload models.Upload) (models.Upload, error) {
	const query = `
		INSERT INTO uploads (id, owner_id, filename, size_bytes, row_count, column_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + uploadColumns

	upload.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, query,
		upload.ID, upload.OwnerID, upload.Filename, upload.SizeBytes, upload.RowCount, upload.ColumnCount, upload.CreatedAt)
	return scanUpload(row)
}

func (r *uploadRepository) GetByID(ctx context.Context, uploadID string) (models.Upload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM uploads WHERE id = $1`

	upload, err := scanUpload(r.db.QueryRowContext(ctx, query, uploadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Upload{}, apperr.ErrNotFound
		}
		return models.Upload{}, errors.Wrap(err, "get upload")
	}
	return upload, nil
}

func (r *uploadRepository) GetOwned(ctx context.Context, ownerID, uploadID string) (models.Upload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM uploads WHERE id = $1 AND owner_id = $2`

	upload, err := scanUpload(r.db.QueryRowContext(ctx, query, uploadID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Upload{}, apperr.ErrNotFound
		}
		return models.Upload{}, errors.Wrap(err, "get owned upload")
	}
	return upload, nil
}

func (r *uploadRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Upload, error) {
	const query = `
		SELECT ` + uploadColumns + `
		FROM uploads
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "list uploads")
	}
	defer rows.Close()

	var uploads []models.Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list uploads")
	}
	return uploads, nil
}

func (r *uploadRepository) Delete(ctx context.Context, ownerID, uploadID string) error {
	const query = `DELETE FROM uploads WHERE id = $1 AND owner_id = $2`
	return execExpectingRow(ctx, r.db, query, "delete upload", uploadID, ownerID)
}

func scanUpload(scanner rowScanner) (models.Upload, error) {
	var upload models.Upload
	if err := scanner.Scan(
		&upload.ID,
		&upload.OwnerID,
		&upload.Filename,
		&upload.SizeBytes,
		&upload.RowCount,
		&upload.ColumnCount,
		&upload.CreatedAt,
	); err != nil {
		return models.Upload{}, err
	}
	return upload, nil
}
