package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
)

const shareLinkColumns = `id, upload_id, role, token, expires_at, is_active, access_count, created_by, created_at, last_accessed`

// ShareLinkRepository persists shareable links. Resolve performs the
// access-count increment and recency stamp as one atomic UPDATE with the
// read, so concurrent resolutions never lose updates.
type ShareLinkRepository interface {
	Create(ctx context.Context, link models.ShareLink) (models.ShareLink, error)
	GetByToken(ctx context.Context, token string) (models.ShareLink, error)
	Resolve(ctx context.Context, token string, now time.Time) (models.ShareLink, error)
	ListByUpload(ctx context.Context, uploadID string) ([]models.ShareLink, error)
	SetActive(ctx context.Context, uploadID, linkID string, active bool) error
	Delete(ctx context.Context, uploadID, linkID string) error
}

type shareLinkRepository struct {
	db *sql.DB
}

func NewShareLinkRepository(db *sql.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

func (r *shareLinkRepository) Create(ctx context.Context, link models.ShareLink) (models.ShareLink, error) {
	const query = `
		INSERT INTO share_links (id, upload_id, role, token, expires_at, is_active, access_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
		RETURNING ` + shareLinkColumns

	link.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, query,
		link.ID, link.UploadID, link.Role, link.Token, link.ExpiresAt, link.IsActive, link.CreatedBy, link.CreatedAt)
	return scanShareLink(row)
}

// GetByToken fetches a link regardless of its active or expiry state.
// Used only to classify a failed Resolve into Inactive/Expired/NotFound.
func (r *shareLinkRepository) GetByToken(ctx context.Context, token string) (models.ShareLink, error) {
	const query = `SELECT ` + shareLinkColumns + ` FROM share_links WHERE token = $1`

	link, err := scanShareLink(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ShareLink{}, apperr.ErrNotFound
		}
		return models.ShareLink{}, errors.Wrap(err, "get share link")
	}
	return link, nil
}

// Resolve matches an active, unexpired link by token and, in the same
// statement, increments its access count and stamps last_accessed. The
// returned row is the post-increment view.
func (r *shareLinkRepository) Resolve(ctx context.Context, token string, now time.Time) (models.ShareLink, error) {
	const query = `
		UPDATE share_links
		SET access_count = access_count + 1, last_accessed = $2
		WHERE token = $1 AND is_active = TRUE AND (expires_at IS NULL OR expires_at >= $2)
		RETURNING ` + shareLinkColumns

	link, err := scanShareLink(r.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ShareLink{}, apperr.ErrNotFound
		}
		return models.ShareLink{}, errors.Wrap(err, "resolve share link")
	}
	return link, nil
}

func (r *shareLinkRepository) ListByUpload(ctx context.Context, uploadID string) ([]models.ShareLink, error) {
	const query = `
		SELECT ` + shareLinkColumns + `
		FROM share_links
		WHERE upload_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, uploadID)
	if err != nil {
		return nil, errors.Wrap(err, "list share links")
	}
	defer rows.Close()

	var links []models.ShareLink
	for rows.Next() {
		link, err := scanShareLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list share links")
	}
	return links, nil
}

func (r *shareLinkRepository) SetActive(ctx context.Context, uploadID, linkID string, active bool) error {
	const query = `UPDATE share_links SET is_active = $3 WHERE id = $1 AND upload_id = $2`
	return execExpectingRow(ctx, r.db, query, "toggle share link", linkID, uploadID, active)
}

func (r *shareLinkRepository) Delete(ctx context.Context, uploadID, linkID string) error {
	const query = `DELETE FROM share_links WHERE id = $1 AND upload_id = $2`
	return execExpectingRow(ctx, r.db, query, "delete share link", linkID, uploadID)
}

func scanShareLink(scanner rowScanner) (models.ShareLink, error) {
	var (
		link         models.ShareLink
		expiresAt    sql.NullTime
		lastAccessed sql.NullTime
	)
	if err := scanner.Scan(
		&link.ID,
		&link.UploadID,
		&link.Role,
		&link.Token,
		&expiresAt,
		&link.IsActive,
		&link.AccessCount,
		&link.CreatedBy,
		&link.CreatedAt,
		&lastAccessed,
	); err != nil {
		return models.ShareLink{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		link.ExpiresAt = &t
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		link.LastAccessed = &t
	}
	return link, nil
}
