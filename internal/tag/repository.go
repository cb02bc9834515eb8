package tag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

const tagColumns = `id, name, slug, media_count, created_at, updated_at`

// Repository persists tags in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a tag repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a tag; a case-insensitive duplicate yields ErrTagExists.
func (r *Repository) Create(ctx context.Context, name string) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	name = CanonicalName(name)

	query := `
INSERT INTO tags (id, name, slug)
VALUES ($1, $2, $3)
RETURNING ` + tagColumns + `;`

	tag, err := scanTag(r.pool.QueryRow(ctx, query, uuid.New(), name, Slugify(name)))
	if err != nil {
		if isUniqueViolation(err) {
			return Tag{}, ErrTagExists
		}
		return Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// Update renames a tag and recomputes its slug.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name string) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	name = CanonicalName(name)

	query := `
UPDATE tags
SET name = $2, slug = $3, updated_at = now()
WHERE id = $1
RETURNING ` + tagColumns + `;`

	tag, err := scanTag(r.pool.QueryRow(ctx, query, id, name, Slugify(name)))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Tag{}, ErrTagNotFound
		case isUniqueViolation(err):
			return Tag{}, ErrTagExists
		}
		return Tag{}, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete removes a tag and returns the removed row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := scanTag(r.pool.QueryRow(ctx, `DELETE FROM tags WHERE id = $1 RETURNING `+tagColumns+`;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, fmt.Errorf("delete tag: %w", err)
	}
	return tag, nil
}

// FindByID fetches a single tag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := scanTag(r.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// FindByName looks a tag up case-insensitively.
func (r *Repository) FindByName(ctx context.Context, name string) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := scanTag(r.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE lower(name) = $1;`, CanonicalName(name)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, fmt.Errorf("get tag by name: %w", err)
	}
	return tag, nil
}

// FindAll returns every tag sorted by name.
func (r *Repository) FindAll(ctx context.Context) ([]Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

// SetMediaCount stores a refreshed usage count in the cached column.
func (r *Repository) SetMediaCount(ctx context.Context, id uuid.UUID, count int64) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE tags SET media_count = $2 WHERE id = $1;`, id, count)
	if err != nil {
		return fmt.Errorf("set tag media count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTagNotFound
	}
	return nil
}

func scanTag(row pgx.Row) (Tag, error) {
	var tag Tag
	err := row.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.MediaCount, &tag.CreatedAt, &tag.UpdatedAt)
	return tag, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
