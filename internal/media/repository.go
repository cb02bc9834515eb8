package media

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

const repoTimeout = 5 * time.Second

const assetColumns = `id, stored_name, original_name, mime_type, size_bytes, path, tags, created_at, updated_at`

// Repository stores media metadata in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new media repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for a freshly stored blob.
func (r *Repository) Create(ctx context.Context, asset Asset) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	if asset.Tags == nil {
		asset.Tags = []string{}
	}

	query := `
INSERT INTO media (id, stored_name, original_name, mime_type, size_bytes, path, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + assetColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		asset.ID,
		asset.StoredName,
		asset.OriginalName,
		asset.MimeType,
		asset.SizeBytes,
		asset.Path,
		asset.Tags,
	)

	stored, err := scanAsset(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Asset{}, ErrStoredNameTaken
		}
		return Asset{}, fmt.Errorf("create media: %w", err)
	}
	return stored, nil
}

// FindAll returns every record, newest first.
func (r *Repository) FindAll(ctx context.Context) ([]Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + assetColumns + ` FROM media ORDER BY created_at DESC, id DESC;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return collectAssets(rows)
}

// FindByTag returns records carrying the exact tag name, newest first.
func (r *Repository) FindByTag(ctx context.Context, name string) ([]Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + assetColumns + `
FROM media
WHERE tags @> ARRAY[$1::text]
ORDER BY created_at DESC, id DESC;`

	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("list media by tag: %w", err)
	}
	return collectAssets(rows)
}

// FindByID fetches a single record.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + assetColumns + ` FROM media WHERE id = $1;`

	asset, err := scanAsset(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrMediaNotFound
		}
		return Asset{}, fmt.Errorf("get media: %w", err)
	}
	return asset, nil
}

// UpdateTags replaces the whole tag list of a record.
func (r *Repository) UpdateTags(ctx context.Context, id uuid.UUID, tags []string) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if tags == nil {
		tags = []string{}
	}

	query := `
UPDATE media
SET tags = $2, updated_at = now()
WHERE id = $1
RETURNING ` + assetColumns + `;`

	asset, err := scanAsset(r.pool.QueryRow(ctx, query, id, tags))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrMediaNotFound
		}
		return Asset{}, fmt.Errorf("update media tags: %w", err)
	}
	return asset, nil
}

// Delete removes a record and returns it so the caller can locate the blob.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `DELETE FROM media WHERE id = $1 RETURNING ` + assetColumns + `;`

	asset, err := scanAsset(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrMediaNotFound
		}
		return Asset{}, fmt.Errorf("delete media: %w", err)
	}
	return asset, nil
}

// CountByTag counts records whose tag list contains name.
func (r *Repository) CountByTag(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM media WHERE tags @> ARRAY[$1::text];`, name).Scan(&count); err != nil {
		return 0, fmt.Errorf("count media by tag: %w", err)
	}
	return count, nil
}

// CountByTags counts usage for several names in one round trip. Every
// requested name is present in the result.
func (r *Repository) CountByTags(ctx context.Context, names []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(names))
	if len(names) == 0 {
		return counts, nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT n.name, count(m.id)
FROM unnest($1::text[]) AS n(name)
LEFT JOIN media m ON m.tags @> ARRAY[n.name]
GROUP BY n.name;`

	rows, err := r.pool.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("count media by tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag counts: %w", err)
	}
	return counts, nil
}

// ReplaceTag rewrites from to to on every matching record in one statement.
// The renamed tag takes the position of from unless to is already on the
// record: then the two merge at whichever came first, so [to z from] becomes
// [to z] rather than [z to].
func (r *Repository) ReplaceTag(ctx context.Context, from, to string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE media m
SET tags = (
        SELECT array_agg(u.tag ORDER BY u.pos)
        FROM (
            SELECT CASE WHEN e.tag = $1::text THEN $2::text ELSE e.tag END AS tag,
                   min(e.ord) AS pos
            FROM unnest(m.tags) WITH ORDINALITY AS e(tag, ord)
            GROUP BY 1
        ) u
    ),
    updated_at = now()
WHERE m.tags @> ARRAY[$1::text];`

	tag, err := r.pool.Exec(ctx, query, from, to)
	if err != nil {
		return 0, fmt.Errorf("rename media tag: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RemoveTag pulls every occurrence of name from every record.
func (r *Repository) RemoveTag(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE media
SET tags = array_remove(tags, $1::text), updated_at = now()
WHERE tags @> ARRAY[$1::text];`

	tag, err := r.pool.Exec(ctx, query, name)
	if err != nil {
		return 0, fmt.Errorf("remove media tag: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StoredNames lists every blob name referenced by a record.
func (r *Repository) StoredNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT stored_name FROM media;`)
	if err != nil {
		return nil, fmt.Errorf("list stored names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan stored names: %w", err)
	}
	return names, nil
}

func scanAsset(row pgx.Row) (Asset, error) {
	var asset Asset
	err := row.Scan(
		&asset.ID,
		&asset.StoredName,
		&asset.OriginalName,
		&asset.MimeType,
		&asset.SizeBytes,
		&asset.Path,
		&asset.Tags,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if asset.Tags == nil {
		asset.Tags = []string{}
	}
	return asset, err
}

func collectAssets(rows pgx.Rows) ([]Asset, error) {
	defer rows.Close()

	assets := make([]Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	return assets, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
