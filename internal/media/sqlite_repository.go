package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const hasTagClause = "EXISTS (SELECT 1 FROM json_each(media.tags) WHERE json_each.value = ?)"

type mediaRow struct {
	ID           uuid.UUID `gorm:"primaryKey;type:text"`
	StoredName   string    `gorm:"uniqueIndex;not null"`
	OriginalName string    `gorm:"not null"`
	MimeType     string    `gorm:"not null"`
	SizeBytes    int64     `gorm:"not null"`
	Path         string    `gorm:"not null"`
	Tags         []string  `gorm:"serializer:json;not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (mediaRow) TableName() string { return "media" }

func (r mediaRow) asset() Asset {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return Asset{
		ID:           r.ID,
		StoredName:   r.StoredName,
		OriginalName: r.OriginalName,
		MimeType:     r.MimeType,
		SizeBytes:    r.SizeBytes,
		Path:         r.Path,
		Tags:         tags,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// MigrateSQLite creates or updates the media table.
func MigrateSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(&mediaRow{}); err != nil {
		return fmt.Errorf("migrate media table: %w", err)
	}
	return nil
}

// SQLiteRepository stores media metadata in an embedded SQLite database.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository builds a repository on an open gorm handle.
func NewSQLiteRepository(db *gorm.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, asset Asset) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	row := mediaRow{
		ID:           asset.ID,
		StoredName:   asset.StoredName,
		OriginalName: asset.OriginalName,
		MimeType:     asset.MimeType,
		SizeBytes:    asset.SizeBytes,
		Path:         asset.Path,
		Tags:         asset.Tags,
	}
	if row.Tags == nil {
		row.Tags = []string{}
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return Asset{}, ErrStoredNameTaken
		}
		return Asset{}, fmt.Errorf("create media: %w", err)
	}
	return row.asset(), nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context) ([]Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var rows []mediaRow
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return toAssets(rows), nil
}

func (r *SQLiteRepository) FindByTag(ctx context.Context, name string) ([]Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var rows []mediaRow
	err := r.db.WithContext(ctx).
		Where(hasTagClause, name).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list media by tag: %w", err)
	}
	return toAssets(rows), nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id uuid.UUID) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var row mediaRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Asset{}, ErrMediaNotFound
		}
		return Asset{}, fmt.Errorf("get media: %w", err)
	}
	return row.asset(), nil
}

func (r *SQLiteRepository) UpdateTags(ctx context.Context, id uuid.UUID, tags []string) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if tags == nil {
		tags = []string{}
	}

	var row mediaRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		row.Tags = tags
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Asset{}, ErrMediaNotFound
		}
		return Asset{}, fmt.Errorf("update media tags: %w", err)
	}
	return row.asset(), nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var row mediaRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Asset{}, ErrMediaNotFound
		}
		return Asset{}, fmt.Errorf("delete media: %w", err)
	}
	return row.asset(), nil
}

func (r *SQLiteRepository) CountByTag(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).Model(&mediaRow{}).Where(hasTagClause, name).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count media by tag: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) CountByTags(ctx context.Context, names []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(names))
	if len(names) == 0 {
		return counts, nil
	}
	for _, name := range names {
		counts[name] = 0
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var rows []struct {
		Name  string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Raw(`SELECT j.value AS name, count(DISTINCT media.id) AS count
FROM media, json_each(media.tags) AS j
WHERE j.value IN ?
GROUP BY j.value`, names).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count media by tags: %w", err)
	}
	for _, row := range rows {
		counts[row.Name] = row.Count
	}
	return counts, nil
}

// ReplaceTag applies the rename to every matching record inside one transaction.
// Merging follows renameTag: a record already carrying to keeps it at its
// earlier position and loses from.
func (r *SQLiteRepository) ReplaceTag(ctx context.Context, from, to string) (int64, error) {
	n, err := r.rewriteTags(ctx, from, func(tags []string) ([]string, bool) {
		return renameTag(tags, from, to)
	})
	if err != nil {
		return 0, fmt.Errorf("rename media tag: %w", err)
	}
	return n, nil
}

// RemoveTag pulls name from every matching record inside one transaction.
func (r *SQLiteRepository) RemoveTag(ctx context.Context, name string) (int64, error) {
	n, err := r.rewriteTags(ctx, name, func(tags []string) ([]string, bool) {
		return removeTag(tags, name)
	})
	if err != nil {
		return 0, fmt.Errorf("remove media tag: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) rewriteTags(ctx context.Context, match string, rewrite func([]string) ([]string, bool)) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []mediaRow
		if err := tx.Where(hasTagClause, match).Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			tags, ok := rewrite(rows[i].Tags)
			if !ok {
				continue
			}
			rows[i].Tags = tags
			if err := tx.Save(&rows[i]).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (r *SQLiteRepository) StoredNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var names []string
	if err := r.db.WithContext(ctx).Model(&mediaRow{}).Pluck("stored_name", &names).Error; err != nil {
		return nil, fmt.Errorf("list stored names: %w", err)
	}
	return names, nil
}

func toAssets(rows []mediaRow) []Asset {
	assets := make([]Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, row.asset())
	}
	return assets
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
