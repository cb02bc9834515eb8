package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type tagRow struct {
	ID         uuid.UUID `gorm:"primaryKey;type:text"`
	Name       string    `gorm:"uniqueIndex;not null"`
	Slug       string    `gorm:"uniqueIndex;not null"`
	MediaCount int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (tagRow) TableName() string { return "tags" }

func (r tagRow) tag() Tag {
	return Tag{
		ID:         r.ID,
		Name:       r.Name,
		Slug:       r.Slug,
		MediaCount: r.MediaCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// MigrateSQLite creates or updates the tags table.
func MigrateSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(&tagRow{}); err != nil {
		return fmt.Errorf("migrate tags table: %w", err)
	}
	return nil
}

// SQLiteRepository persists tags in an embedded SQLite database. Names are
// stored canonical, so a plain unique index gives case-insensitive uniqueness.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository builds a repository on an open gorm handle.
func NewSQLiteRepository(db *gorm.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, name string) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	name = CanonicalName(name)
	row := tagRow{ID: uuid.New(), Name: name, Slug: Slugify(name)}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return Tag{}, ErrTagExists
		}
		return Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return row.tag(), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id uuid.UUID, name string) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	name = CanonicalName(name)

	var row tagRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		row.Name = name
		row.Slug = Slugify(name)
		return tx.Save(&row).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return Tag{}, ErrTagNotFound
		case isDuplicate(err):
			return Tag{}, ErrTagExists
		}
		return Tag{}, fmt.Errorf("update tag: %w", err)
	}
	return row.tag(), nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var row tagRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, fmt.Errorf("delete tag: %w", err)
	}
	return row.tag(), nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id uuid.UUID) (Tag, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *SQLiteRepository) FindByName(ctx context.Context, name string) (Tag, error) {
	return r.findOne(ctx, "name = ?", CanonicalName(name))
}

func (r *SQLiteRepository) findOne(ctx context.Context, query string, arg any) (Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var row tagRow
	if err := r.db.WithContext(ctx).First(&row, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return row.tag(), nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context) ([]Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var rows []tagRow
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := make([]Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, row.tag())
	}
	return tags, nil
}

func (r *SQLiteRepository) SetMediaCount(ctx context.Context, id uuid.UUID, count int64) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&tagRow{}).Where("id = ?", id).Update("media_count", count)
	if res.Error != nil {
		return fmt.Errorf("set tag media count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
