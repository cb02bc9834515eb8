package tag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/krsnavtr-code/gallery/internal/metrics"
	"go.uber.org/zap"
)

type repository interface {
	Create(ctx context.Context, name string) (Tag, error)
	Update(ctx context.Context, id uuid.UUID, name string) (Tag, error)
	Delete(ctx context.Context, id uuid.UUID) (Tag, error)
	FindByID(ctx context.Context, id uuid.UUID) (Tag, error)
	FindAll(ctx context.Context) ([]Tag, error)
	SetMediaCount(ctx context.Context, id uuid.UUID, count int64) error
}

// Store is the tag persistence contract met by both repositories.
type Store interface {
	repository
	FindByName(ctx context.Context, name string) (Tag, error)
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*SQLiteRepository)(nil)
)

// MediaTagger is the view of the media store the tag service cascades into.
type MediaTagger interface {
	CountByTags(ctx context.Context, names []string) (map[string]int64, error)
	ReplaceTag(ctx context.Context, from, to string) (int64, error)
	RemoveTag(ctx context.Context, name string) (int64, error)
}

// Service orchestrates tag operations and their cascades into media.
type Service struct {
	repo  repository
	media MediaTagger
	log   *zap.Logger
}

// NewService constructs a tag service.
func NewService(repo repository, media MediaTagger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, media: media, log: log}
}

// Create adds a tag to the catalog. New tags start unused.
func (s *Service) Create(ctx context.Context, name string) (Tag, error) {
	name = CanonicalName(name)
	if name == "" {
		return Tag{}, ErrNameRequired
	}
	tag, err := s.repo.Create(ctx, name)
	if err != nil {
		return Tag{}, err
	}
	tag.MediaCount = 0
	return tag, nil
}

// Update renames a tag and rewrites the old name on every media item. The
// rename and the cascade are separate steps; a failed cascade leaves the tag
// renamed and is reported to the caller.
func (s *Service) Update(ctx context.Context, id uuid.UUID, name string) (Tag, error) {
	name = CanonicalName(name)
	if name == "" {
		return Tag{}, ErrNameRequired
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Tag{}, err
	}
	if current.Name == name {
		return s.withCount(ctx, current)
	}

	updated, err := s.repo.Update(ctx, id, name)
	if err != nil {
		return Tag{}, err
	}

	n, err := s.media.ReplaceTag(ctx, current.Name, updated.Name)
	if err != nil {
		s.log.Error("tag rename cascade failed",
			zap.String("tag_id", id.String()),
			zap.String("from", current.Name),
			zap.String("to", updated.Name),
			zap.Error(err),
		)
		return Tag{}, fmt.Errorf("cascade tag rename: %w", err)
	}
	metrics.TagCascade("rename", n)
	s.log.Info("tag renamed",
		zap.String("tag_id", id.String()),
		zap.String("from", current.Name),
		zap.String("to", updated.Name),
		zap.Int64("media_updated", n),
	)

	return s.withCount(ctx, updated)
}

// Delete removes a tag and pulls its name from every media item.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.media.RemoveTag(ctx, deleted.Name)
	if err != nil {
		s.log.Error("tag delete cascade failed",
			zap.String("tag_id", id.String()),
			zap.String("name", deleted.Name),
			zap.Error(err),
		)
		return fmt.Errorf("cascade tag delete: %w", err)
	}
	metrics.TagCascade("delete", n)
	s.log.Info("tag deleted", zap.String("tag_id", id.String()), zap.String("name", deleted.Name), zap.Int64("media_updated", n))
	return nil
}

// List returns all tags by name with usage counted from media at call time.
func (s *Service) List(ctx context.Context) ([]Tag, error) {
	tags, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return tags, nil
	}

	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	counts, err := s.media.CountByTags(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("count tag usage: %w", err)
	}
	for i := range tags {
		tags[i].MediaCount = counts[tags[i].Name]
	}
	return tags, nil
}

// Recount writes live usage counts into the cached column.
func (s *Service) Recount(ctx context.Context) ([]Tag, error) {
	tags, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if err := s.repo.SetMediaCount(ctx, t.ID, t.MediaCount); err != nil {
			return nil, fmt.Errorf("store count for %q: %w", t.Name, err)
		}
	}
	return tags, nil
}

func (s *Service) withCount(ctx context.Context, tag Tag) (Tag, error) {
	counts, err := s.media.CountByTags(ctx, []string{tag.Name})
	if err != nil {
		return Tag{}, fmt.Errorf("count tag usage: %w", err)
	}
	tag.MediaCount = counts[tag.Name]
	return tag, nil
}
