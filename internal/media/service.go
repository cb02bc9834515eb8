package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/krsnavtr-code/gallery/internal/blob"
	"github.com/krsnavtr-code/gallery/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxUploadBytes = 50 * 1024 * 1024
	defaultPublicPrefix   = "/uploads"
	maxNameAttempts       = 3
)

type metadataStore interface {
	Create(ctx context.Context, asset Asset) (Asset, error)
	FindAll(ctx context.Context) ([]Asset, error)
	FindByID(ctx context.Context, id uuid.UUID) (Asset, error)
	FindByTag(ctx context.Context, name string) ([]Asset, error)
	UpdateTags(ctx context.Context, id uuid.UUID, tags []string) (Asset, error)
	Delete(ctx context.Context, id uuid.UUID) (Asset, error)
}

type nameGenerator interface {
	Generate(original string) string
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	PublicPrefix     string
	MaxUploadBytes   int64
	BatchDeleteWidth int
	Names            nameGenerator
	Logger           *zap.Logger
}

// Service coordinates blob writes with metadata records.
type Service struct {
	repo           metadataStore
	blobs          blob.Store
	names          nameGenerator
	publicPrefix   string
	maxUploadBytes int64
	batchWidth     int
	log            *zap.Logger
}

// NewService constructs a media service.
func NewService(repo metadataStore, blobs blob.Store, opts Options) *Service {
	s := &Service{
		repo:           repo,
		blobs:          blobs,
		names:          opts.Names,
		publicPrefix:   "/" + strings.Trim(opts.PublicPrefix, "/"),
		maxUploadBytes: opts.MaxUploadBytes,
		batchWidth:     opts.BatchDeleteWidth,
		log:            opts.Logger,
	}
	if s.names == nil {
		s.names = blob.NewGenerator()
	}
	if s.publicPrefix == "/" {
		s.publicPrefix = defaultPublicPrefix
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// MaxUploadBytes is the largest accepted upload.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload stores the file under a generated name and records its metadata. If
// the record cannot be created the blob is removed again before returning.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Asset, error) {
	if in.File == nil {
		return Asset{}, ErrNoFile
	}
	if in.File.Size > s.maxUploadBytes {
		metrics.UploadFailed()
		return Asset{}, ErrFileTooLarge
	}

	file, err := in.File.Open()
	if err != nil {
		return Asset{}, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	mimeType := detectContentType(in.File)
	storedName, written, err := s.putBlob(ctx, file, in.File.Filename, in.File.Size, mimeType)
	if err != nil {
		metrics.UploadFailed()
		return Asset{}, err
	}

	log := s.log.With(zap.String("stored_name", storedName))

	if written > s.maxUploadBytes {
		s.compensate(ctx, log, storedName)
		metrics.UploadFailed()
		return Asset{}, ErrFileTooLarge
	}

	stored, err := s.repo.Create(ctx, Asset{
		ID:           uuid.New(),
		StoredName:   storedName,
		OriginalName: sanitizeFilename(in.File.Filename),
		MimeType:     mimeType,
		SizeBytes:    written,
		Path:         path.Join(s.publicPrefix, storedName),
		Tags:         NormalizeTags(in.Tags),
	})
	if err != nil {
		s.compensate(ctx, log, storedName)
		metrics.UploadFailed()
		return Asset{}, fmt.Errorf("record media: %w", err)
	}

	metrics.UploadSucceeded(written)
	log.Info("media uploaded", zap.String("id", stored.ID.String()), zap.Int64("size_bytes", written))
	return stored, nil
}

// putBlob writes the upload under a fresh name, re-rolling when the store
// reports the name as taken.
func (s *Service) putBlob(ctx context.Context, file multipart.File, original string, size int64, mimeType string) (string, int64, error) {
	for attempt := 1; ; attempt++ {
		name := s.names.Generate(original)
		written, err := s.blobs.Put(ctx, name, file, size, mimeType)
		if err == nil {
			return name, written, nil
		}
		if !errors.Is(err, blob.ErrExists) || attempt == maxNameAttempts {
			return "", 0, fmt.Errorf("store blob: %w", err)
		}
		s.log.Warn("stored name collision, retrying", zap.String("stored_name", name), zap.Int("attempt", attempt))
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return "", 0, fmt.Errorf("rewind upload file: %w", err)
		}
	}
}

func (s *Service) compensate(ctx context.Context, log *zap.Logger, storedName string) {
	metrics.BlobCompensated()
	if err := s.blobs.Delete(context.WithoutCancel(ctx), storedName); err != nil {
		log.Error("remove blob after failed upload", zap.Error(err))
	}
}

// Delete removes the record first and then makes a best-effort attempt at the blob.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			metrics.MediaDeleted("not_found")
		} else {
			metrics.MediaDeleted("error")
		}
		return err
	}

	if err := s.blobs.Delete(context.WithoutCancel(ctx), asset.StoredName); err != nil {
		metrics.BlobDeleteFailed()
		s.log.Warn("remove blob after delete",
			zap.String("id", id.String()),
			zap.String("stored_name", asset.StoredName),
			zap.Error(err),
		)
	}

	metrics.MediaDeleted("deleted")
	return nil
}

// BatchDelete deletes every id independently and concurrently. It never stops
// early; each outcome is reported in the result.
func (s *Service) BatchDelete(ctx context.Context, ids []uuid.UUID) BatchResult {
	errs := make([]error, len(ids))

	var g errgroup.Group
	if s.batchWidth > 0 {
		g.SetLimit(s.batchWidth)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			errs[i] = s.Delete(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Requested: len(ids), Failures: []BatchFailure{}}
	for i, err := range errs {
		if err == nil {
			result.Deleted++
			continue
		}
		result.Failed++
		result.Failures = append(result.Failures, BatchFailure{
			ID:       ids[i],
			Error:    err.Error(),
			NotFound: errors.Is(err, ErrMediaNotFound),
		})
	}
	if result.Failed > 0 {
		result.Message = fmt.Sprintf("%d file(s) failed", result.Failed)
		s.log.Warn("batch delete incomplete",
			zap.Int("requested", result.Requested),
			zap.Int("failed", result.Failed),
		)
	}
	return result
}

// UpdateTags replaces the tag list of a media item.
func (s *Service) UpdateTags(ctx context.Context, id uuid.UUID, tags []string) (Asset, error) {
	if tags == nil {
		return Asset{}, ErrInvalidTags
	}
	return s.repo.UpdateTags(ctx, id, NormalizeTags(tags))
}

// List returns all media, newest first.
func (s *Service) List(ctx context.Context) ([]Asset, error) {
	return s.repo.FindAll(ctx)
}

// ListByTag returns media carrying name; an empty name lists everything.
func (s *Service) ListByTag(ctx context.Context, name string) ([]Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.repo.FindAll(ctx)
	}
	return s.repo.FindByTag(ctx, name)
}

// Get fetches one media record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Asset, error) {
	return s.repo.FindByID(ctx, id)
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}
