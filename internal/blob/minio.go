package blob

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// objectAPI is the subset of *minio.Client used by MinIOStore.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// MinIOStore keeps blobs as objects in a single bucket.
type MinIOStore struct {
	client     objectAPI
	bucket     string
	presignTTL time.Duration
	log        *zap.Logger
}

// NewMinIOStore wraps a MinIO client bound to bucket.
func NewMinIOStore(client *minio.Client, bucket string, presignTTL time.Duration, log *zap.Logger) *MinIOStore {
	return newMinIOStore(client, bucket, presignTTL, log)
}

func newMinIOStore(client objectAPI, bucket string, presignTTL time.Duration, log *zap.Logger) *MinIOStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MinIOStore{client: client, bucket: bucket, presignTTL: presignTTL, log: log}
}

// Put uploads the object after checking the key is free.
func (s *MinIOStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error) {
	if !ValidName(name) {
		return 0, ErrInvalidName
	}

	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return 0, ErrExists
	case !isNoSuchKey(err):
		return 0, &StorageError{Op: "put", Name: name, Err: err}
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, &StorageError{Op: "put", Name: name, Err: err}
	}
	return info.Size, nil
}

// Open streams the object.
func (s *MinIOStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	if _, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "open", Name: name, Err: err}
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, &StorageError{Op: "open", Name: name, Err: err}
	}
	return obj, nil
}

// Delete removes the object. S3 semantics already treat a missing key as success.
func (s *MinIOStore) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			s.log.Warn("blob already absent", zap.String("name", name))
			return nil
		}
		return &StorageError{Op: "delete", Name: name, Err: err}
	}
	return nil
}

// List enumerates every object key in the bucket.
func (s *MinIOStore) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, &StorageError{Op: "list", Name: s.bucket, Err: obj.Err}
		}
		names = append(names, obj.Key)
	}
	return names, nil
}

// Ping checks that the bucket is reachable.
func (s *MinIOStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &StorageError{Op: "ping", Name: s.bucket, Err: err}
	}
	if !exists {
		return &StorageError{Op: "ping", Name: s.bucket, Err: errors.New("bucket does not exist")}
	}
	return nil
}

// PresignedURL returns a time-limited GET URL for the object.
func (s *MinIOStore) PresignedURL(ctx context.Context, name string) (string, error) {
	if !ValidName(name) {
		return "", ErrInvalidName
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, s.presignTTL, make(url.Values))
	if err != nil {
		return "", &StorageError{Op: "presign", Name: name, Err: err}
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
