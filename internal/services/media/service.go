package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

var ErrValidation = errors.New("invalid photo upload")

const maxPhotoBytes = 5 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectStorage is the bucket-facing surface of the photo store.
type ObjectStorage interface {
	Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PublicURL(objectName string) string
}

// PhotoSaver persists the uploaded photo's public URL on the profile row.
type PhotoSaver interface {
	SetPhotoURL(ctx context.Context, username, photoURL string) error
}

type Service struct {
	storage ObjectStorage
	saver   PhotoSaver
	logger  *zap.Logger
}

func NewService(storage ObjectStorage, saver PhotoSaver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{storage: storage, saver: saver, logger: logger}
}

// UploadPhoto stores the image under a fresh object key and records its
// public URL as the user's profile photo.
func (s *Service) UploadPhoto(ctx context.Context, username string, reader io.Reader, size int64, contentType string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || reader == nil {
		return "", ErrValidation
	}
	if size <= 0 || size > maxPhotoBytes {
		return "", fmt.Errorf("%w: photo must be between 1 byte and %d bytes", ErrValidation, maxPhotoBytes)
	}

	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %q", ErrValidation, contentType)
	}

	objectName := path.Join("photos", username, uuid.NewString()+ext)
	if err := s.storage.Put(ctx, objectName, reader, size, contentType); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}

	photoURL := s.storage.PublicURL(objectName)
	if err := s.saver.SetPhotoURL(ctx, username, photoURL); err != nil {
		return "", err
	}

	s.logger.Info("profile photo updated",
		zap.String("username", username),
		zap.String("object", objectName))

	return photoURL, nil
}

// S3Storage adapts a minio client to ObjectStorage.
type S3Storage struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

func NewS3Storage(client *minio.Client, bucket, endpoint string, useSSL bool) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL}
}

func (s *S3Storage) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

func (s *S3Storage) PublicURL(objectName string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, objectName)
}
