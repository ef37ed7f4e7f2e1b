package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const imagePrefix = "drinks"

// Storage keeps drink images in a MinIO/S3 bucket.
type Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewStorage connects to endpoint and makes sure the bucket exists.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, log *logger.Logger) (*Storage, error) {
	log = log.Named("S3Storage")
	log.Info("Initializing S3 storage", zap.String("endpoint", endpoint), zap.String("bucket", bucket), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to make bucket %s: %w", bucket, err)
		}
		log.Info("Bucket created", zap.String("bucket", bucket))
	}

	return &Storage{client: client, bucket: bucket, logger: log}, nil
}

// ObjectKey names the object for an image of drinkID, keeping the extension
// of the uploaded file.
func ObjectKey(drinkID, originalFileName string) string {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	return path.Join(imagePrefix, drinkID, uuid.New().String()+ext)
}

// UploadImage stores data and returns its public URL.
func (s *Storage) UploadImage(ctx context.Context, drinkID, originalFileName, contentType string, data []byte) (string, error) {
	key := ObjectKey(drinkID, originalFileName)
	s.logger.Info("Uploading image",
		zap.String("bucket", s.bucket),
		zap.String("object_key", key),
		zap.String("original_filename", originalFileName),
		zap.Int("size_bytes", len(data)))

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"drink-id": drinkID},
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("object_key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, info.Key)
	s.logger.Info("Image uploaded", zap.String("url", url), zap.String("etag", info.ETag))
	return url, nil
}
