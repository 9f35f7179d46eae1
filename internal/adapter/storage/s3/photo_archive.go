package s3

import (
	"bytes"
	"context"
	"fmt"
	"mime"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// PhotoArchive copies the photos of created listings into a MinIO bucket.
type PhotoArchive struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewPhotoArchive connects to MinIO and makes sure the bucket exists.
func NewPhotoArchive(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*PhotoArchive, error) {
	log.Info("Initializing MinIO photo archive", zap.String("endpoint", endpoint), zap.String("bucket", bucketName), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		exists, errBucketExists := client.BucketExists(ctx, bucketName)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
		log.Info("Bucket already exists", zap.String("bucket", bucketName))
	}

	return &PhotoArchive{
		client: client,
		bucket: bucketName,
		logger: log.Named("PhotoArchive"),
	}, nil
}

// ObjectKey is where photo index of a listing is stored.
func ObjectKey(listingID string, index int, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("listings/%s/%02d-%s%s", listingID, index+1, uuid.NewString(), ext)
}

// Upload implements domain.PhotoArchive and returns the object URL.
func (a *PhotoArchive) Upload(ctx context.Context, listingID string, index int, img domain.ImageFile) (string, error) {
	objectKey := ObjectKey(listingID, index, img.ContentType)

	info, err := a.client.PutObject(ctx, a.bucket, objectKey, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType:  img.ContentType,
		UserMetadata: map[string]string{"listing-id": listingID},
	})
	if err != nil {
		a.logger.Error("PutObject failed", zap.String("bucket", a.bucket), zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, a.bucket, err)
	}

	fileURL := fmt.Sprintf("%s/%s/%s", a.client.EndpointURL().String(), a.bucket, info.Key)
	a.logger.Debug("Photo archived", zap.String("url", fileURL), zap.Int64("size", info.Size))
	return fileURL, nil
}
