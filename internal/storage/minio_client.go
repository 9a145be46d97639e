package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"storyhub/internal/config"
	"storyhub/internal/models"
)

var ErrForeignURL = errors.New("URL не принадлежит хранилищу")

// Object describes where an uploaded image belongs.
type Object struct {
	Kind      models.ImageKind
	OwnerID   string
	ArticleID string
	FileName  string
}

type Storage interface {
	Upload(ctx context.Context, obj Object, file io.Reader, size int64) (objectName string, url string, err error)
	Delete(ctx context.Context, objectName string) error
	// DeleteURL removes the object a public URL points to.
	DeleteURL(ctx context.Context, url string) error
}

type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки бакета %s: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("ошибка создания бакета %s: %w", cfg.BucketName, err)
		}
	}

	return &MinIOClient{client: client, bucket: cfg.BucketName, publicURL: cfg.PublicURL}, nil
}

func (m *MinIOClient) Upload(ctx context.Context, obj Object, file io.Reader, size int64) (string, string, error) {
	now := time.Now()
	objectName, contentType := ObjectName(obj, now)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": obj.FileName,
				"owner-id":          obj.OwnerID,
				"article-id":        obj.ArticleID,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("ошибка загрузки в MinIO: %w", err)
	}

	return objectName, PublicURL(m.publicURL, m.bucket, objectName), nil
}

func (m *MinIOClient) Delete(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("ошибка удаления из MinIO: %w", err)
	}
	return nil
}

func (m *MinIOClient) DeleteURL(ctx context.Context, url string) error {
	objectName, err := ObjectFromURL(m.publicURL, m.bucket, url)
	if err != nil {
		return err
	}
	return m.Delete(ctx, objectName)
}

// ObjectName builds the object key and content type of an upload:
// <kind>/<owner>/[<article>/]<yyyy>/<mm>/<uuid><ext>.
func ObjectName(obj Object, now time.Time) (string, string) {
	fileExt := strings.ToLower(filepath.Ext(obj.FileName))
	if fileExt == "" {
		fileExt = ".jpg"
	}

	contentType := mime.TypeByExtension(fileExt)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	parts := []string{string(obj.Kind), obj.OwnerID}
	if obj.ArticleID != "" {
		parts = append(parts, obj.ArticleID)
	}
	parts = append(parts,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		uuid.New().String()+fileExt,
	)

	return strings.Join(parts, "/"), contentType
}

func PublicURL(base, bucket, objectName string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), bucket, objectName)
}

func ObjectFromURL(base, bucket, url string) (string, error) {
	prefix := strings.TrimSuffix(base, "/") + "/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	return strings.TrimPrefix(url, prefix), nil
}
