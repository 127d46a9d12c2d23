package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"go.uber.org/zap"
)

const (
	ArtifactFolder      = "lease-agreements"
	pdfContentType      = "application/pdf"
	defaultSignedURLTTL = time.Hour
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

// ArtifactStore keeps rendered documents in object storage.
type ArtifactStore interface {
	Store(ctx context.Context, data []byte, name string) (models.StoredArtifact, error)
	Delete(ctx context.Context, publicID string) error
	// IsStoreURL reports whether raw points into this store.
	IsStoreURL(raw string) bool
	// SignedURL derives a time-limited URL from a stored URL. It returns false
	// rather than a guessed URL when the object cannot be identified.
	SignedURL(ctx context.Context, raw string) (string, bool)
	EnsureBucket(ctx context.Context) error
	Ready(ctx context.Context) error
}

// ObjectStorage is the subset of *minio.Client the store uses.
type ObjectStorage interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

type ArtifactStoreConfig struct {
	Bucket string
	// PublicURL is the scheme and host objects are served from, e.g. https://files.example.com.
	PublicURL    string
	SignedURLTTL time.Duration
}

type minioArtifactStore struct {
	client ObjectStorage
	bucket string
	public *url.URL
	ttl    time.Duration
	logger *zap.Logger
}

// NewMinioClient builds the shared object storage client. Region is set so presigning
// never needs a bucket location round trip.
func NewMinioClient(endpoint, accessKey, secretKey, region string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
}

func NewArtifactStore(client ObjectStorage, cfg ArtifactStoreConfig, logger *zap.Logger) (ArtifactStore, error) {
	public, err := url.Parse(strings.TrimRight(cfg.PublicURL, "/"))
	if err != nil || public.Scheme == "" || public.Host == "" {
		return nil, fmt.Errorf("artifact store: invalid public url %q", cfg.PublicURL)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("artifact store: bucket is required")
	}
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}
	return &minioArtifactStore{client: client, bucket: cfg.Bucket, public: public, ttl: ttl, logger: logger}, nil
}

// ArtifactName is the object name for a lease document: lease_<id>_<unix seconds>.
func ArtifactName(leaseID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("lease_%s_%d", leaseID, at.Unix())
}

func objectKey(publicID string) string {
	return ArtifactFolder + "/" + publicID + ".pdf"
}

// Store writes the document under the folder; the same name overwrites, so retries are safe.
func (s *minioArtifactStore) Store(ctx context.Context, data []byte, name string) (models.StoredArtifact, error) {
	publicID := strings.TrimSuffix(name, ".pdf")
	if publicID == "" || strings.ContainsAny(publicID, "/\\") {
		return models.StoredArtifact{}, fmt.Errorf("store %q: %w: invalid name", name, common.ErrArtifactStoreUnavailable)
	}
	key := objectKey(publicID)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: pdfContentType,
	})
	if err != nil {
		return models.StoredArtifact{}, fmt.Errorf("upload %s: %w: %w", key, common.ErrArtifactStoreUnavailable, err)
	}

	s.logger.Debug("artifact stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return models.StoredArtifact{URL: s.publicURL(key), PublicID: publicID}, nil
}

func (s *minioArtifactStore) Delete(ctx context.Context, publicID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(publicID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w: %w", publicID, common.ErrArtifactStoreUnavailable, err)
	}
	return nil
}

func (s *minioArtifactStore) IsStoreURL(raw string) bool {
	_, ok := s.objectKeyFromURL(raw)
	return ok
}

func (s *minioArtifactStore) SignedURL(ctx context.Context, raw string) (string, bool) {
	key, ok := s.objectKeyFromURL(raw)
	if !ok {
		return "", false
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, nil)
	if err != nil {
		s.logger.Warn("presign failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return u.String(), true
}

func (s *minioArtifactStore) EnsureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w: %w", s.bucket, common.ErrArtifactStoreUnavailable, err)
	}
	if !found {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w: %w", s.bucket, common.ErrArtifactStoreUnavailable, err)
		}
		s.logger.Info("bucket created", zap.String("bucket", s.bucket))
	}
	return nil
}

func (s *minioArtifactStore) Ready(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *minioArtifactStore) publicURL(key string) string {
	u := *s.public
	u.Path = strings.TrimRight(u.Path, "/") + "/" + s.bucket + "/" + key
	return u.String()
}

// objectKeyFromURL accepts <public>/<bucket>/<key> and <public>/<bucket>/v<digits>/<key>.
func (s *minioArtifactStore) objectKeyFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Host, s.public.Host) {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	path := strings.TrimPrefix(u.Path, strings.TrimRight(s.public.Path, "/"))
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || segments[0] != s.bucket {
		return "", false
	}
	segments = segments[1:]
	if versionSegment.MatchString(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) < 2 || segments[0] != ArtifactFolder {
		return "", false
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}
	return strings.Join(segments, "/"), true
}
