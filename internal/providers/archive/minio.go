package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type MinioStore struct {
	cl     *minio.Client
	bucket string
}

func NewMinio(cfg Config) (*MinioStore, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("archive client: %w", err)
	}
	return &MinioStore{cl: cl, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, archive []byte) (string, error) {
	_, err := s.cl.PutObject(ctx, s.bucket, key, bytes.NewReader(archive), int64(len(archive)), minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (s *MinioStore) Enabled() bool { return true }

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}
