package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	llmclient "storyboarder/internal/llmClient"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// S3Store puts images into an S3-compatible bucket and returns presigned
// GET URLs as references.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	expiry     time.Duration
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucketName: bucket, region: region, expiry: expiry}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Save(ctx context.Context, sessionID, name string, img llmclient.Image) (string, error) {
	if len(img.Bytes) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	key, err := NewKey(sessionID, name, mime)
	if err != nil {
		return "", err
	}
	if _, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(img.Bytes), int64(len(img.Bytes)), minio.PutObjectOptions{
		ContentType: mime,
	}); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *S3Store) Get(ctx context.Context, sessionID, key string) (llmclient.Image, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return llmclient.Image{}, fmt.Errorf("ensure bucket: %w", err)
	}
	if !strings.HasPrefix(key, strings.TrimSpace(sessionID)+"/") {
		key = strings.TrimSpace(sessionID) + "/" + strings.TrimLeft(key, "/")
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return llmclient.Image{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return llmclient.Image{}, ErrNotFound
		}
		return llmclient.Image{}, err
	}
	info, err := obj.Stat()
	mime := "image/jpeg"
	if err == nil && info.ContentType != "" {
		mime = info.ContentType
	}
	return llmclient.Image{Bytes: data, MIMEType: mime}, nil
}
