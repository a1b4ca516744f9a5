package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"bookcatalog/internal/config"
)

// ErrNotManaged is returned when asked to delete an object this store did not create.
var ErrNotManaged = errors.New("image is not managed by this store")

// ImageStore uploads and removes cover images.
type ImageStore interface {
	Upload(ctx context.Context, body io.Reader, contentType, ext string) (string, error)
	Delete(ctx context.Context, url string) error
	Owns(url string) bool
}

// s3API is the subset of *s3.Client used here.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore keeps cover images in an S3 compatible bucket.
type S3ImageStore struct {
	client  s3API
	bucket  string
	folder  string
	baseURL string
}

var _ ImageStore = (*S3ImageStore)(nil)

// NewS3ImageStore builds a store from configuration. Static credentials are
// used when both keys are set, the default AWS chain otherwise.
func NewS3ImageStore(ctx context.Context, cfg *config.Config) (*S3ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return newS3ImageStore(client, cfg), nil
}

func newS3ImageStore(client s3API, cfg *config.Config) *S3ImageStore {
	return &S3ImageStore{
		client:  client,
		bucket:  cfg.S3Bucket,
		folder:  strings.Trim(cfg.S3Folder, "/"),
		baseURL: PublicBaseURL(cfg),
	}
}

// PublicBaseURL returns the URL prefix under which stored objects are served.
func PublicBaseURL(cfg *config.Config) string {
	switch {
	case cfg.S3PublicURL != "":
		return strings.TrimRight(cfg.S3PublicURL, "/")
	case cfg.S3Endpoint != "" && cfg.S3UsePathStyle:
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	case cfg.S3Endpoint != "":
		endpoint := strings.TrimRight(cfg.S3Endpoint, "/")
		if scheme, host, ok := strings.Cut(endpoint, "://"); ok {
			return scheme + "://" + cfg.S3Bucket + "." + host
		}
		return "https://" + cfg.S3Bucket + "." + endpoint
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
}

// Upload stores body under a fresh key and returns its public URL.
func (s *S3ImageStore) Upload(ctx context.Context, body io.Reader, contentType, ext string) (string, error) {
	key := s.newKey(ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the object behind url.
func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		return ErrNotManaged
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from s3: %w", err)
	}
	return nil
}

// Owns reports whether url points at an object in this store.
func (s *S3ImageStore) Owns(url string) bool {
	_, ok := s.keyFromURL(url)
	return ok
}

func (s *S3ImageStore) newKey(ext string) string {
	name := uuid.New().String()
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	if s.folder == "" {
		return name
	}
	return s.folder + "/" + name
}

func (s *S3ImageStore) keyFromURL(url string) (string, bool) {
	key, found := strings.CutPrefix(url, s.baseURL+"/")
	if !found || key == "" || strings.Contains(key, "..") {
		return "", false
	}
	if s.folder != "" && !strings.HasPrefix(key, s.folder+"/") {
		return "", false
	}
	return key, true
}
