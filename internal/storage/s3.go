package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Config holds the configuration for S3 storage.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
	PublicBaseURL   string // Optional: overrides the default public URL prefix
}

// S3Store implements ObjectStore against S3 or an S3-compatible endpoint.
type S3Store struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string

	// knownFolders caches folders already ensured this process lifetime.
	mu           sync.Mutex
	knownFolders map[string]bool
}

// NewS3Store creates a new S3Store instance.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	configOpts = append(configOpts, awsconfig.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		knownFolders:  make(map[string]bool),
	}, nil
}

// Upload stores a buffer under folder and returns its asset descriptor.
// Object keys embed a timestamp and random suffix so concurrent uploads of
// identically named files never collide.
func (s *S3Store) Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (*Asset, error) {
	if err := s.EnsureFolder(ctx, folder); err != nil {
		return nil, err
	}

	key := objectKey(folder, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to S3: %w", err)
	}

	mediaType := "image"
	if strings.HasPrefix(contentType, "video/") {
		mediaType = "video"
	}

	return &Asset{
		PublicID:  key,
		URL:       s.publicURL(key),
		MediaType: mediaType,
		SizeBytes: int64(len(data)),
	}, nil
}

// Delete removes an object by key. An object that is already gone counts as
// success; storage/metadata consistency is eventual, not transactional.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete from S3: %w", err)
	}
	return nil
}

// EnsureFolder creates the folder marker on first use. S3 folders are
// prefixes; the marker object only makes the prefix visible in consoles.
// Concurrent creators race harmlessly: the last write wins on an empty body.
func (s *S3Store) EnsureFolder(ctx context.Context, folder string) error {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return nil
	}

	s.mu.Lock()
	known := s.knownFolders[folder]
	s.mu.Unlock()
	if known {
		return nil
	}

	marker := folder + "/"
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(marker),
	})
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("head folder marker: %w", err)
		}
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(marker),
			Body:   bytes.NewReader(nil),
		})
		if err != nil {
			return fmt.Errorf("create folder marker: %w", err)
		}
	}

	s.mu.Lock()
	s.knownFolders[folder] = true
	s.mu.Unlock()
	return nil
}

func (s *S3Store) publicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// objectKey builds a collision-free key preserving the original extension.
func objectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := fmt.Sprintf("%d-%s%s", time.Now().Unix(), uuid.NewString()[:8], ext)
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// isNotFound reports whether err is any flavor of S3 missing-object error.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return false
}

// Verify interface implementation at compile time.
var _ ObjectStore = (*S3Store)(nil)
