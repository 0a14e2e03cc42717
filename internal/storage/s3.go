package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"

	"repost/internal/domain"
	"repost/internal/pipeline"
)

const uploadAttempts = 3

// S3Options configures an S3-compatible object store (Cloudflare R2).
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	PublicBaseURL   string
	Region          string
	Logger          zerolog.Logger
	// Sleep overrides the inter-attempt delay, for tests.
	Sleep func(time.Duration)
}

// S3Store uploads and retrieves media in an S3-compatible bucket.
type S3Store struct {
	uploader      *s3manager.Uploader
	downloader    *s3manager.Downloader
	bucket        string
	endpoint      string
	publicBaseURL string
	logger        zerolog.Logger
	sleep         func(time.Duration)
}

// NewS3Store validates configuration and builds the AWS session. Missing
// settings fail fast with domain.ErrConfigMissing.
func NewS3Store(opts S3Options) (*S3Store, error) {
	var missing []string
	for key, value := range map[string]string{
		"R2_BUCKET_NAME":       opts.Bucket,
		"R2_ENDPOINT_URL":      opts.Endpoint,
		"R2_ACCESS_KEY_ID":     opts.AccessKeyID,
		"R2_SECRET_ACCESS_KEY": opts.SecretAccessKey,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigMissing, strings.Join(missing, ", "))
	}

	region := opts.Region
	if region == "" {
		region = "auto"
	}
	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Endpoint:         aws.String(opts.Endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &S3Store{
		uploader:      s3manager.NewUploader(sess),
		downloader:    s3manager.NewDownloader(sess),
		bucket:        opts.Bucket,
		endpoint:      strings.TrimRight(opts.Endpoint, "/"),
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:        opts.Logger,
		sleep:         sleep,
	}, nil
}

// Put uploads the local file under key, retrying transient failures, and
// returns the externally accessible URL.
func (s *S3Store) Put(ctx context.Context, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var lastErr error
	for attempt := 1; attempt <= uploadAttempts; attempt++ {
		if _, err := file.Seek(0, 0); err != nil {
			return "", fmt.Errorf("rewind upload source: %w", err)
		}
		_, lastErr = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        file,
			ContentType: aws.String(contentTypeFor(localPath)),
		})
		if lastErr == nil {
			return s.FileURL(key), nil
		}
		s.logger.Warn().Err(lastErr).Str("key", key).Int("attempt", attempt).Msg("storage: upload attempt failed")
		if attempt < uploadAttempts {
			s.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}
	return "", fmt.Errorf("upload to storage: %w", lastErr)
}

// Get downloads the object at key into destPath and returns the path.
func (s *S3Store) Get(ctx context.Context, key, destPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("create destination directory: %w", err)
	}
	file, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create destination file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var lastErr error
	for attempt := 1; attempt <= uploadAttempts; attempt++ {
		_, lastErr = s.downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if lastErr == nil {
			return destPath, nil
		}
		s.logger.Warn().Err(lastErr).Str("key", key).Int("attempt", attempt).Msg("storage: download attempt failed")
		if attempt < uploadAttempts {
			s.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}
	return "", fmt.Errorf("download from storage: %w", lastErr)
}

// FileURL builds the externally accessible URL for an object key.
func (s *S3Store) FileURL(key string) string {
	encoded := encodeKey(key)
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + encoded
	}
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, encoded)
}

func encodeKey(key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func contentTypeFor(localPath string) string {
	if t := mime.TypeByExtension(filepath.Ext(localPath)); t != "" {
		return t
	}
	return "application/octet-stream"
}

var _ pipeline.ArtifactStore = (*S3Store)(nil)
