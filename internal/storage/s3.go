package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FolderUploads is the key prefix for respondent uploads.
const FolderUploads = "uploads"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Config holds upload bucket settings.
type Config struct {
	Bucket         string
	Region         string
	PresignMinutes int
}

// S3 issues presigned upload URLs for a single bucket.
type S3 struct {
	presign presigner
	bucket  string
	expires time.Duration
	now     func() time.Time
}

// NewS3 builds a presigning client. Static credentials are taken from
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY when both are set, otherwise
// the default credential chain is used.
func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, os.Getenv("AWS_SESSION_TOKEN")),
		))
	} else {
		log.Warn().Msg("S3 using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	log.Info().Str("bucket", cfg.Bucket).Str("region", cfg.Region).Msg("Upload storage configured")

	return &S3{
		presign: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:  cfg.Bucket,
		expires: presignDuration(cfg.PresignMinutes),
		now:     time.Now,
	}, nil
}

func presignDuration(minutes int) time.Duration {
	if minutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// SanitizeFilename keeps the base name and replaces characters outside
// [A-Za-z0-9._-] with a hyphen.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		return "file"
	}
	if len(base) > 128 {
		base = base[len(base)-128:]
	}
	return base
}

// ObjectKey returns uploads/{form_id}/{field_id}/{random}-{filename}.
func ObjectKey(formID uuid.UUID, fieldID, filename string) string {
	return path.Join(FolderUploads, formID.String(), SanitizeFilename(fieldID), uuid.NewString()+"-"+SanitizeFilename(filename))
}

// Upload is a presigned PUT target.
type Upload struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresignUpload returns a presigned PUT URL for key.
func (s *S3) PresignUpload(ctx context.Context, key, contentType string) (*Upload, error) {
	expiresAt := s.now().Add(s.expires).UTC()

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.expires
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &Upload{URL: req.URL, Method: req.Method, Key: key, ExpiresAt: expiresAt}, nil
}
