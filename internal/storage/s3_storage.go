package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mpiyush15/pixels-official-sub001/internal/config"
)

// MaxPresignTTL is the longest lifetime S3 SigV4 accepts for a presigned URL.
const MaxPresignTTL = 7 * 24 * time.Hour

// IS3Storage defines the interface for S3 operations.
type IS3Storage interface {
	// GeneratePresignedPutURL returns a presigned upload URL and the object key for a submitted work file.
	GeneratePresignedPutURL(ctx context.Context, ownerID, filename, contentType string) (url string, key string, err error)
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	// PresignGetURL returns a download link for key. ttl is capped at MaxPresignTTL.
	PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Storage creates a new S3 storage service.
func NewS3Storage(cfg *config.Config) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AwsS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AwsS3Endpoint)
			o.UsePathStyle = true
		}
	})
	presignClient := s3.NewPresignClient(s3Client)

	return &s3Storage{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: presignClient,
	}, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips directory components and characters that are unsafe in object keys.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	return base
}

// WorkFileKey builds the object key for an uploaded work file.
func WorkFileKey(ownerID, filename string) string {
	return fmt.Sprintf("submissions/%s/%s_%s", ownerID, uuid.NewString(), SanitizeFilename(filename))
}

// InvoiceDocumentKey builds the object key for a generated invoice document.
func InvoiceDocumentKey(clientID, invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s/%s.html", clientID, SanitizeFilename(invoiceNumber))
}

func (s *s3Storage) GeneratePresignedPutURL(ctx context.Context, ownerID, filename, contentType string) (string, string, error) {
	objectKey := WorkFileKey(ownerID, filename)

	presignParams := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}

	presignedReq, err := s.presignClient.PresignPutObject(ctx, presignParams, s3.WithPresignExpires(s.cfg.UploadURLTTL))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	slog.Debug("generated presigned upload URL", "key", objectKey, "ttl", s.cfg.UploadURLTTL)
	return presignedReq.URL, objectKey, nil
}

func (s *s3Storage) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.AwsS3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

func (s *s3Storage) PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ttl = ClampTTL(ttl)
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned GET URL for key %s: %w", key, err)
	}
	return req.URL, nil
}

// ClampTTL bounds ttl to (0, MaxPresignTTL]; non-positive values become one hour.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Hour
	}
	if ttl > MaxPresignTTL {
		return MaxPresignTTL
	}
	return ttl
}
