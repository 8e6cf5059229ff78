// Package avatars issues presigned S3 URLs for user avatar images. Stored
// avatar references of the form s3://<key> are resolved to short-lived GET
// URLs; any other reference is returned as is.
package avatars

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// RefPrefix marks avatar references that live in the bucket.
const RefPrefix = "s3://"

// PresignExpiry is the lifetime of every URL this package hands out.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config locates the bucket. BaseEndpoint is set for S3-compatible servers
// such as MinIO and switches the client to path-style addressing.
type Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// Upload is a presigned upload slot.
type Upload struct {
	Key string
	// Ref is what gets stored on the user record.
	Ref string
	URL string
}

type Store struct {
	bucket  string
	presign *s3.PresignClient
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{bucket: cfg.Bucket, presign: s3.NewPresignClient(client)}, nil
}

// NewKey returns a fresh object key under the user's prefix.
func NewKey(userID string) string {
	return fmt.Sprintf("avatars/%s/%s", userID, uuid.NewString())
}

// PresignUpload reserves a new key for userID and returns a PUT URL for it.
func (s *Store) PresignUpload(ctx context.Context, userID string) (*Upload, error) {
	key := NewKey(userID)

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &Upload{Key: key, Ref: RefPrefix + key, URL: req.URL}, nil
}

// Resolve turns a stored reference into a URL a browser can load. A nil
// Store passes every reference through.
func (s *Store) Resolve(ctx context.Context, ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, RefPrefix)
	if s == nil || !ok {
		return ref, nil
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
