package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

const defaultPresignTTL = 15 * time.Minute

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver 발행된 글의 마크다운 원문을 S3 에 보관
type S3Archiver struct {
	client    objectPutter
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
	region    string
}

// S3Options Endpoint 는 MinIO 같은 호환 스토리지용 (비우면 AWS)
type S3Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string
	Endpoint        string
}

func NewS3Archiver(ctx context.Context, opts S3Options) *S3Archiver {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region: opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
		if err != nil {
			logger.Warn("Failed to load default AWS config, using region only", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = aws.Config{Region: opts.Region}
		}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		region:    opts.Region,
	}
}

// Put 객체 업로드 (같은 키면 덮어씀)
func (a *S3Archiver) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		logger.Error("Failed to upload archive object", err, map[string]interface{}{
			"bucket": a.bucket,
			"key":    key,
		})
		return fmt.Errorf("put %s: %w", key, err)
	}

	logger.Debug("Archive object uploaded", map[string]interface{}{
		"key":  key,
		"size": len(body),
	})
	return nil
}

// PresignGet 만료 시간이 있는 다운로드 URL
func (a *S3Archiver) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}

	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return req.URL, nil
}

// ObjectURL 공개 URL (CloudFront 등 baseURL 이 있으면 우선)
func (a *S3Archiver) ObjectURL(key string) string {
	if a.baseURL != "" {
		return fmt.Sprintf("%s/%s", a.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, key)
}
