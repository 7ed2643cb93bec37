package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadTimeout = 2 * time.Minute

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Uploader puts export artifacts under a hive-style key layout.
type S3Uploader struct {
	client putObjectAPI
	bucket string
	prefix string
	log    *logger.Entry
}

func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Uploader(client putObjectAPI, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    logger.Get().WithComponent("export"),
	}
}

// Key is prefix/symbol=X/date=YYYY-MM-DD/name.
func (u *S3Uploader) Key(a *domain.Analysis, art *Artifact) string {
	generated := a.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	return path.Join(
		u.prefix,
		"symbol="+strings.ToUpper(a.Symbol),
		"date="+generated.UTC().Format("2006-01-02"),
		art.Name,
	)
}

// Upload stores art and returns its s3:// URI.
func (u *S3Uploader) Upload(ctx context.Context, a *domain.Analysis, art *Artifact) (string, error) {
	key := u.Key(a, art)
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(art.Data),
		ContentType: aws.String(art.ContentType),
		Metadata: map[string]string{
			"run-id":       a.RunID,
			"price-source": a.PriceSource,
			"records":      fmt.Sprintf("%d", len(a.Records)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	u.log.WithFields(logger.Fields{"uri": uri, "bytes": len(art.Data)}).Info("export uploaded")
	return uri, nil
}
