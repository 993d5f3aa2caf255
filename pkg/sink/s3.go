// Package sink ships run outputs to external stores: artifact files to S3,
// embedding tables to Postgres/pgvector and the claims graph to Neo4j.
package sink

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
)

// S3Uploader copies artifact files into a bucket under
// <prefix>/<run id>/<file name>.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Uploader builds an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS chain applies. A
// non-empty endpoint targets S3-compatible storage such as MinIO.
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3UploaderWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3UploaderWithClient wraps a preconfigured client.
func NewS3UploaderWithClient(client *s3.Client, bucket, prefix string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey returns the key an artifact is stored under.
func ObjectKey(prefix, runID, file string) string {
	return path.Join(prefix, runID, filepath.Base(file))
}

// ContentType guesses the MIME type of an artifact from its extension.
func ContentType(file string) string {
	switch filepath.Ext(file) {
	case ".snappy":
		return "application/x-snappy-framed"
	case ".prom":
		return "text/plain; version=0.0.4"
	case ".csv":
		return "text/csv"
	}
	if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Upload puts every file and returns the keys written, in input order.
func (u *S3Uploader) Upload(ctx context.Context, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := ObjectKey(u.prefix, runID, file)
		if err := u.put(ctx, key, file); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (u *S3Uploader) put(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open artifact %s: %w", file, err)
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ContentType(file)),
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", file, u.bucket, key, err)
	}
	return nil
}

// Ping checks that the bucket exists and the credentials can reach it.
func (u *S3Uploader) Ping(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", u.bucket, err)
	}
	return nil
}
