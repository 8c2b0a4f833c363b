// Package s3 uploads scrape results to S3-compatible object storage.
package s3

import (
	"bytes"
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/fs"
)

// Config describes the bucket results are written to.
type Config struct {
	Bucket string
	Region string

	// Endpoint selects an S3-compatible service such as MinIO. Setting it
	// switches to path-style addressing.
	Endpoint string

	// Static credentials. When empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// ObjectPutter is the subset of *s3.Client the Writer needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client for cfg.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "S3 bucket name is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "loading AWS config: %v", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Ensure Writer implements mcscrape.ResultWriter at compile time.
var _ mcscrape.ResultWriter = (*Writer)(nil)

// Writer uploads the same artifacts fs.Writer writes, one object each,
// under bucket/prefix.
type Writer struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	encoder mcscrape.TreeEncoder
}

// Option configures a Writer.
type Option func(*Writer)

// WithTreeEncoder also uploads the node tree encoded by enc.
func WithTreeEncoder(enc mcscrape.TreeEncoder) Option {
	return func(w *Writer) {
		w.encoder = enc
	}
}

// NewWriter creates a new Writer.
func NewWriter(client ObjectPutter, bucket, prefix string, opts ...Option) *Writer {
	w := &Writer{client: client, bucket: bucket, prefix: prefix}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteResult implements mcscrape.ResultWriter.
func (w *Writer) WriteResult(ctx context.Context, result *mcscrape.ScrapeResult) error {
	artifacts, err := fs.Artifacts(result, w.encoder)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		key := path.Join(w.prefix, a.Name)
		_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(w.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(a.Data),
			ContentType: aws.String(a.ContentType),
		})
		if err != nil {
			return mcscrape.WrapError(mcscrape.EINTERNAL, err, "uploading s3://%s/%s: %v", w.bucket, key, err)
		}
	}
	return nil
}
