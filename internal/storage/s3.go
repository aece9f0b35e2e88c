package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Provider streams exports to a bucket with the multipart upload manager.
type S3Provider struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Provider(client *s3.Client, bucket, prefix string) *S3Provider {
	return &S3Provider{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client, optionally against a custom endpoint.
func NewS3Client(cfg aws.Config, endpoint string, pathStyle bool) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})
}

func (p *S3Provider) objectKey(key string) string {
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}

func (p *S3Provider) StreamToFile(ctx context.Context, key, contentType string) (io.WriteCloser, <-chan error) {
	reader, writer := io.Pipe()
	errChan := make(chan error, 1)
	objectKey := p.objectKey(key)

	go func() {
		defer close(errChan)

		uploader := manager.NewUploader(p.client, func(u *manager.Uploader) {
			u.PartSize = 10 * 1024 * 1024
			u.Concurrency = 3
		})

		slog.Info("Starting S3 upload", "bucket", p.bucket, "key", objectKey)
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(objectKey),
			Body:        reader,
			ContentType: aws.String(contentType),
		})
		// Unblock the writer side if the upload gave up early.
		_ = reader.CloseWithError(err)

		if err != nil {
			slog.Error("S3 upload failed", "key", objectKey, "error", err)
			errChan <- fmt.Errorf("s3 upload failed: %w", err)
			return
		}
		slog.Info("S3 upload finished", "key", objectKey)
		errChan <- nil
	}()

	// *io.PipeWriter implements Aborter: CloseWithError fails the upload
	// instead of completing a partial object.
	return writer, errChan
}

func (p *S3Provider) OpenFile(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.objectKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return out.Body, nil
}

func (p *S3Provider) GetDownloadURL(key string) string {
	return fmt.Sprintf("s3://%s/%s", p.bucket, p.objectKey(key))
}
