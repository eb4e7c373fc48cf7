package repository

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
	"github.com/pkg/errors"
)

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
	uploader      *manager.Uploader
	urlExpiry     time.Duration
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient, uploader *manager.Uploader, urlExpiry time.Duration) downloads.AWSRepository {
	if urlExpiry <= 0 {
		urlExpiry = 60 * time.Minute
	}
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
		uploader:      uploader,
		urlExpiry:     urlExpiry,
	}
}

// progressReader wraps the artifact file so the uploader's concurrent
// part readers report a running byte count. Parts may be re-read on
// retry, so the count can exceed the file size; callers cap it.
type progressReader struct {
	file   *os.File
	read   int64
	onRead func(total int64)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)
	if n > 0 {
		r.report(int64(n))
	}
	return n, err
}

func (r *progressReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.file.ReadAt(p, off)
	if n > 0 {
		r.report(int64(n))
	}
	return n, err
}

func (r *progressReader) Seek(offset int64, whence int) (int64, error) {
	return r.file.Seek(offset, whence)
}

func (r *progressReader) report(n int64) {
	total := atomic.AddInt64(&r.read, n)
	if r.onRead != nil {
		r.onRead(total)
	}
}

func (a *awsRepository) UploadArtifact(ctx context.Context, input *models.UploadArtifactInput) error {
	file, err := os.Open(input.LocalPath)
	if err != nil {
		return errors.Wrap(err, "awsRepository.UploadArtifact.Open")
	}
	defer file.Close()

	_, err = a.uploader.Upload(
		ctx,
		&s3.PutObjectInput{
			Bucket:      &input.Bucket,
			Key:         &input.Key,
			ContentType: &input.ContentType,
			Body:        &progressReader{file: file, onRead: input.OnProgress},
		},
	)
	if err != nil {
		return errors.Wrap(err, "awsRepository.UploadArtifact.Upload")
	}
	return nil
}

func (a *awsRepository) GetPresignedURL(ctx context.Context, bucket, key string) (string, error) {
	if bucket == "" {
		return "", downloads.ErrBucketNotConfigured
	}
	getObjectReq, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(a.urlExpiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign get object : %w", err)
	}
	return getObjectReq.URL, nil
}
