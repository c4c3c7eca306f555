package filesink

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store represents a file/object storage system capable of put'ing a stream
// of data to a binary object with a specified key.
type Store interface {
	Upload(ctx context.Context, key string, r io.Reader) error

	// URI creates an identifier from a file key, usually by prepending the
	// URI scheme, for example "s3://".
	URI(key string) string
}

type S3Store struct {
	uploader *manager.Uploader
	bucket   string
}

// NewS3Store creates a bucket-scoped S3 store using the ambient AWS
// credential chain, which is how this job is expected to run when hosted as
// a scheduled task with an execution role.
func NewS3Store(ctx context.Context, bucket string, opts ...func(*awsConfig.LoadOptions) error) (*S3Store, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	uploader := manager.NewUploader(s3.NewFromConfig(awsCfg), func(u *manager.Uploader) {
		u.Concurrency = 1
		u.PartSize = manager.MinUploadPartSize
	})

	return &S3Store{
		uploader: uploader,
		bucket:   bucket,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	return err
}

func (s *S3Store) URI(key string) string {
	return "s3://" + path.Join(s.bucket, key)
}
