package archive

import (
	"bytes"
	"context"
	"fmt"

	"coderanker/pkg/config"
	"coderanker/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectPutter is the part of the S3 client used by the archiver.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores expired records on the log bucket.
type S3Archiver struct {
	client ObjectPutter
	bucket string
}

// NewS3Archiver creates an archiver on the configured log bucket.
// It returns false when no log bucket is set, archiving is then disabled.
func NewS3Archiver(bucket config.BucketConfig) (*S3Archiver, bool) {
	if bucket.LogBucket == "" {
		return nil, false
	}

	return &S3Archiver{
		client: logger.NewS3Client(bucket),
		bucket: bucket.LogBucket,
	}, true
}

// Archive uploads the body as a private JSON lines object.
func (a *S3Archiver) Archive(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s to S3 bucket: %w", key, err)
	}

	return nil
}
