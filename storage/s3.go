package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Object implements Object backed by a single S3 key.
type S3Object struct {
	bucket string
	key    string
	s3     objectGetter
}

func NewS3Object(client objectGetter, bucket, key string) *S3Object {
	return &S3Object{
		bucket: bucket,
		key:    key,
		s3:     client,
	}
}

func (o *S3Object) Load(ctx context.Context) ([]byte, error) {
	resp, err := o.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", o.bucket, o.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
