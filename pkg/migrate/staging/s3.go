package staging

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/hashicorp/go-multierror"
)

// DefaultMaxRetry : put attempts per chunk file
const DefaultMaxRetry = 3

// S3Store : stages chunk files under s3://<bucket>/<prefix>/<dir>
type S3Store struct {
	client   s3iface.S3API
	bucket   string
	prefix   string
	MaxRetry int
}

func NewS3Store(client s3iface.S3API, bucket string, prefix string) *S3Store {
	return &S3Store{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		MaxRetry: DefaultMaxRetry,
	}
}

func (s *S3Store) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

func (s *S3Store) Write(ctx context.Context, dir string, name string, payload []byte) error {
	var (
		retryCtr int
		err      error
		key      = s.key(dir, name)
	)
	for retryCtr < s.MaxRetry {
		_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Body:   bytes.NewReader(payload),
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil || ctx.Err() != nil {
			break
		}
		retryCtr++
	}
	if err != nil {
		return fmt.Errorf("attempted uploading key (%s) %d times with no success : %w", key, retryCtr, err)
	}
	return nil
}

func (s *S3Store) Location(dir string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(dir))
}

// Remove : deletes every object under dir
func (s *S3Store) Remove(ctx context.Context, dir string) error {
	var (
		objects []*s3.ObjectIdentifier
		result  error
	)
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(dir) + "/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, o := range page.Contents {
			objects = append(objects, &s3.ObjectIdentifier{Key: o.Key})
		}
		return true
	})
	if err != nil {
		return err
	}
	// delete objects accepts at most 1000 keys per call
	for start := 0; start < len(objects); start += 1000 {
		end := start + 1000
		if end > len(objects) {
			end = len(objects)
		}
		_, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: objects[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
