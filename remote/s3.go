package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Backend is a Backend storing objects in an Amazon S3 bucket, following
// the aws-sdk-go v1 client's usual construction (session.NewSession,
// s3.New, PutObjectWithContext/GetObjectWithContext).
type S3Backend struct {
	client *s3.S3
	bucket string
}

// NewS3Backend builds a Backend for bucket, resolving region from the
// AWS_REGION environment variable (defaulting to us-east-1) and credentials
// from the default AWS credential chain.
func NewS3Backend(bucket string) (*S3Backend, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3Backend{client: s3.New(sess), bucket: bucket}, nil
}

// Put uploads data to key in the bucket.
func (b *S3Backend) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", b.bucket, key, err)
	}
	return nil
}

// Get downloads the object at key from the bucket.
func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", b.bucket, key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Exists reports whether key is present in the bucket via a HEAD request.
func (b *S3Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if awsErr, ok := err.(awserr.Error); ok && (awsErr.Code() == s3.ErrCodeNoSuchKey || awsErr.Code() == "NotFound") {
		return false, nil
	}
	return false, fmt.Errorf("checking s3://%s/%s: %w", b.bucket, key, err)
}
