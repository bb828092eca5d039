package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ABFerraz00/mandacafe/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ImageStore persists dish pictures and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, prefix string, img *utils.DecodedImage) (string, error)
}

type S3ImageStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3ImageStore uses the default AWS credential chain. optFns can point the
// client at an S3-compatible endpoint.
func NewS3ImageStore(ctx context.Context, region, bucket, baseURL string, optFns ...func(*s3.Options)) (*S3ImageStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config for S3: %w", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3ImageStore{
		client:  s3.NewFromConfig(cfg, optFns...),
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *S3ImageStore) Upload(ctx context.Context, prefix string, img *utils.DecodedImage) (string, error) {
	key := fmt.Sprintf("pratos/%s-%d%s", prefix, time.Now().UnixNano(), img.Extension)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// WithS3Endpoint targets an S3-compatible service using path-style addressing.
func WithS3Endpoint(endpoint string) func(*s3.Options) {
	return func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}
