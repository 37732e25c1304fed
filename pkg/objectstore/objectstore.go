// Package objectstore puts uploaded media into S3-compatible storage
// (MinIO in deployments) and hands out presigned download URLs. Uploads
// arrive as base64 data URLs from the frontend; each bucket accepts a fixed
// set of media types.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/sdghub/backend/pkg/config"
)

var (
	ErrUnsupportedMediaType = errors.New("media type not allowed for this bucket")
	ErrUploadFailed         = errors.New("object upload failed")
)

const (
	BucketProjects = "projects"
	BucketPictures = "pictures"
	BucketVideos   = "videos"
)

// allowedTypes maps each bucket to the MIME types it accepts, and each
// accepted type to the object key extension.
var allowedTypes = map[string]map[string]string{
	BucketProjects: {
		"application/pdf": "pdf",
	},
	BucketPictures: {
		"image/jpeg": "jpeg",
		"image/jpg":  "jpg",
		"image/png":  "png",
	},
	BucketVideos: {
		"video/mp4":       "mp4",
		"video/quicktime": "mov",
	},
}

type Client struct {
	s3         *s3.Client
	presigner  *s3.PresignClient
	presignTTL time.Duration
}

func NewClient(ctx context.Context, conf *config.StorageConfig) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
		),
		awsconfig.WithRegion(conf.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(conf.Endpoint)
		o.UsePathStyle = conf.UsePathStyle
	})

	return &Client{
		s3:         client,
		presigner:  s3.NewPresignClient(client),
		presignTTL: time.Duration(conf.PresignTTLMin) * time.Minute,
	}, nil
}

// PutBase64 decodes a data URL, checks its MIME type against the bucket's
// whitelist and stores it under a fresh uuid key. The returned key is what
// gets persisted on the owning row.
func (c *Client) PutBase64(ctx context.Context, bucket, dataURL string) (string, error) {
	whitelist, ok := allowedTypes[bucket]
	if !ok {
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}

	mediaType, payload, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", ErrUnsupportedMediaType
	}
	ext, ok := whitelist[mediaType]
	if !ok {
		return "", ErrUnsupportedMediaType
	}

	key := fmt.Sprintf("%s.%s", uuid.New(), ext)
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(mediaType),
	})
	if err != nil {
		klog.Errorf("put %s/%s: %v", bucket, key, err)
		return "", ErrUploadFailed
	}
	return key, nil
}

// PresignedURL returns a time-limited GET URL for a stored object.
func (c *Client) PresignedURL(ctx context.Context, bucket, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}
