// Package storage uploads report photos and chat images to S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/sony/gobreaker"
)

// ErrUpload marks a failed or rejected upload. The caller must not persist
// anything that references the object.
var ErrUpload = errors.New("image upload failed")

type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	breaker    *gobreaker.CircuitBreaker
	bucket     string
	region     string
	publicRead bool
	presignTTL time.Duration
}

func NewS3Store(ctx context.Context, region, bucket string, publicRead bool, presignTTL time.Duration) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "s3-upload",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		breaker:    cb,
		bucket:     bucket,
		region:     region,
		publicRead: publicRead,
		presignTTL: presignTTL,
	}, nil
}

// Upload stores the object and returns a URL the client can render. With a
// public bucket that is the canonical object URL, otherwise a presigned GET
// URL. A JPEG thumbnail is generated for images, best effort.
func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := s.put(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	if strings.HasPrefix(contentType, "image/") {
		if thumb, err := thumbnail(data); err == nil {
			_ = s.put(ctx, key+"_thumb.jpg", "image/jpeg", thumb)
		}
	}

	if s.publicRead {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, url.PathEscape(key)), nil
	}
	signed, err := s.PresignURL(ctx, key, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return signed, nil
}

func (s *S3Store) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
	})
	return err
}

func (s *S3Store) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	p := s3.NewPresignClient(s.client)
	req, err := p.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Resize(img, 320, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
