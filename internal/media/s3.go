package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// S3Storage keeps sponsor documents in a bucket.
type S3Storage struct {
	client  s3iface.S3API
	bucket  string
	baseURL string
}

func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	awsCfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Region:           aws.String(cfg.Region),
		DisableSSL:       aws.Bool(!cfg.UseSSL),
		S3ForcePathStyle: aws.Bool(cfg.Endpoint != ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3: session: %w", err)
	}
	return newS3Storage(s3.New(sess), cfg), nil
}

func newS3Storage(client s3iface.S3API, cfg S3Config) *S3Storage {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "https"
		if !cfg.UseSSL {
			scheme = "http"
		}
		if cfg.Endpoint != "" {
			host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
			base = fmt.Sprintf("%s://%s/%s", scheme, strings.TrimRight(host, "/"), cfg.Bucket)
		} else {
			base = fmt.Sprintf("%s://%s.s3.%s.amazonaws.com", scheme, cfg.Bucket, cfg.Region)
		}
	}
	return &S3Storage{client: client, bucket: cfg.Bucket, baseURL: base}
}

// Put uploads data under key and returns its public URL.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimLeft(key, "/")
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}
