package storage

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
	"io"
	"path"
	"strings"
)

// S3Client defines the S3 operations the storage needs
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores every key as an object under prefix
type S3Storage struct {
	client     S3Client
	bucketName string
	prefix     string
}

func NewS3Storage(client S3Client, bucketName, prefix string) *S3Storage {
	return &S3Storage{
		client:     client,
		bucketName: bucketName,
		prefix:     prefix,
	}
}

func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

func (s *S3Storage) objectKey(key string) string {
	return path.Join(s.prefix, key+".json")
}

func (s *S3Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if s.bucketName == "" {
		return "", false, NewError("get", key, errors.New("empty bucket name"))
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", false, nil
		}
		return "", false, NewError("get", key, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing S3 object body")
		}
	}(result.Body)

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return "", false, NewError("get", key, err)
	}
	return string(data), true, nil
}

func (s *S3Storage) SetItem(ctx context.Context, key, value string) error {
	if s.bucketName == "" {
		return NewError("set", key, errors.New("empty bucket name"))
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return NewError("set", key, err)
	}
	return nil
}

func (s *S3Storage) RemoveItem(ctx context.Context, key string) error {
	if s.bucketName == "" {
		return NewError("remove", key, errors.New("empty bucket name"))
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(key)),
	}); err != nil {
		return NewError("remove", key, err)
	}
	return nil
}
