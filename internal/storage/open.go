package storage

import (
	"context"
	"fmt"
	"github.com/rs/zerolog/log"
	"strings"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

type Options struct {
	Backend        string
	Dir            string
	SQLitePath     string
	DynamoTable    string
	DynamoEndpoint string
	S3Bucket       string
	S3Prefix       string
	PostgresDSN    string
}

// Open builds the backend named by opts.Backend. Backends holding connections
// implement io.Closer.
func Open(ctx context.Context, opts Options) (Storage, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	log.Debug().Str("backend", backend).Msg("Opening storage backend")

	switch backend {
	case "", BackendMemory:
		return NewMemoryStorage(), nil
	case BackendFile:
		fs, err := NewFileStorage(opts.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendSQLite:
		db, err := OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendDynamoDB:
		if opts.DynamoTable == "" {
			return nil, fmt.Errorf("dynamodb storage needs a table name")
		}
		client, err := NewDynamoClient(ctx, opts.DynamoEndpoint)
		if err != nil {
			return nil, fmt.Errorf("creating DynamoDB client: %w", err)
		}
		return NewDynamoStorage(client, opts.DynamoTable), nil
	case BackendS3:
		if opts.S3Bucket == "" {
			return nil, fmt.Errorf("s3 storage needs a bucket name")
		}
		client, err := NewS3Client(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating S3 client: %w", err)
		}
		return NewS3Storage(client, opts.S3Bucket, opts.S3Prefix), nil
	case BackendPostgres:
		pg, err := OpenPostgres(opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
