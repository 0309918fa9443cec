// Package s3store implements store.Client on an S3-compatible bucket.
//
// Object stores have no directories, so a directory is a zero-byte marker
// object whose key ends in "/" (the convention the MinIO console and most
// S3 tools use). Creation is stat-then-put and therefore not atomic, but
// writing the same empty marker twice leaves the same state behind.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

const markerContentType = "application/x-directory"

// Config addresses a bucket on an S3-compatible endpoint.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store is a store.Client backed by a bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string

	mu          sync.Mutex
	bucketReady bool
}

var _ store.Client = (*Store)(nil)

// New validates cfg and builds the client. No request is made.
func New(cfg Config) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func markerKey(path string) string {
	return store.Clean(path) + "/"
}

// ensureBucket creates the bucket if it is missing. Only success is
// remembered; a failed check is repeated by the next caller.
func (s *Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.bucketReady = true
	return nil
}

// CreateDirectory implements store.Client.
func (s *Store) CreateDirectory(ctx context.Context, path string) (store.Outcome, error) {
	if err := store.Validate(path); err != nil {
		return 0, store.NewError(store.OpCreate, path, store.KindUnknown, err)
	}
	path = store.Clean(path)

	if err := s.ensureBucket(ctx); err != nil {
		return 0, store.NewError(store.OpCreate, path, classify(err), fmt.Errorf("ensure bucket %s: %w", s.bucketName, err))
	}

	for _, p := range append(store.Ancestors(path), path) {
		leaf, err := s.exists(ctx, p)
		if err != nil {
			return 0, store.NewError(store.OpCreate, path, classify(err), err)
		}
		if leaf {
			return 0, store.NewError(store.OpCreate, path, store.KindConflict, fmt.Errorf("%s is an object, not a directory", p))
		}
	}

	dir, err := s.exists(ctx, markerKey(path))
	if err != nil {
		return 0, store.NewError(store.OpCreate, path, classify(err), err)
	}
	if dir {
		return store.AlreadyExists, nil
	}

	// Markers for ancestors first, so a partial failure never leaves a
	// child without its parent.
	for _, p := range append(store.Ancestors(path), path) {
		if _, err := s.client.PutObject(ctx, s.bucketName, markerKey(p), bytes.NewReader(nil), 0, minio.PutObjectOptions{
			ContentType: markerContentType,
		}); err != nil {
			return 0, store.NewError(store.OpCreate, path, classify(err), fmt.Errorf("put marker %s: %w", markerKey(p), err))
		}
	}
	return store.Created, nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

// ListRecursive implements store.Client. Directories implied by deeper
// objects are reported even when their marker is missing.
func (s *Store) ListRecursive(ctx context.Context, path string) ([]store.Node, error) {
	path = store.Clean(path)

	dir, err := s.exists(ctx, markerKey(path))
	if err != nil {
		return nil, store.NewError(store.OpList, path, classify(err), err)
	}
	if !dir {
		return nil, store.NewError(store.OpList, path, store.KindNotFound, nil)
	}

	seen := make(map[string]bool)
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    markerKey(path),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, store.NewError(store.OpList, path, classify(obj.Err), obj.Err)
		}
		isDir := strings.HasSuffix(obj.Key, "/")
		p := store.Clean(obj.Key)
		if p == path {
			continue
		}
		seen[p] = seen[p] || isDir
		for _, a := range store.Ancestors(p) {
			if store.IsBelow(a, path) {
				seen[a] = true
			}
		}
	}

	nodes := make([]store.Node, 0, len(seen))
	for p, isDir := range seen {
		nodes = append(nodes, store.Node{Path: p, Dir: isDir})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

// Close implements store.Client. The minio client holds no resources
// that need releasing.
func (s *Store) Close() error {
	return nil
}

func classify(err error) store.Kind {
	var resp minio.ErrorResponse
	errors.As(err, &resp)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return store.KindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
		return store.KindPermissionDenied
	case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout", "XMinioServerNotInitialized":
		return store.KindTransient
	}
	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusUnauthorized:
		return store.KindPermissionDenied
	case http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return store.KindTransient
	}
	if kind, ok := store.ClassifyNetError(err); ok {
		return kind
	}
	return store.KindUnknown
}
