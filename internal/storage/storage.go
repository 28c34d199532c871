// Package storage provides the object store gateway for generated artifacts.
// Artifacts live in a single bucket under keys of the form
// {fingerprint}/{filename}.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/climateview/mapgen/internal/config"
	"github.com/climateview/mapgen/internal/logger"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// ArtifactInfo describes a single generated artifact.
type ArtifactInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ProxyURL     string    `json:"proxy_url"`
	Kind         FileKind  `json:"kind"`
}

// ObjectMeta carries the stored metadata of an artifact.
type ObjectMeta struct {
	ContentType string
	Size        int64
}

// Gateway abstracts artifact access for the rest of the service.
type Gateway interface {
	FolderExists(ctx context.Context, fingerprint string) bool
	ListFiles(ctx context.Context, fingerprint string) ([]ArtifactInfo, error)
	GetFile(ctx context.Context, fingerprint, filename string) (io.ReadCloser, ObjectMeta, error)
}

// Client is the MinIO-backed artifact gateway.
type Client struct {
	mc         *minio.Client
	bucket     string
	apiBaseURL string
}

// NewClient creates a new object store gateway from the store configuration.
func NewClient(cfg config.Store, apiBaseURL string) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &Client{
		mc:         mc,
		bucket:     cfg.Bucket,
		apiBaseURL: strings.TrimSuffix(apiBaseURL, "/"),
	}, nil
}

// FolderExists reports whether at least one object exists under the
// fingerprint prefix. Transport errors are treated as "does not exist": the
// caller will record the request as empty rather than fail the consumer.
func (c *Client) FolderExists(ctx context.Context, fingerprint string) bool {
	objects := c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:  fingerprint + "/",
		MaxKeys: 1,
	})

	for obj := range objects {
		if obj.Err != nil {
			logger.Warnf("Folder existence check failed for %s: %v", fingerprint, obj.Err)
			return false
		}
		return true
	}
	return false
}

// ListFiles enumerates all artifacts under the fingerprint prefix. Names are
// returned without the prefix and each entry carries a client-facing proxy
// URL instead of a direct store URL.
func (c *Client) ListFiles(ctx context.Context, fingerprint string) ([]ArtifactInfo, error) {
	prefix := fingerprint + "/"
	objects := c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var files []ArtifactInfo
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list artifacts for %s: %w", fingerprint, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		files = append(files, ArtifactInfo{
			Name:         name,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ProxyURL:     ProxyURL(c.apiBaseURL, fingerprint, name),
			Kind:         Classify(name),
		})
	}
	return files, nil
}

// GetFile streams a single artifact plus its stored metadata.
func (c *Client) GetFile(ctx context.Context, fingerprint, filename string) (io.ReadCloser, ObjectMeta, error) {
	key := fingerprint + "/" + filename
	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectMeta{}, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ObjectMeta{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, ObjectMeta{}, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return obj, ObjectMeta{
		ContentType: stat.ContentType,
		Size:        stat.Size,
	}, nil
}

// ProxyURL builds the client-facing download URL for an artifact.
func ProxyURL(apiBaseURL, fingerprint, filename string) string {
	return fmt.Sprintf("%s/api/v1/files/proxy/%s/%s",
		strings.TrimSuffix(apiBaseURL, "/"), fingerprint, filename)
}
