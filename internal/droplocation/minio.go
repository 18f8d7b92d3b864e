package droplocation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JonMunkholm/woimport/internal/core"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newMinioConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{useSSL: true}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

var _ core.DropLocation = (*MinioDropLocation)(nil)

// MinioDropLocation serves files stored under <bucket>/<projectID>/ in an
// S3-compatible object store. Only objects directly under the prefix are
// listed.
type MinioDropLocation struct {
	cfg    *minioConfig
	client *minio.Client
}

// NewMinioDropLocation creates a client for the configured endpoint.
func NewMinioDropLocation(opts ...MinioOpts) (*MinioDropLocation, error) {
	cfg := newMinioConfig(opts...)
	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, fmt.Errorf("minio drop location: endpoint and bucket are required")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio drop location: %w", err)
	}

	return &MinioDropLocation{cfg: cfg, client: client}, nil
}

// List returns the objects under the project prefix.
func (m *MinioDropLocation) List(ctx context.Context, projectID string) ([]core.FileInfo, error) {
	if err := checkName(projectID); err != nil {
		return nil, err
	}
	prefix := projectID + "/"

	files := make([]core.FileInfo, 0)
	for obj := range m.client.ListObjects(ctx, m.cfg.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, core.FileInfo{
			Name:    name,
			ModTime: obj.LastModified.UTC(),
			Size:    obj.Size,
		})
	}
	return files, nil
}

// Read downloads one object.
func (m *MinioDropLocation) Read(ctx context.Context, projectID, name string) ([]byte, error) {
	if err := checkName(projectID); err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}

	object, err := m.client.GetObject(ctx, m.cfg.bucket, projectID+"/"+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", name, err)
	}
	return data, nil
}

func (m *MinioDropLocation) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
