package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/pkg/errors"
)

var ErrInvalidRequest = errors.New(errors.CodeInvalidParam, "object key is required")

// AssetStore reads and publishes the data assets kept in object storage.
type AssetStore interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Stat(ctx context.Context, name string) (*ObjectMetadata, error)
	Upload(ctx context.Context, name string, data []byte, contentType string) (*UploadResult, error)
	List(ctx context.Context) ([]*ObjectMetadata, error)
}

type ObjectMetadata struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type minioRepository struct {
	client  *MinIOClient
	logger  logging.Logger
	bucket  string
	prefix  string
	maxSize int64
}

func NewAssetStore(client *MinIOClient, log logging.Logger) AssetStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &minioRepository{
		client:  client,
		logger:  log.Named("minio"),
		bucket:  client.config.Bucket,
		prefix:  strings.Trim(client.config.Prefix, "/"),
		maxSize: client.config.MaxObjectSize,
	}
}

func (r *minioRepository) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return path.Join(r.prefix, name)
}

// Open stats the object before fetching it so a missing asset surfaces as
// ASSET_001 instead of a failure on first read.
func (r *minioRepository) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" {
		return nil, ErrInvalidRequest
	}
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	key := r.key(name)
	info, err := r.client.GetClient().StatObject(ctx, r.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, r.translate(err, key)
	}
	if r.maxSize > 0 && info.Size > r.maxSize {
		return nil, errors.Newf(errors.CodeAssetRead, "object %s is %d bytes, limit %d", key, info.Size, r.maxSize)
	}
	obj, err := r.client.GetClient().GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, r.translate(err, key)
	}
	r.logger.Debug("Opened asset", logging.String("key", key), logging.Int64("size", info.Size))
	return obj, nil
}

func (r *minioRepository) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := r.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeAssetRead, "failed to read %s", r.key(name))
	}
	return data, nil
}

func (r *minioRepository) Stat(ctx context.Context, name string) (*ObjectMetadata, error) {
	key := r.key(name)
	info, err := r.client.GetClient().StatObject(ctx, r.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, r.translate(err, key)
	}
	return toMetadata(info), nil
}

func (r *minioRepository) Upload(ctx context.Context, name string, data []byte, contentType string) (*UploadResult, error) {
	if name == "" {
		return nil, ErrInvalidRequest
	}
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(512, len(data))])
	}
	key := r.key(name)
	info, err := r.client.GetClient().PutObject(ctx, r.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeAssetRead, "upload of %s failed", key)
	}
	r.logger.Info("Uploaded asset", logging.String("key", key), logging.Int64("size", info.Size))
	return &UploadResult{
		Bucket:     info.Bucket,
		ObjectKey:  info.Key,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now(),
	}, nil
}

func (r *minioRepository) List(ctx context.Context) ([]*ObjectMetadata, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if r.prefix != "" {
		opts.Prefix = r.prefix + "/"
	}
	var out []*ObjectMetadata
	for obj := range r.client.GetClient().ListObjects(ctx, r.bucket, opts) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.CodeAssetRead, "failed to list assets")
		}
		out = append(out, toMetadata(obj))
	}
	return out, nil
}

func (r *minioRepository) translate(err error, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.Newf(errors.CodeAssetNotFound, "asset %s not found in %s", key, r.bucket).WithCause(err)
	}
	return errors.Wrapf(err, errors.CodeAssetRead, "failed to fetch %s", key)
}

func toMetadata(info minio.ObjectInfo) *ObjectMetadata {
	return &ObjectMetadata{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}
}
