package minio

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/pkg/errors"
)

type MockMinIOAPI struct {
	mock.Mock
}

func (m *MockMinIOAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinIOAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockMinIOAPI) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

func (m *MockMinIOAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinIOAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMinIOAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

type RepositoryTestSuite struct {
	suite.Suite
	api   *MockMinIOAPI
	store AssetStore
}

func (s *RepositoryTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	client := newClientWithAPI(s.api, &MinIOConfig{Bucket: "assets", Prefix: "v1/", MaxObjectSize: 1024}, logging.NewNopLogger())
	s.store = NewAssetStore(client, logging.NewNopLogger())
}

func (s *RepositoryTestSuite) TestRead_Success() {
	body := `[{"substance":"CITRIC ACID"}]`
	s.api.On("StatObject", mock.Anything, "assets", "v1/catalog.json", mock.Anything).
		Return(minio.ObjectInfo{Key: "v1/catalog.json", Size: int64(len(body))}, nil)
	s.api.On("GetObject", mock.Anything, "assets", "v1/catalog.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(body)), nil)

	data, err := s.store.Read(context.Background(), "catalog.json")
	s.NoError(err)
	s.Equal(body, string(data))
}

func (s *RepositoryTestSuite) TestOpen_NotFound() {
	s.api.On("StatObject", mock.Anything, "assets", "v1/missing.csv", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", Message: "missing"})

	_, err := s.store.Open(context.Background(), "missing.csv")
	s.True(errors.IsCode(err, errors.CodeAssetNotFound))
	s.api.AssertNotCalled(s.T(), "GetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *RepositoryTestSuite) TestOpen_TooLarge() {
	s.api.On("StatObject", mock.Anything, "assets", "v1/big.json", mock.Anything).
		Return(minio.ObjectInfo{Size: 4096}, nil)

	_, err := s.store.Open(context.Background(), "big.json")
	s.True(errors.IsCode(err, errors.CodeAssetRead))
}

func (s *RepositoryTestSuite) TestOpen_EmptyName() {
	_, err := s.store.Open(context.Background(), "")
	s.True(errors.IsCode(err, errors.CodeInvalidParam))
}

func (s *RepositoryTestSuite) TestOpen_BackendError() {
	s.api.On("StatObject", mock.Anything, "assets", "v1/catalog.json", mock.Anything).
		Return(minio.ObjectInfo{}, assert.AnError)

	_, err := s.store.Open(context.Background(), "catalog.json")
	s.True(errors.IsCode(err, errors.CodeAssetRead))
}

func (s *RepositoryTestSuite) TestUpload_DetectsContentType() {
	s.api.On("PutObject", mock.Anything, "assets", "v1/regs.csv", mock.Anything, int64(9), minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"}).
		Return(minio.UploadInfo{Bucket: "assets", Key: "v1/regs.csv", Size: 9}, nil)

	res, err := s.store.Upload(context.Background(), "regs.csv", []byte("Substance"), "")
	s.NoError(err)
	s.Equal("v1/regs.csv", res.ObjectKey)
	s.Equal(int64(9), res.Size)
}

func (s *RepositoryTestSuite) TestList() {
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "v1/catalog.json", Size: 10}
	ch <- minio.ObjectInfo{Key: "v1/regs.csv", Size: 20}
	close(ch)
	s.api.On("ListObjects", mock.Anything, "assets", minio.ListObjectsOptions{Recursive: true, Prefix: "v1/"}).
		Return((<-chan minio.ObjectInfo)(ch))

	objs, err := s.store.List(context.Background())
	s.NoError(err)
	s.Len(objs, 2)
	s.Equal("v1/regs.csv", objs[1].Key)
}

func (s *RepositoryTestSuite) TestStat() {
	s.api.On("StatObject", mock.Anything, "assets", "v1/catalog.json", mock.Anything).
		Return(minio.ObjectInfo{Key: "v1/catalog.json", Size: 10, ETag: "abc"}, nil)

	meta, err := s.store.Stat(context.Background(), "catalog.json")
	s.NoError(err)
	s.Equal("abc", meta.ETag)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
