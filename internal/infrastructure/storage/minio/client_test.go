package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/pkg/errors"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &MinIOConfig{}
	applyDefaults(cfg)

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "additivelens-assets", cfg.Bucket)
	assert.Equal(t, int64(64*1024*1024), cfg.MaxObjectSize)
	assert.NotZero(t, cfg.ConnectTimeout)
}

func TestEnsureBucket_Exists(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "assets").Return(true, nil)

	c := newClientWithAPI(api, &MinIOConfig{Bucket: "assets"}, nil)
	require.NoError(t, c.EnsureBucket(context.Background()))
	api.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureBucket_MissingWithoutCreate(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "assets").Return(false, nil)

	c := newClientWithAPI(api, &MinIOConfig{Bucket: "assets"}, nil)
	err := c.EnsureBucket(context.Background())
	assert.True(t, errors.IsCode(err, errors.CodeAssetNotFound))
}

func TestEnsureBucket_Creates(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "assets").Return(false, nil)
	api.On("MakeBucket", mock.Anything, "assets", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

	c := newClientWithAPI(api, &MinIOConfig{Bucket: "assets", Region: "eu-west-1", CreateBucket: true}, nil)
	require.NoError(t, c.EnsureBucket(context.Background()))
	api.AssertExpectations(t)
}

func TestEnsureBucket_Unreachable(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "assets").Return(false, assert.AnError)

	c := newClientWithAPI(api, &MinIOConfig{Bucket: "assets"}, nil)
	err := c.EnsureBucket(context.Background())
	assert.True(t, errors.IsCode(err, errors.CodeServiceUnavailable))
}

func TestHealthCheck(t *testing.T) {
	api := new(MockMinIOAPI)
	api.On("BucketExists", mock.Anything, "assets").Return(false, nil)

	c := newClientWithAPI(api, &MinIOConfig{Bucket: "assets"}, nil)
	status, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Error, "assets")
}
