package storage

import (
	"testing"

	"reasoning_backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	cfg := &config.Config{StorageType: "minio", BucketEndpoint: "localhost:9000", BucketAccessID: "id", BucketAccessKey: "key"}
	client, err := newClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", client.EndpointURL().Host)

	cfg.StorageType = "s3"
	cfg.BucketRegion = "eu-west-1"
	client, err = newClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https", client.EndpointURL().Scheme)

	cfg.StorageType = "ftp"
	_, err = newClient(cfg)
	assert.Error(t, err)
}
