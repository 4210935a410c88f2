package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	info, err := s.Put(ctx, "products/a.png", strings.NewReader("png-bytes"), PutObjectOptions{Size: 9, ContentType: "image/png"})
	require.NoError(t, err)
	assert.EqualValues(t, 9, info.Size)

	rc, got, err := s.Get(ctx, "products/a.png")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "image/png", got.ContentType)

	require.NoError(t, s.Delete(ctx, "products/a.png"))
	_, _, err = s.Get(ctx, "products/a.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestNewMinIO_Validation(t *testing.T) {
	_, err := NewMinIO(context.Background(), MinIOConfig{})
	assert.EqualError(t, err, "minio endpoint is required")

	_, err = NewMinIO(context.Background(), MinIOConfig{Endpoint: "localhost:9000"})
	assert.EqualError(t, err, "minio credentials are required")

	_, err = NewMinIO(context.Background(), MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.EqualError(t, err, "minio bucket is required")
}
