package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStorage keeps objects in a map.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (m *memStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = b
	return "https://cdn.example.com/" + key, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

func TestUpload(t *testing.T) {
	db := testutil.NewDB(t)
	store := &memStorage{}
	svc := NewUploadService(db, zap.NewNop(), store, 1024)
	user := testutil.CreateUser(t, db, models.RoleJobSeeker)
	ctx := context.Background()

	res, err := svc.Upload(ctx, user, "avatar", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.EqualValues(t, len(pngHeader), res.Size)
	assert.True(t, strings.HasPrefix(res.URL, "https://cdn.example.com/avatar/"), res.URL)
	assert.True(t, strings.HasSuffix(res.URL, ".png"), res.URL)

	var rec models.Upload
	require.NoError(t, db.First(&rec, res.ID).Error)
	assert.Equal(t, user.ID, rec.OwnerID)
	assert.Equal(t, "avatar", rec.Purpose)
	assert.Contains(t, store.objects, rec.Key)

	res, err = svc.Upload(ctx, user, "resume", bytes.NewReader(pdfHeader))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
}

func TestUploadRejects(t *testing.T) {
	db := testutil.NewDB(t)
	store := &memStorage{}
	svc := NewUploadService(db, zap.NewNop(), store, 64)
	user := testutil.CreateUser(t, db, models.RoleJobSeeker)
	ctx := context.Background()

	tests := []struct {
		name    string
		purpose string
		body    []byte
		want    error
	}{
		{"unknown purpose", "backup", pngHeader, ErrInvalidInput},
		{"pdf as avatar", "avatar", pdfHeader, ErrInvalidInput},
		{"plain text", "resume", []byte("just some text"), ErrInvalidInput},
		{"empty", "avatar", nil, ErrInvalidInput},
		{"too large", "avatar", bytes.Repeat(pngHeader, 3), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, user, tt.purpose, bytes.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, store.objects)

	store.putErr = errors.New("bucket unavailable")
	_, err := svc.Upload(ctx, user, "avatar", bytes.NewReader(pngHeader))
	assert.ErrorContains(t, err, "bucket unavailable")

	var count int64
	require.NoError(t, db.Model(&models.Upload{}).Count(&count).Error)
	assert.Zero(t, count)
}
