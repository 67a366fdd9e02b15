package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// uploadPurposes maps each purpose to the content types it accepts.
var uploadPurposes = map[string][]string{
	"avatar":       imageTypes,
	"company_logo": imageTypes,
	"column":       imageTypes,
	"interview":    imageTypes,
	"resume":       append(slices.Clone(imageTypes), "application/pdf"),
	"chat":         append(slices.Clone(imageTypes), "application/pdf"),
}

type UploadService struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Storage  storage.Storage
	MaxBytes int64
	now      func() time.Time
}

func NewUploadService(db *gorm.DB, log *zap.Logger, store storage.Storage, maxBytes int64) *UploadService {
	return &UploadService{DB: db, Log: log, Storage: store, MaxBytes: maxBytes, now: time.Now}
}

// Upload sniffs the content, stores it under purpose/YYYY/MM/<uuid><ext>
// and records who uploaded it.
func (s *UploadService) Upload(ctx context.Context, owner *models.User, purpose string, body io.Reader) (*dtos.UploadResponse, error) {
	allowed, ok := uploadPurposes[purpose]
	if !ok {
		return nil, invalid("unknown upload purpose %q", purpose)
	}

	data, err := io.ReadAll(io.LimitReader(body, s.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.MaxBytes)
	}
	if len(data) == 0 {
		return nil, invalid("file is empty")
	}

	mt := mimetype.Detect(data)
	contentType := ""
	for _, t := range allowed {
		if mt.Is(t) {
			contentType = t
			break
		}
	}
	if contentType == "" {
		return nil, invalid("%s is not allowed for %s", mt.String(), purpose)
	}

	key := fmt.Sprintf("%s/%s/%s%s", purpose, s.now().UTC().Format("2006/01"), uuid.NewString(), mt.Extension())
	url, err := s.Storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	rec := &models.Upload{
		OwnerID:     owner.ID,
		Key:         key,
		URL:         url,
		ContentType: contentType,
		Size:        int64(len(data)),
		Purpose:     purpose,
	}
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			s.Log.Warn("orphaned upload", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	s.Log.Info("file uploaded",
		zap.Uint("owner_id", owner.ID),
		zap.String("purpose", purpose),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return &dtos.UploadResponse{ID: rec.ID, URL: url, ContentType: contentType, Size: rec.Size}, nil
}
