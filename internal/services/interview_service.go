package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
)

type InterviewService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewInterviewService(db *gorm.DB) *InterviewService {
	return &InterviewService{DB: db, now: time.Now}
}

func (s *InterviewService) List(ctx context.Context, q *dtos.ContentListQuery, publishedOnly bool) (*dtos.Page[models.Interview], error) {
	page, perPage := pagination(q.Page, q.PerPage)
	query := s.DB.WithContext(ctx).Model(&models.Interview{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if q.CompanyID != 0 {
		query = query.Where("company_id = ?", q.CompanyID)
	}

	out := &dtos.Page[models.Interview]{Page: page, PerPage: perPage, Items: []models.Interview{}}
	if err := query.Count(&out.Total).Error; err != nil {
		return nil, err
	}
	err := query.Preload("Company").
		Order("published_at DESC, id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&out.Items).Error
	return out, err
}

func (s *InterviewService) Get(ctx context.Context, id uint, publishedOnly bool) (*models.Interview, error) {
	query := s.DB.WithContext(ctx).Preload("Company")
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	var iv models.Interview
	if err := query.First(&iv, id).Error; err != nil {
		return nil, notFound("interview", err)
	}
	return &iv, nil
}

func (s *InterviewService) Create(ctx context.Context, req *dtos.InterviewRequest) (*models.Interview, error) {
	iv := &models.Interview{}
	if err := s.apply(ctx, iv, req); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Omit("Company").Create(iv).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, iv.ID, false)
}

func (s *InterviewService) Update(ctx context.Context, id uint, req *dtos.InterviewRequest) (*models.Interview, error) {
	var iv models.Interview
	if err := s.DB.WithContext(ctx).First(&iv, id).Error; err != nil {
		return nil, notFound("interview", err)
	}
	if err := s.apply(ctx, &iv, req); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Omit("Company").Save(&iv).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, iv.ID, false)
}

func (s *InterviewService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Interview{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("interview %w", ErrNotFound)
	}
	return nil
}

func (s *InterviewService) apply(ctx context.Context, iv *models.Interview, req *dtos.InterviewRequest) error {
	if req.CompanyID != nil {
		if err := ensureExists[models.Company](ctx, s.DB, []uint{*req.CompanyID}); err != nil {
			return err
		}
	}
	iv.CompanyID = req.CompanyID
	iv.Title = strings.TrimSpace(req.Title)
	iv.IntervieweeName = strings.TrimSpace(req.IntervieweeName)
	iv.IntervieweeRole = strings.TrimSpace(req.IntervieweeRole)
	iv.Body = req.Body
	iv.ThumbnailURL = req.ThumbnailURL
	iv.Published = req.Published
	if iv.Published && iv.PublishedAt == nil {
		now := s.now()
		iv.PublishedAt = &now
	}
	return nil
}
