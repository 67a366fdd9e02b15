package services

import (
	"context"
	"errors"
	"strings"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
)

type CompanyService struct {
	DB *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{DB: db}
}

func (s *CompanyService) GetByOwner(ctx context.Context, ownerID uint) (*models.Company, error) {
	var company models.Company
	err := s.DB.WithContext(ctx).Preload("Prefecture").Where("owner_id = ?", ownerID).First(&company).Error
	if err != nil {
		return nil, notFound("company", err)
	}
	return &company, nil
}

// Upsert creates the caller's company on first call and updates it afterwards.
func (s *CompanyService) Upsert(ctx context.Context, owner *models.User, req *dtos.CompanyRequest) (*models.Company, error) {
	if req.PrefectureID != nil && *req.PrefectureID != 0 {
		if err := ensureExists[models.Prefecture](ctx, s.DB, []uint{*req.PrefectureID}); err != nil {
			return nil, err
		}
	} else {
		req.PrefectureID = nil
	}

	var company models.Company
	err := s.DB.WithContext(ctx).Where(models.Company{OwnerID: owner.ID}).First(&company).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	company.OwnerID = owner.ID
	company.Name = strings.TrimSpace(req.Name)
	company.Description = req.Description
	company.Website = req.Website
	company.LogoURL = req.LogoURL
	company.Address = req.Address
	company.PrefectureID = req.PrefectureID
	company.Prefecture = nil

	if err := s.DB.WithContext(ctx).Save(&company).Error; err != nil {
		return nil, err
	}
	return s.GetByOwner(ctx, owner.ID)
}

// GetPublic returns the company with its currently open jobs.
func (s *CompanyService) GetPublic(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	err := s.DB.WithContext(ctx).
		Preload("Prefecture").
		Preload("Jobs", "status = ?", models.JobOpen).
		Preload("Jobs.Features").
		Preload("Jobs.Prefectures").
		First(&company, id).Error
	if err != nil {
		return nil, notFound("company", err)
	}
	return &company, nil
}
