package services

import (
	"context"

	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
)

type MasterService struct {
	DB *gorm.DB
}

func NewMasterService(db *gorm.DB) *MasterService {
	return &MasterService{DB: db}
}

func (s *MasterService) Features(ctx context.Context) ([]models.Feature, error) {
	var features []models.Feature
	err := s.DB.WithContext(ctx).Order("category, id").Find(&features).Error
	return features, err
}

func (s *MasterService) Prefectures(ctx context.Context) ([]models.Prefecture, error) {
	var prefs []models.Prefecture
	err := s.DB.WithContext(ctx).Order("code").Find(&prefs).Error
	return prefs, err
}
