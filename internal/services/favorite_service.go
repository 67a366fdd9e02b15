package services

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteService struct {
	DB *gorm.DB
}

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{DB: db}
}

// Add is idempotent: favoriting twice leaves one row.
func (s *FavoriteService) Add(ctx context.Context, user *models.User, jobID uint) error {
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, jobID).Error; err != nil {
		return notFound("job", err)
	}
	if !job.IsOpen(time.Now()) {
		return fmt.Errorf("job %w", ErrNotFound)
	}
	fav := models.Favorite{UserID: user.ID, JobID: jobID}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Job").
		Create(&fav).Error
}

func (s *FavoriteService) Remove(ctx context.Context, user *models.User, jobID uint) error {
	res := s.DB.WithContext(ctx).Where("user_id = ? AND job_id = ?", user.ID, jobID).Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("favorite %w", ErrNotFound)
	}
	return nil
}

func (s *FavoriteService) List(ctx context.Context, user *models.User) ([]models.Favorite, error) {
	var favs []models.Favorite
	err := s.DB.WithContext(ctx).
		Preload("Job").Preload("Job.Company").Preload("Job.Features").Preload("Job.Prefectures").
		Where("user_id = ?", user.ID).
		Order("id DESC").
		Find(&favs).Error
	return favs, err
}
