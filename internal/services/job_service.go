package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type JobService struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Weights RecommendWeights
	now     func() time.Time
}

func NewJobService(db *gorm.DB, log *zap.Logger, weights RecommendWeights) *JobService {
	return &JobService{DB: db, Log: log, Weights: weights, now: time.Now}
}

func (s *JobService) CreateJob(ctx context.Context, employer *models.User, req *dtos.JobRequest) (*models.Job, error) {
	// Jobs always hang off the employer's company
	var company models.Company
	err := s.DB.WithContext(ctx).Where("owner_id = ?", employer.ID).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("create a company profile before posting jobs")
	}
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	job := &models.Job{
		CompanyID:      company.ID,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		EmploymentType: req.EmploymentType,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		ClosesAt:       req.ClosesAt,
		Status:         models.JobDraft,
		Features:       featureRefs(req.FeatureIDs),
		Prefectures:    prefectureRefs(req.PrefectureIDs),
	}
	if req.Publish {
		now := s.now()
		job.Status = models.JobOpen
		job.PublishedAt = &now
	}

	if err := s.DB.WithContext(ctx).Omit("Features.*", "Prefectures.*").Create(job).Error; err != nil {
		return nil, err
	}
	s.Log.Info("job created", zap.Uint("job_id", job.ID), zap.Uint("company_id", company.ID), zap.String("status", job.Status))
	return s.load(ctx, job.ID)
}

// UpdateJob replaces the editable fields and both association sets.
func (s *JobService) UpdateJob(ctx context.Context, actor *models.User, id uint, req *dtos.JobRequest) (*models.Job, error) {
	job, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":           strings.TrimSpace(req.Title),
			"description":     req.Description,
			"employment_type": req.EmploymentType,
			"salary_min":      req.SalaryMin,
			"salary_max":      req.SalaryMax,
			"closes_at":       req.ClosesAt,
		}
		if req.Publish && job.Status != models.JobOpen {
			now := s.now()
			updates["status"] = models.JobOpen
			if job.PublishedAt == nil {
				updates["published_at"] = now
			}
		}
		if err := tx.Model(&models.Job{ID: job.ID}).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Job{ID: job.ID}).Association("Features").Replace(featureRefs(req.FeatureIDs)); err != nil {
			return err
		}
		return tx.Model(&models.Job{ID: job.ID}).Association("Prefectures").Replace(prefectureRefs(req.PrefectureIDs))
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, job.ID)
}

func (s *JobService) DeleteJob(ctx context.Context, actor *models.User, id uint) error {
	job, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(&models.Job{}, job.ID).Error
}

func (s *JobService) Publish(ctx context.Context, actor *models.User, id uint) (*models.Job, error) {
	job, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if job.ClosesAt != nil && job.ClosesAt.Before(s.now()) {
		return nil, invalid("closing date is in the past")
	}
	updates := map[string]interface{}{"status": models.JobOpen}
	if job.PublishedAt == nil {
		updates["published_at"] = s.now()
	}
	if err := s.DB.WithContext(ctx).Model(&models.Job{ID: job.ID}).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.load(ctx, job.ID)
}

func (s *JobService) Close(ctx context.Context, actor *models.User, id uint) (*models.Job, error) {
	job, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.Job{ID: job.ID}).Update("status", models.JobClosed).Error; err != nil {
		return nil, err
	}
	return s.load(ctx, job.ID)
}

func (s *JobService) ListForEmployer(ctx context.Context, employer *models.User) ([]models.Job, error) {
	var jobs []models.Job
	err := s.DB.WithContext(ctx).
		Joins("JOIN companies ON companies.id = jobs.company_id AND companies.owner_id = ?", employer.ID).
		Preload("Features").Preload("Prefectures").
		Order("jobs.id DESC").
		Find(&jobs).Error
	return jobs, err
}

// GetJob returns a job for display and counts the view. Only open jobs are
// visible to the public; owners and admins can see drafts and closed ones.
func (s *JobService) GetJob(ctx context.Context, viewer *models.User, id uint) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobOpen && !canManage(viewer, job) {
		return nil, fmt.Errorf("job %w", ErrNotFound)
	}

	if job.Status == models.JobOpen {
		view := models.JobView{JobID: job.ID}
		if viewer != nil {
			view.UserID = &viewer.ID
		}
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&view).Error; err != nil {
				return err
			}
			return tx.Model(&models.Job{ID: job.ID}).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
		})
		if err != nil {
			// A lost view must not fail the page
			s.Log.Warn("record job view", zap.Uint("job_id", job.ID), zap.Error(err))
		} else {
			job.ViewCount++
		}
	}
	return job, nil
}

func (s *JobService) AdminUpdate(ctx context.Context, id uint, req *dtos.AdminJobUpdateRequest) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Status != nil {
		updates["status"] = *req.Status
		if *req.Status == models.JobOpen && job.PublishedAt == nil {
			updates["published_at"] = s.now()
		}
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.Job{ID: job.ID}).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.load(ctx, id)
}

func (s *JobService) load(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := s.DB.WithContext(ctx).
		Preload("Company").Preload("Features").Preload("Prefectures").
		First(&job, id).Error
	if err != nil {
		return nil, notFound("job", err)
	}
	return &job, nil
}

func (s *JobService) owned(ctx context.Context, actor *models.User, id uint) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, job) {
		return nil, ErrForbidden
	}
	return job, nil
}

func (s *JobService) validate(ctx context.Context, req *dtos.JobRequest) error {
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		return invalid("salary_min must not exceed salary_max")
	}
	if err := ensureExists[models.Feature](ctx, s.DB, req.FeatureIDs); err != nil {
		return err
	}
	return ensureExists[models.Prefecture](ctx, s.DB, req.PrefectureIDs)
}

func canManage(user *models.User, job *models.Job) bool {
	if user == nil {
		return false
	}
	return user.Role == models.RoleAdmin || (user.Role == models.RoleEmployer && job.Company.OwnerID == user.ID)
}

func featureRefs(ids []uint) []models.Feature {
	out := []models.Feature{}
	for _, id := range uniqueIDs(ids) {
		out = append(out, models.Feature{ID: id})
	}
	return out
}

func prefectureRefs(ids []uint) []models.Prefecture {
	out := []models.Prefecture{}
	for _, id := range uniqueIDs(ids) {
		out = append(out, models.Prefecture{ID: id})
	}
	return out
}
