package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedTransitions lists where an employer may move an application next.
var allowedTransitions = map[string][]string{
	models.AppApplied:   {models.AppScreening, models.AppInterview, models.AppRejected},
	models.AppScreening: {models.AppInterview, models.AppRejected},
	models.AppInterview: {models.AppOffered, models.AppRejected},
	models.AppOffered:   {models.AppHired, models.AppRejected},
}

func isTerminal(status string) bool {
	switch status {
	case models.AppHired, models.AppRejected, models.AppWithdrawn:
		return true
	}
	return false
}

type ApplicationService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewApplicationService(db *gorm.DB, log *zap.Logger) *ApplicationService {
	return &ApplicationService{DB: db, Log: log}
}

func (s *ApplicationService) Apply(ctx context.Context, seeker *models.User, jobID uint, req *dtos.ApplyRequest) (*models.Application, error) {
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, jobID).Error; err != nil {
		return nil, notFound("job", err)
	}
	if !job.IsOpen(time.Now()) {
		return nil, invalid("job is not accepting applications")
	}

	resume := strings.TrimSpace(req.ResumeURL)
	if resume == "" {
		resume = seeker.ResumeURL
	}
	app := &models.Application{
		JobID:       job.ID,
		UserID:      seeker.ID,
		CoverLetter: req.CoverLetter,
		ResumeURL:   resume,
		Status:      models.AppApplied,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Application{}).Unscoped().
			Where("job_id = ? AND user_id = ?", job.ID, seeker.ID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("already applied to this job: %w", ErrConflict)
		}
		if err := tx.Omit("Job", "User").Create(app).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Job{ID: job.ID}).
			UpdateColumn("application_count", gorm.Expr("application_count + 1")).Error; err != nil {
			return err
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: app.ID,
			ActorID:       seeker.ID,
			EventType:     "APPLIED",
			Details:       fmt.Sprintf("Applied to %s", job.Title),
		}).Error
	})
	if err != nil {
		return nil, conflict("already applied to this job", err)
	}
	s.Log.Info("application submitted", zap.Uint("application_id", app.ID), zap.Uint("job_id", job.ID))
	return s.load(ctx, app.ID)
}

func (s *ApplicationService) ListMine(ctx context.Context, seeker *models.User) ([]models.Application, error) {
	var apps []models.Application
	err := s.DB.WithContext(ctx).
		Preload("Job").Preload("Job.Company").
		Where("user_id = ?", seeker.ID).
		Order("id DESC").
		Find(&apps).Error
	return apps, err
}

func (s *ApplicationService) Withdraw(ctx context.Context, seeker *models.User, id uint) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != seeker.ID {
		return nil, ErrForbidden
	}
	if isTerminal(app.Status) {
		return nil, invalid("application is already %s", app.Status)
	}
	if err := s.transition(ctx, app, seeker, models.AppWithdrawn, ""); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// ListForEmployer returns applications to the employer's own jobs.
func (s *ApplicationService) ListForEmployer(ctx context.Context, employer *models.User, q *dtos.ApplicationListQuery) ([]models.Application, error) {
	query := s.DB.WithContext(ctx).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Joins("JOIN companies ON companies.id = jobs.company_id").
		Where("companies.owner_id = ?", employer.ID).
		Preload("Job").Preload("User")
	if q.JobID != 0 {
		query = query.Where("applications.job_id = ?", q.JobID)
	}
	if q.Status != "" {
		query = query.Where("applications.status = ?", q.Status)
	}

	var apps []models.Application
	err := query.Order("applications.id DESC").Find(&apps).Error
	return apps, err
}

func (s *ApplicationService) UpdateStatus(ctx context.Context, actor *models.User, id uint, req *dtos.ApplicationStatusRequest) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isEmployerOf(actor, app) && actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if !slices.Contains(allowedTransitions[app.Status], req.Status) {
		return nil, invalid("cannot move application from %s to %s", app.Status, req.Status)
	}
	if err := s.transition(ctx, app, actor, req.Status, req.Note); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Get is visible to the applicant, the owning employer and admins.
func (s *ApplicationService) Get(ctx context.Context, actor *models.User, id uint) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != actor.ID && !s.isEmployerOf(actor, app) && actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return app, nil
}

func (s *ApplicationService) transition(ctx context.Context, app *models.Application, actor *models.User, status, note string) error {
	details := fmt.Sprintf("Status changed from %s to %s", app.Status, status)
	if note = strings.TrimSpace(note); note != "" {
		details += ". Note: " + note
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guard against a concurrent change between load and update
		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, app.Status).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("application changed concurrently: %w", ErrConflict)
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: app.ID,
			ActorID:       actor.ID,
			EventType:     "STATUS_CHANGE",
			Details:       details,
		}).Error
	})
	if err != nil {
		return err
	}
	s.Log.Info("application status changed",
		zap.Uint("application_id", app.ID),
		zap.String("from", app.Status),
		zap.String("to", status),
	)
	return nil
}

func (s *ApplicationService) isEmployerOf(user *models.User, app *models.Application) bool {
	return user.Role == models.RoleEmployer && app.Job.Company.OwnerID == user.ID
}

func (s *ApplicationService) load(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := s.DB.WithContext(ctx).
		Preload("Job").Preload("Job.Company").Preload("User").
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("application %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}
