package services

import (
	"context"
	"time"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	dateLayout       = "2006-01-02"
	defaultRangeDays = 30
	maxRangeDays     = 366
)

type AnalyticsService struct {
	DB  *gorm.DB
	Log *zap.Logger
	now func() time.Time
}

func NewAnalyticsService(db *gorm.DB, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{DB: db, Log: log, now: time.Now}
}

// Summary returns platform totals and the daily series for [from, to].
func (s *AnalyticsService) Summary(ctx context.Context, q *dtos.AnalyticsQuery) (*dtos.AnalyticsSummary, error) {
	from, to, err := s.dateRange(q)
	if err != nil {
		return nil, err
	}
	out := &dtos.AnalyticsSummary{From: from.Format(dateLayout), To: to.Format(dateLayout), Daily: []models.DailyStat{}}

	db := s.DB.WithContext(ctx)
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&out.Totals.JobSeekers, db.Model(&models.User{}).Where("role = ?", models.RoleJobSeeker)},
		{&out.Totals.Employers, db.Model(&models.User{}).Where("role = ?", models.RoleEmployer)},
		{&out.Totals.OpenJobs, db.Model(&models.Job{}).Where("status = ?", models.JobOpen)},
		{&out.Totals.Applications, db.Model(&models.Application{})},
		{&out.Totals.Messages, db.Model(&models.ChatMessage{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	err = db.Where("date >= ? AND date <= ?", out.From, out.To).Order("date").Find(&out.Daily).Error
	return out, err
}

const maxTopJobs = 100

// TopJobs ranks jobs by views recorded in the range.
func (s *AnalyticsService) TopJobs(ctx context.Context, q *dtos.AnalyticsQuery) ([]dtos.JobStat, error) {
	from, to, err := s.dateRange(q)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = 10
	case limit > maxTopJobs:
		limit = maxTopJobs
	}
	start, end := from, to.AddDate(0, 0, 1)

	stats := []dtos.JobStat{}
	err = s.DB.WithContext(ctx).
		Table("job_views").
		Select(`jobs.id AS job_id, jobs.title AS title, COUNT(job_views.id) AS views,
			(SELECT COUNT(*) FROM applications a WHERE a.job_id = jobs.id AND a.created_at >= ? AND a.created_at < ?) AS applications`, start, end).
		Joins("JOIN jobs ON jobs.id = job_views.job_id").
		Where("job_views.created_at >= ? AND job_views.created_at < ?", start, end).
		Group("jobs.id, jobs.title").
		Order("views DESC, jobs.id DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

// EmployerStats lists lifetime counters for the employer's own postings.
func (s *AnalyticsService) EmployerStats(ctx context.Context, employer *models.User) ([]dtos.JobStat, error) {
	stats := []dtos.JobStat{}
	err := s.DB.WithContext(ctx).
		Model(&models.Job{}).
		Select("jobs.id AS job_id, jobs.title AS title, jobs.view_count AS views, jobs.application_count AS applications").
		Joins("JOIN companies ON companies.id = jobs.company_id").
		Where("companies.owner_id = ?", employer.ID).
		Order("jobs.id DESC").
		Scan(&stats).Error
	return stats, err
}

// Rollup recomputes the DailyStat row for the calendar day containing day.
func (s *AnalyticsService) Rollup(ctx context.Context, day time.Time) (*models.DailyStat, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	stat := &models.DailyStat{Date: start.Format(dateLayout)}

	db := s.DB.WithContext(ctx)
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stat.Views, db.Model(&models.JobView{}).Where("created_at >= ? AND created_at < ?", start, end)},
		{&stat.Applications, db.Model(&models.Application{}).Where("created_at >= ? AND created_at < ?", start, end)},
		{&stat.Registrations, db.Model(&models.User{}).Where("created_at >= ? AND created_at < ?", start, end)},
		{&stat.Messages, db.Model(&models.ChatMessage{}).Where("created_at >= ? AND created_at < ?", start, end)},
		{&stat.NewJobs, db.Model(&models.Job{}).Where("published_at >= ? AND published_at < ?", start, end)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"views", "applications", "registrations", "messages", "new_jobs", "updated_at"}),
	}).Create(stat).Error
	if err != nil {
		return nil, err
	}
	return stat, nil
}

// CloseExpiredJobs closes open postings whose closes_at has passed.
func (s *AnalyticsService) CloseExpiredJobs(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Job{}).
		Where("status = ? AND closes_at IS NOT NULL AND closes_at <= ?", models.JobOpen, s.now()).
		Update("status", models.JobClosed)
	return res.RowsAffected, res.Error
}

func (s *AnalyticsService) dateRange(q *dtos.AnalyticsQuery) (time.Time, time.Time, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	to := today
	if q.To != "" {
		t, err := time.ParseInLocation(dateLayout, q.To, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, invalid("to must be YYYY-MM-DD")
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultRangeDays - 1))
	if q.From != "" {
		t, err := time.ParseInLocation(dateLayout, q.From, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, invalid("from must be YYYY-MM-DD")
		}
		from = t
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, invalid("from is after to")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, invalid("range is longer than %d days", maxRangeDays)
	}
	return from, to, nil
}
