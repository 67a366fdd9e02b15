package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func recordViews(t *testing.T, db *gorm.DB, job *models.Job, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&models.JobView{JobID: job.ID}).Error)
	}
}

func TestRollupAndSummary(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	apps := NewApplicationService(db, zap.NewNop())
	ctx := context.Background()

	_, company := employerWithCompany(t, db)
	job := testutil.CreateOpenJob(t, db, company, "Backend", nil, nil)
	seeker := testutil.CreateUser(t, db, models.RoleJobSeeker)
	_, err := apps.Apply(ctx, seeker, job.ID, &dtos.ApplyRequest{})
	require.NoError(t, err)
	recordViews(t, db, job, 3)

	stat, err := svc.Rollup(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(dateLayout), stat.Date)
	assert.EqualValues(t, 3, stat.Views)
	assert.EqualValues(t, 1, stat.Applications)
	assert.EqualValues(t, 2, stat.Registrations)
	assert.EqualValues(t, 1, stat.NewJobs)

	// rerunning the rollup updates the same row
	recordViews(t, db, job, 2)
	_, err = svc.Rollup(ctx, time.Now())
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, &dtos.AnalyticsQuery{})
	require.NoError(t, err)
	require.Len(t, summary.Daily, 1)
	assert.EqualValues(t, 5, summary.Daily[0].Views)
	assert.EqualValues(t, 1, summary.Totals.JobSeekers)
	assert.EqualValues(t, 1, summary.Totals.Employers)
	assert.EqualValues(t, 1, summary.Totals.OpenJobs)
	assert.EqualValues(t, 1, summary.Totals.Applications)

	yesterday, err := svc.Rollup(ctx, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, yesterday.Views)
	summary, err = svc.Summary(ctx, &dtos.AnalyticsQuery{})
	require.NoError(t, err)
	require.Len(t, summary.Daily, 2)
	assert.Equal(t, yesterday.Date, summary.Daily[0].Date, "ordered by date")
}

func TestTopJobsAndEmployerStats(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	ctx := context.Background()
	employer, company := employerWithCompany(t, db)
	_, other := employerWithCompany(t, db)

	quiet := testutil.CreateOpenJob(t, db, company, "Quiet", nil, nil)
	busy := testutil.CreateOpenJob(t, db, company, "Busy", nil, nil)
	elsewhere := testutil.CreateOpenJob(t, db, other, "Elsewhere", nil, nil)
	recordViews(t, db, quiet, 1)
	recordViews(t, db, busy, 4)
	recordViews(t, db, elsewhere, 2)

	top, err := svc.TopJobs(ctx, &dtos.AnalyticsQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Busy", top[0].Title)
	assert.EqualValues(t, 4, top[0].Views)
	assert.Equal(t, "Elsewhere", top[1].Title)

	require.NoError(t, db.Model(busy).Updates(map[string]any{"view_count": 7, "application_count": 2}).Error)
	stats, err := svc.EmployerStats(ctx, employer)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, busy.ID, stats[0].JobID)
	assert.EqualValues(t, 7, stats[0].Views)
	assert.EqualValues(t, 2, stats[0].Applications)
}

func TestTopJobsLimitIsCapped(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	_, company := employerWithCompany(t, db)
	for i := 0; i < maxTopJobs+5; i++ {
		recordViews(t, db, testutil.CreateOpenJob(t, db, company, fmt.Sprintf("Job %d", i), nil, nil), 1)
	}

	top, err := svc.TopJobs(context.Background(), &dtos.AnalyticsQuery{Limit: 10000})
	require.NoError(t, err)
	assert.Len(t, top, maxTopJobs)

	top, err = svc.TopJobs(context.Background(), &dtos.AnalyticsQuery{})
	require.NoError(t, err)
	assert.Len(t, top, 10)
}

func TestCloseExpiredJobs(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	_, company := employerWithCompany(t, db)
	expired := testutil.CreateOpenJob(t, db, company, "Expired", nil, nil)
	current := testutil.CreateOpenJob(t, db, company, "Current", nil, nil)
	require.NoError(t, db.Model(expired).Update("closes_at", time.Now().Add(-time.Hour)).Error)
	require.NoError(t, db.Model(current).Update("closes_at", time.Now().Add(time.Hour)).Error)

	n, err := svc.CloseExpiredJobs(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var got models.Job
	require.NoError(t, db.First(&got, expired.ID).Error)
	assert.Equal(t, models.JobClosed, got.Status)
	require.NoError(t, db.First(&got, current.ID).Error)
	assert.Equal(t, models.JobOpen, got.Status)
}

func TestDateRange(t *testing.T) {
	svc := &AnalyticsService{now: func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }}

	from, to, err := svc.dateRange(&dtos.AnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", from.Format(dateLayout))
	assert.Equal(t, "2026-03-15", to.Format(dateLayout))

	from, _, err = svc.dateRange(&dtos.AnalyticsQuery{From: "2026-03-01", To: "2026-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", from.Format(dateLayout))

	for name, q := range map[string]dtos.AnalyticsQuery{
		"bad from": {From: "03/01/2026"},
		"bad to":   {To: "yesterday"},
		"reversed": {From: "2026-03-10", To: "2026-03-01"},
		"too long": {From: "2024-01-01", To: "2026-01-01"},
	} {
		_, _, err := svc.dateRange(&q)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestStatsWorkerSync(t *testing.T) {
	db := testutil.NewDB(t)
	analytics := NewAnalyticsService(db, zap.NewNop())
	_, company := employerWithCompany(t, db)
	expired := testutil.CreateOpenJob(t, db, company, "Expired", nil, nil)
	require.NoError(t, db.Model(expired).Update("closes_at", time.Now().Add(-time.Minute)).Error)

	NewStatsWorker(analytics, time.Hour, zap.NewNop()).Sync(context.Background())

	var got models.Job
	require.NoError(t, db.First(&got, expired.ID).Error)
	assert.Equal(t, models.JobClosed, got.Status)

	var rows int64
	require.NoError(t, db.Model(&models.DailyStat{}).Count(&rows).Error)
	assert.EqualValues(t, 2, rows, "yesterday and today")
}
