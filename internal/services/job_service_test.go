package services

import (
	"context"
	"testing"
	"time"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCreateJob(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newJobService(t, db)
	ctx := context.Background()
	employer, company := employerWithCompany(t, db)
	remote := testutil.FeatureID(t, db, "remote")
	tokyo := testutil.PrefectureID(t, db, "13")

	t.Run("draft by default", func(t *testing.T) {
		job, err := svc.CreateJob(ctx, employer, &dtos.JobRequest{
			Title:          "  Backend Engineer ",
			Description:    "Go services",
			EmploymentType: models.EmploymentFullTime,
			FeatureIDs:     []uint{remote, remote},
			PrefectureIDs:  []uint{tokyo},
		})
		require.NoError(t, err)
		assert.Equal(t, "Backend Engineer", job.Title)
		assert.Equal(t, models.JobDraft, job.Status)
		assert.Nil(t, job.PublishedAt)
		assert.Equal(t, company.ID, job.CompanyID)
		require.Len(t, job.Features, 1)
		assert.Equal(t, "remote", job.Features[0].Slug)
		require.Len(t, job.Prefectures, 1)
	})

	t.Run("publish immediately", func(t *testing.T) {
		job, err := svc.CreateJob(ctx, employer, &dtos.JobRequest{
			Title: "SRE", Description: "On call", EmploymentType: models.EmploymentContract, Publish: true,
		})
		require.NoError(t, err)
		assert.Equal(t, models.JobOpen, job.Status)
		assert.NotNil(t, job.PublishedAt)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreateJob(ctx, employer, &dtos.JobRequest{
			Title: "X", Description: "Y", EmploymentType: models.EmploymentFullTime,
			SalaryMin: intPtr(6_000_000), SalaryMax: intPtr(4_000_000),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.CreateJob(ctx, employer, &dtos.JobRequest{
			Title: "X", Description: "Y", EmploymentType: models.EmploymentFullTime, FeatureIDs: []uint{9999},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("needs a company", func(t *testing.T) {
		bare := testutil.CreateUser(t, db, models.RoleEmployer)
		_, err := svc.CreateJob(ctx, bare, &dtos.JobRequest{Title: "X", Description: "Y", EmploymentType: models.EmploymentFullTime})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestUpdateJobReplacesAssociations(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newJobService(t, db)
	ctx := context.Background()
	employer, company := employerWithCompany(t, db)
	remote := testutil.FeatureID(t, db, "remote")
	bonus := testutil.FeatureID(t, db, "bonus")
	osaka := testutil.PrefectureID(t, db, "27")
	job := testutil.CreateOpenJob(t, db, company, "Old title", []uint{remote}, nil)

	got, err := svc.UpdateJob(ctx, employer, job.ID, &dtos.JobRequest{
		Title: "New title", Description: "d", EmploymentType: models.EmploymentPartTime,
		FeatureIDs: []uint{bonus}, PrefectureIDs: []uint{osaka},
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	require.Len(t, got.Features, 1)
	assert.Equal(t, bonus, got.Features[0].ID)
	require.Len(t, got.Prefectures, 1)
	assert.Equal(t, osaka, got.Prefectures[0].ID)

	other, _ := employerWithCompany(t, db)
	_, err = svc.UpdateJob(ctx, other, job.ID, &dtos.JobRequest{Title: "Hijack", Description: "d", EmploymentType: models.EmploymentFullTime})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestJobLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newJobService(t, db)
	ctx := context.Background()
	employer, _ := employerWithCompany(t, db)
	seeker := testutil.CreateUser(t, db, models.RoleJobSeeker)

	draft, err := svc.CreateJob(ctx, employer, &dtos.JobRequest{Title: "Draft", Description: "d", EmploymentType: models.EmploymentFullTime})
	require.NoError(t, err)

	// drafts are hidden from the public but visible to the owner
	_, err = svc.GetJob(ctx, seeker, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetJob(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetJob(ctx, employer, draft.ID)
	assert.NoError(t, err)

	published, err := svc.Publish(ctx, employer, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, published.Status)
	firstPublished := *published.PublishedAt

	got, err := svc.GetJob(ctx, seeker, draft.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ViewCount)
	got, err = svc.GetJob(ctx, nil, draft.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.ViewCount)

	var views int64
	require.NoError(t, db.Model(&models.JobView{}).Where("job_id = ?", draft.ID).Count(&views).Error)
	assert.EqualValues(t, 2, views)

	closed, err := svc.Close(ctx, employer, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobClosed, closed.Status)

	// republishing keeps the original publish time
	reopened, err := svc.Publish(ctx, employer, draft.ID)
	require.NoError(t, err)
	assert.True(t, firstPublished.Equal(*reopened.PublishedAt))

	require.NoError(t, svc.DeleteJob(ctx, employer, draft.ID))
	_, err = svc.GetJob(ctx, employer, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishRejectsPastClosingDate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newJobService(t, db)
	ctx := context.Background()
	employer, _ := employerWithCompany(t, db)

	past := time.Now().Add(-24 * time.Hour)
	job, err := svc.CreateJob(ctx, employer, &dtos.JobRequest{Title: "Late", Description: "d", EmploymentType: models.EmploymentFullTime, ClosesAt: &past})
	require.NoError(t, err)

	_, err = svc.Publish(ctx, employer, job.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newJobService(t, db)
	ctx := context.Background()
	employer, _ := employerWithCompany(t, db)
	job, err := svc.CreateJob(ctx, employer, &dtos.JobRequest{Title: "Draft", Description: "d", EmploymentType: models.EmploymentFullTime})
	require.NoError(t, err)

	open, featured := models.JobOpen, true
	got, err := svc.AdminUpdate(ctx, job.ID, &dtos.AdminJobUpdateRequest{Status: &open, Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, got.Status)
	assert.True(t, got.Featured)
	assert.NotNil(t, got.PublishedAt)

	_, err = svc.AdminUpdate(ctx, 9999, &dtos.AdminJobUpdateRequest{Featured: &featured})
	assert.ErrorIs(t, err, ErrNotFound)
}
