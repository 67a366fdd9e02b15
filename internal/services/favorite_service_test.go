package services

import (
	"context"
	"testing"
	"time"

	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFavoriteService(db)
	ctx := context.Background()
	_, company := employerWithCompany(t, db)
	job := testutil.CreateOpenJob(t, db, company, "Backend", []uint{testutil.FeatureID(t, db, "remote")}, nil)
	seeker := testutil.CreateUser(t, db, models.RoleJobSeeker)

	require.NoError(t, svc.Add(ctx, seeker, job.ID))
	require.NoError(t, svc.Add(ctx, seeker, job.ID), "adding twice is a no-op")

	favs, err := svc.List(ctx, seeker)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "Backend", favs[0].Job.Title)
	assert.Len(t, favs[0].Job.Features, 1)

	require.NoError(t, svc.Remove(ctx, seeker, job.ID))
	assert.ErrorIs(t, svc.Remove(ctx, seeker, job.ID), ErrNotFound)

	draft := testutil.CreateOpenJob(t, db, company, "Draft", nil, nil)
	require.NoError(t, db.Model(draft).Update("status", models.JobDraft).Error)
	assert.ErrorIs(t, svc.Add(ctx, seeker, draft.ID), ErrNotFound)

	expired := testutil.CreateOpenJob(t, db, company, "Expired", nil, nil)
	require.NoError(t, db.Model(expired).Update("closes_at", time.Now().Add(-time.Minute)).Error)
	assert.ErrorIs(t, svc.Add(ctx, seeker, expired.ID), ErrNotFound)
}
