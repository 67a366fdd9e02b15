package services

import (
	"sync"
	"testing"

	"github.com/justsurfingit/job-portal/internal/database"
	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newJobService(t *testing.T, db *gorm.DB) *JobService {
	t.Helper()
	md, err := database.LoadMaster("")
	require.NoError(t, err)
	return NewJobService(db, zap.NewNop(), md.Recommend)
}

// employerWithCompany returns an employer and the company they own.
func employerWithCompany(t *testing.T, db *gorm.DB) (*models.User, *models.Company) {
	t.Helper()
	u := testutil.CreateUser(t, db, models.RoleEmployer)
	return u, testutil.CreateCompany(t, db, u)
}

// recordingNotifier captures chat events instead of pushing them to sockets.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
}

type notified struct {
	userIDs []uint
	event   ChatEvent
}

func (r *recordingNotifier) Notify(userIDs []uint, event ChatEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notified{userIDs: userIDs, event: event})
}

func (r *recordingNotifier) all() []notified {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notified(nil), r.events...)
}

// insertFirst makes the next create on table insert row first through the same
// transaction, the way a concurrent request would win the unique index.
func insertFirst(t *testing.T, db *gorm.DB, table string, row any) {
	t.Helper()
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("test:insert_first_"+table, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(row).Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
}
