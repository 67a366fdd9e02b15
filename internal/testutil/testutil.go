// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/database"
	"github.com/justsurfingit/job-portal/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB returns a migrated and seeded in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Connect("sqlite", dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

const Password = "correct-horse-battery"

// hashed once; bcrypt is slow on purpose
var passwordHash string

func hash(t *testing.T) string {
	t.Helper()
	if passwordHash == "" {
		h, err := auth.HashPassword(Password)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		passwordHash = h
	}
	return passwordHash
}

func CreateUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: hash(t),
		Name:         role + " user",
		Role:         role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateCompany(t *testing.T, db *gorm.DB, owner *models.User) *models.Company {
	t.Helper()
	c := &models.Company{OwnerID: owner.ID, Name: "Company of " + owner.Email}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return c
}

// CreateOpenJob inserts a published job attached to the given features and prefectures.
func CreateOpenJob(t *testing.T, db *gorm.DB, company *models.Company, title string, featureIDs, prefectureIDs []uint) *models.Job {
	t.Helper()
	now := time.Now()
	job := &models.Job{
		CompanyID:      company.ID,
		Title:          title,
		Description:    "Description of " + title,
		EmploymentType: models.EmploymentFullTime,
		Status:         models.JobOpen,
		PublishedAt:    &now,
	}
	for _, id := range featureIDs {
		job.Features = append(job.Features, models.Feature{ID: id})
	}
	for _, id := range prefectureIDs {
		job.Prefectures = append(job.Prefectures, models.Prefecture{ID: id})
	}
	if err := db.Omit("Features.*", "Prefectures.*").Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

// FeatureID looks up a seeded feature by slug.
func FeatureID(t *testing.T, db *gorm.DB, slug string) uint {
	t.Helper()
	var f models.Feature
	if err := db.Where("slug = ?", slug).First(&f).Error; err != nil {
		t.Fatalf("feature %s: %v", slug, err)
	}
	return f.ID
}

// PrefectureID looks up a seeded prefecture by JIS code.
func PrefectureID(t *testing.T, db *gorm.DB, code string) uint {
	t.Helper()
	var p models.Prefecture
	if err := db.Where("code = ?", code).First(&p).Error; err != nil {
		t.Fatalf("prefecture %s: %v", code, err)
	}
	return p.ID
}
