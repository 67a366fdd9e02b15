package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Register creates a job seeker or employer account. Employers may pass a
// company name to get their company profile in the same transaction.
func (s *UserService) Register(ctx context.Context, req *dtos.RegisterRequest) (*models.User, error) {
	if req.Role != models.RoleJobSeeker && req.Role != models.RoleEmployer {
		return nil, invalid("role must be job_seeker or employer")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, invalid("%v", err)
	}

	user := &models.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Unscoped().Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("email already registered: %w", ErrConflict)
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if user.Role == models.RoleEmployer && strings.TrimSpace(req.CompanyName) != "" {
			company := &models.Company{OwnerID: user.ID, Name: strings.TrimSpace(req.CompanyName)}
			if err := tx.Create(company).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, conflict("email already registered", err)
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *dtos.LoginRequest) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if user.Suspended {
		return nil, ErrSuspended
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.DB.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Prefecture").First(&user, id).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, req *dtos.UpdateProfileRequest) (*models.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.ResumeURL != nil {
		updates["resume_url"] = *req.ResumeURL
	}
	if req.PrefectureID != nil {
		if *req.PrefectureID == 0 {
			updates["prefecture_id"] = nil
		} else {
			if err := ensureExists[models.Prefecture](ctx, s.DB, []uint{*req.PrefectureID}); err != nil {
				return nil, err
			}
			updates["prefecture_id"] = *req.PrefectureID
		}
	}

	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.User{ID: user.ID}).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, user.ID)
}

func (s *UserService) ChangePassword(ctx context.Context, user *models.User, req *dtos.ChangePasswordRequest) error {
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return invalid("%v", err)
	}
	return s.DB.WithContext(ctx).Model(&models.User{ID: user.ID}).Update("password_hash", hash).Error
}

// CreateAdmin is used by the CLI; admins cannot self-register over HTTP.
func (s *UserService) CreateAdmin(ctx context.Context, email, password, name string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, invalid("%v", err)
	}
	user := &models.User{Email: normalizeEmail(email), PasswordHash: hash, Name: name, Role: models.RoleAdmin}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, q *dtos.UserListQuery) (*dtos.Page[models.User], error) {
	page, perPage := pagination(q.Page, q.PerPage)
	query := s.DB.WithContext(ctx).Model(&models.User{})
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if kw := strings.TrimSpace(q.Q); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("(LOWER(email) LIKE ? OR LOWER(name) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := query.Order("id DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&users).Error; err != nil {
		return nil, err
	}
	return &dtos.Page[models.User]{Items: users, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *UserService) SetSuspended(ctx context.Context, admin *models.User, id uint, suspended bool) (*models.User, error) {
	if admin.ID == id {
		return nil, invalid("admins cannot suspend themselves")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("suspended", suspended).Error; err != nil {
		return nil, err
	}
	user.Suspended = suspended
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func pagination(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// ensureExists checks that every id refers to a row of T.
func ensureExists[T any](ctx context.Context, db *gorm.DB, ids []uint) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	var count int64
	var zero T
	if err := db.WithContext(ctx).Model(&zero).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return invalid("unknown %s id", tableName(db, &zero))
	}
	return nil
}

func tableName(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "record"
	}
	return strings.TrimSuffix(stmt.Schema.Table, "s")
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
