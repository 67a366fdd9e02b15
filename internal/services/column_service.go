package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const excerptRunes = 160

type ColumnService struct {
	DB  *gorm.DB
	Log *zap.Logger
	now func() time.Time
}

func NewColumnService(db *gorm.DB, log *zap.Logger) *ColumnService {
	return &ColumnService{DB: db, Log: log, now: time.Now}
}

func (s *ColumnService) ListPublished(ctx context.Context, q *dtos.ContentListQuery) (*dtos.Page[models.Column], error) {
	return s.list(ctx, q, true)
}

func (s *ColumnService) ListAll(ctx context.Context, q *dtos.ContentListQuery) (*dtos.Page[models.Column], error) {
	return s.list(ctx, q, false)
}

// GetPublished returns a published column by slug and counts the view.
func (s *ColumnService) GetPublished(ctx context.Context, slug string) (*models.Column, error) {
	var col models.Column
	err := s.DB.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(&col).Error
	if err != nil {
		return nil, notFound("column", err)
	}
	if err := s.DB.WithContext(ctx).Model(&models.Column{ID: col.ID}).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		s.Log.Warn("count column view", zap.Uint("column_id", col.ID), zap.Error(err))
	} else {
		col.ViewCount++
	}
	return &col, nil
}

func (s *ColumnService) Create(ctx context.Context, author *models.User, req *dtos.ColumnRequest) (*models.Column, error) {
	col := &models.Column{AuthorID: author.ID}
	if err := s.apply(ctx, col, req); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(col).Error; err != nil {
		return nil, err
	}
	s.Log.Info("column created", zap.Uint("column_id", col.ID), zap.String("slug", col.Slug))
	return col, nil
}

func (s *ColumnService) Update(ctx context.Context, id uint, req *dtos.ColumnRequest) (*models.Column, error) {
	var col models.Column
	if err := s.DB.WithContext(ctx).First(&col, id).Error; err != nil {
		return nil, notFound("column", err)
	}
	if err := s.apply(ctx, &col, req); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(&col).Error; err != nil {
		return nil, err
	}
	return &col, nil
}

func (s *ColumnService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Column{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("column %w", ErrNotFound)
	}
	return nil
}

func (s *ColumnService) list(ctx context.Context, q *dtos.ContentListQuery, publishedOnly bool) (*dtos.Page[models.Column], error) {
	page, perPage := pagination(q.Page, q.PerPage)
	query := s.DB.WithContext(ctx).Model(&models.Column{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}

	out := &dtos.Page[models.Column]{Page: page, PerPage: perPage, Items: []models.Column{}}
	if err := query.Count(&out.Total).Error; err != nil {
		return nil, err
	}
	order := "created_at DESC, id DESC"
	if publishedOnly {
		order = "published_at DESC, id DESC"
	}
	err := query.Order(order).Offset((page - 1) * perPage).Limit(perPage).Find(&out.Items).Error
	return out, err
}

// apply copies the request onto col, deriving slug and excerpt.
func (s *ColumnService) apply(ctx context.Context, col *models.Column, req *dtos.ColumnRequest) error {
	col.Title = strings.TrimSpace(req.Title)
	col.Body = req.Body
	col.ThumbnailURL = req.ThumbnailURL
	col.Category = strings.TrimSpace(req.Category)

	excerpt, err := Excerpt(req.Body, excerptRunes)
	if err != nil {
		return invalid("body is not valid HTML")
	}
	col.Excerpt = excerpt

	if explicit := Slugify(req.Slug); explicit != "" {
		taken, err := s.slugTaken(ctx, explicit, col.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("slug %q is already used: %w", explicit, ErrConflict)
		}
		col.Slug = explicit
	} else if col.Slug == "" {
		slug, err := s.uniqueSlug(ctx, col.Title)
		if err != nil {
			return err
		}
		col.Slug = slug
	}

	col.Published = req.Published
	if col.Published && col.PublishedAt == nil {
		now := s.now()
		col.PublishedAt = &now
	}
	return nil
}

func (s *ColumnService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "column-" + uuid.NewString()[:8]
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := s.slugTaken(ctx, slug, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// slugTaken includes soft-deleted rows since the unique index still covers them.
func (s *ColumnService) slugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Unscoped().Model(&models.Column{}).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&count).Error
	return count > 0, err
}

// Slugify lowercases ASCII letters and digits and joins the rest with '-'.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Excerpt returns the visible text of an HTML fragment cut to n runes.
func Excerpt(html string, n int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text, nil
	}
	return strings.TrimSpace(string(runes[:n])) + "…", nil
}
