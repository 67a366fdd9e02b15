package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/justsurfingit/job-portal/internal/database"
	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
)

type RecommendWeights = database.RecommendWeights

// Sort orders accepted by the listing endpoint.
const (
	SortNew       = "new"
	SortSalary    = "salary"
	SortPopular   = "popular"
	SortRecommend = "recommend"
)

// recommendCandidates caps how many rows are scored in memory per request.
const recommendCandidates = 1000

type SearchParams struct {
	Keyword        string
	PrefectureIDs  []uint
	FeatureIDs     []uint
	MatchAll       bool // every feature must be present
	EmploymentType string
	SalaryMin      int
	CompanyID      uint
	FeaturedOnly   bool
	Sort           string
	Page           int
	PerPage        int

	// Used for scoring when PrefectureIDs is empty
	PreferredPrefectureID *uint
}

type JobListItem struct {
	models.Job
	RecommendScore *float64 `json:"recommend_score,omitempty"`
}

type SearchResult struct {
	Items   []JobListItem `json:"items"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Sort    string        `json:"sort"`
}

// Search lists open jobs. Filters are composed onto one query; the recommend
// order is scored per request in memory.
func (s *JobService) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	page, perPage := pagination(p.Page, p.PerPage)
	if p.Sort == "" {
		p.Sort = SortNew
	}
	p.PrefectureIDs = uniqueIDs(p.PrefectureIDs)
	p.FeatureIDs = uniqueIDs(p.FeatureIDs)

	res := &SearchResult{Page: page, PerPage: perPage, Sort: p.Sort, Items: []JobListItem{}}

	if p.Sort == SortRecommend {
		var candidates []models.Job
		err := s.filtered(ctx, p).
			Preload("Company").Preload("Features").Preload("Prefectures").
			Order("jobs.published_at DESC, jobs.id DESC").
			Limit(recommendCandidates).
			Find(&candidates).Error
		if err != nil {
			return nil, err
		}

		ranked := s.rank(candidates, p)
		res.Total = int64(len(ranked))
		start := (page - 1) * perPage
		if start < len(ranked) {
			end := min(start+perPage, len(ranked))
			res.Items = ranked[start:end]
		}
		return res, nil
	}

	if err := s.filtered(ctx, p).Count(&res.Total).Error; err != nil {
		return nil, err
	}

	var jobs []models.Job
	err := s.filtered(ctx, p).
		Preload("Company").Preload("Features").Preload("Prefectures").
		Order(orderClause(p.Sort)).
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		res.Items = append(res.Items, JobListItem{Job: j})
	}
	return res, nil
}

func (s *JobService) filtered(ctx context.Context, p SearchParams) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&models.Job{}).
		Where("jobs.status = ?", models.JobOpen).
		Where("(jobs.closes_at IS NULL OR jobs.closes_at > ?)", s.now())

	if kw := strings.ToLower(strings.TrimSpace(p.Keyword)); kw != "" {
		like := "%" + kw + "%"
		q = q.Where(
			"(LOWER(jobs.title) LIKE ? OR LOWER(jobs.description) LIKE ? OR jobs.company_id IN (SELECT id FROM companies WHERE LOWER(name) LIKE ?))",
			like, like, like,
		)
	}
	if len(p.PrefectureIDs) > 0 {
		q = q.Where("jobs.id IN (SELECT job_id FROM job_prefectures WHERE prefecture_id IN ?)", p.PrefectureIDs)
	}
	if len(p.FeatureIDs) > 0 {
		if p.MatchAll {
			q = q.Where(
				"jobs.id IN (SELECT job_id FROM job_features WHERE feature_id IN ? GROUP BY job_id HAVING COUNT(DISTINCT feature_id) = ?)",
				p.FeatureIDs, len(p.FeatureIDs),
			)
		} else {
			q = q.Where("jobs.id IN (SELECT job_id FROM job_features WHERE feature_id IN ?)", p.FeatureIDs)
		}
	}
	if p.EmploymentType != "" {
		q = q.Where("jobs.employment_type = ?", p.EmploymentType)
	}
	if p.SalaryMin > 0 {
		q = q.Where("COALESCE(jobs.salary_max, jobs.salary_min) >= ?", p.SalaryMin)
	}
	if p.CompanyID != 0 {
		q = q.Where("jobs.company_id = ?", p.CompanyID)
	}
	if p.FeaturedOnly {
		q = q.Where("jobs.featured = ?", true)
	}
	return q
}

func orderClause(sortBy string) string {
	switch sortBy {
	case SortSalary:
		return "COALESCE(jobs.salary_max, jobs.salary_min, 0) DESC, jobs.id DESC"
	case SortPopular:
		return "jobs.view_count DESC, jobs.id DESC"
	default:
		return "jobs.published_at DESC, jobs.id DESC"
	}
}

func (s *JobService) rank(jobs []models.Job, p SearchParams) []JobListItem {
	in := scoreInput{
		features:    toSet(p.FeatureIDs),
		prefectures: toSet(p.PrefectureIDs),
		now:         s.now(),
	}
	if len(in.prefectures) == 0 && p.PreferredPrefectureID != nil {
		in.prefectures = toSet([]uint{*p.PreferredPrefectureID})
	}

	items := make([]JobListItem, len(jobs))
	for i := range jobs {
		score := recommendScore(&jobs[i], in, s.Weights)
		items[i] = JobListItem{Job: jobs[i], RecommendScore: &score}
	}
	sort.SliceStable(items, func(a, b int) bool {
		sa, sb := *items[a].RecommendScore, *items[b].RecommendScore
		if sa != sb {
			return sa > sb
		}
		ta, tb := publishedOrCreated(&items[a].Job), publishedOrCreated(&items[b].Job)
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return items[a].ID > items[b].ID
	})
	return items
}

type scoreInput struct {
	features    map[uint]bool
	prefectures map[uint]bool
	now         time.Time
}

// recommendScore weighs matched features, prefecture match, the featured
// flag, freshness and popularity. Rounded to three decimals.
func recommendScore(job *models.Job, in scoreInput, w RecommendWeights) float64 {
	var score float64

	matched := 0
	for _, f := range job.Features {
		if in.features[f.ID] {
			matched++
		}
	}
	score += w.Feature * float64(matched)

	for _, pr := range job.Prefectures {
		if in.prefectures[pr.ID] {
			score += w.Prefecture
			break
		}
	}

	if job.Featured {
		score += w.Featured
	}

	freshDays := w.FreshDays
	if freshDays <= 0 {
		freshDays = 30
	}
	ageDays := in.now.Sub(publishedOrCreated(job)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	score += w.Fresh * math.Max(0, 1-ageDays/freshDays)

	score += w.Popularity * math.Log10(1+float64(job.ViewCount)+5*float64(job.ApplicationCount))

	return math.Round(score*1000) / 1000
}

func publishedOrCreated(job *models.Job) time.Time {
	if job.PublishedAt != nil {
		return *job.PublishedAt
	}
	return job.CreatedAt
}

func toSet(ids []uint) map[uint]bool {
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
