package dtos

import "github.com/justsurfingit/job-portal/internal/models"

type ColumnRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Slug         string `json:"slug" binding:"omitempty,max=200"`
	Body         string `json:"body" binding:"required"`
	ThumbnailURL string `json:"thumbnail_url"`
	Category     string `json:"category" binding:"max=50"`
	Published    bool   `json:"published"`
}

type InterviewRequest struct {
	CompanyID       *uint  `json:"company_id"`
	Title           string `json:"title" binding:"required,max=200"`
	IntervieweeName string `json:"interviewee_name" binding:"max=100"`
	IntervieweeRole string `json:"interviewee_role" binding:"max=100"`
	Body            string `json:"body" binding:"required"`
	ThumbnailURL    string `json:"thumbnail_url"`
	Published       bool   `json:"published"`
}

type ContentListQuery struct {
	Category  string `form:"category"`
	CompanyID uint   `form:"company_id"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PerPage   int    `form:"per_page" binding:"omitempty,min=1"`
}

type UploadResponse struct {
	ID          uint   `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type AnalyticsQuery struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type AnalyticsTotals struct {
	JobSeekers   int64 `json:"job_seekers"`
	Employers    int64 `json:"employers"`
	OpenJobs     int64 `json:"open_jobs"`
	Applications int64 `json:"applications"`
	Messages     int64 `json:"messages"`
}

type AnalyticsSummary struct {
	From   string             `json:"from"`
	To     string             `json:"to"`
	Totals AnalyticsTotals    `json:"totals"`
	Daily  []models.DailyStat `json:"daily"`
}

type JobStat struct {
	JobID        uint   `json:"job_id"`
	Title        string `json:"title"`
	Views        int64  `json:"views"`
	Applications int64  `json:"applications"`
}
