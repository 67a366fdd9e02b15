package dtos

import "time"

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// ExtractedJob is the structured draft the LLM returns for a pasted posting.
type ExtractedJob struct {
	CompanyName    string   `json:"company_name"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	EmploymentType string   `json:"employment_type"`
	SalaryMin      *int     `json:"salary_min"`
	SalaryMax      *int     `json:"salary_max"`
	Prefectures    []string `json:"prefectures"`
	Features       []string `json:"features"`

	// Resolved against master data; unknown names are dropped
	PrefectureIDs []uint `json:"prefecture_ids"`
	FeatureIDs    []uint `json:"feature_ids"`
	// Set when the posting names a registered company
	CompanyID *uint `json:"company_id"`
}

type JobRequest struct {
	Title          string `json:"title" binding:"required,max=200"`
	Description    string `json:"description" binding:"required"`
	EmploymentType string `json:"employment_type" binding:"required,oneof=full_time part_time contract internship"`

	// Optional Fields
	SalaryMin     *int       `json:"salary_min" binding:"omitempty,min=0"`
	SalaryMax     *int       `json:"salary_max" binding:"omitempty,min=0"`
	FeatureIDs    []uint     `json:"feature_ids"`
	PrefectureIDs []uint     `json:"prefecture_ids"`
	ClosesAt      *time.Time `json:"closes_at"`
	Publish       bool       `json:"publish"` // publish immediately instead of saving a draft
}

type AdminJobUpdateRequest struct {
	Status   *string `json:"status" binding:"omitempty,oneof=draft open closed"`
	Featured *bool   `json:"featured"`
}

type JobSearchQuery struct {
	Q              string `form:"q"`
	PrefectureIDs  string `form:"prefecture_ids"`
	FeatureIDs     string `form:"feature_ids"`
	FeatureMatch   string `form:"feature_match" binding:"omitempty,oneof=any all"`
	EmploymentType string `form:"employment_type" binding:"omitempty,oneof=full_time part_time contract internship"`
	SalaryMin      int    `form:"salary_min" binding:"omitempty,min=0"`
	CompanyID      uint   `form:"company_id"`
	Featured       bool   `form:"featured"`
	Sort           string `form:"sort" binding:"omitempty,oneof=new salary popular recommend"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PerPage        int    `form:"per_page" binding:"omitempty,min=1"`
}

type CompanyRequest struct {
	Name         string `json:"company_name" binding:"required,max=200"`
	Description  string `json:"description"`
	Website      string `json:"website" binding:"omitempty,url"`
	LogoURL      string `json:"logo_url"`
	Address      string `json:"address"`
	PrefectureID *uint  `json:"prefecture_id"`
}

type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}
