package dtos

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter" binding:"max=5000"`
	ResumeURL   string `json:"resume_url"` // Defaults to the profile resume if empty
}

type ApplicationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=screening interview offered hired rejected"`
	Note   string `json:"note" binding:"max=2000"`
}

type ApplicationListQuery struct {
	JobID  uint   `form:"job_id"`
	Status string `form:"status" binding:"omitempty,oneof=applied screening interview offered hired rejected withdrawn"`
}
