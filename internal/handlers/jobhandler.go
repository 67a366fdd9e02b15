package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/services"
)

// JobHandler serves postings: search, detail, the employer's CRUD and LLM extraction.
type JobHandler struct {
	LLMService *services.LLMService
	JobService *services.JobService
	Matcher    *services.CompanyMatcher
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(llm *services.LLMService, j *services.JobService, matcher *services.CompanyMatcher) *JobHandler {
	return &JobHandler{LLMService: llm, JobService: j, Matcher: matcher}
}

// ParseJob is the POST /jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if !bindJSON(c, &req) {
		return
	}
	extracted, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		respondError(c, err)
		return
	}
	company, err := h.Matcher.Match(c.Request.Context(), extracted.CompanyName, req.URL)
	switch {
	case err == nil:
		extracted.CompanyID = &company.ID
	case !errors.Is(err, services.ErrNotFound):
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    extracted,
	})
}

// Search is the GET /jobs listing endpoint
func (h *JobHandler) Search(c *gin.Context) {
	var q dtos.JobSearchQuery
	if !bindQuery(c, &q) {
		return
	}
	prefIDs, err := parseIDs(q.PrefectureIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prefecture_ids: " + err.Error()})
		return
	}
	featureIDs, err := parseIDs(q.FeatureIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feature_ids: " + err.Error()})
		return
	}

	params := services.SearchParams{
		Keyword:        q.Q,
		PrefectureIDs:  prefIDs,
		FeatureIDs:     featureIDs,
		MatchAll:       q.FeatureMatch == "all",
		EmploymentType: q.EmploymentType,
		SalaryMin:      q.SalaryMin,
		CompanyID:      q.CompanyID,
		FeaturedOnly:   q.Featured,
		Sort:           q.Sort,
		Page:           q.Page,
		PerPage:        q.PerPage,
	}
	// Signed-in seekers get their home prefecture weighed in
	if u := auth.CurrentUser(c); u != nil {
		params.PreferredPrefectureID = u.PrefectureID
	}

	res, err := h.JobService.Search(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.JobService.GetJob(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateJob is the POST /jobs endpoint
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.JobService.CreateJob(c.Request.Context(), auth.CurrentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.JobRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.JobService.UpdateJob(c.Request.Context(), auth.CurrentUser(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.JobService.DeleteJob(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *JobHandler) Publish(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.JobService.Publish(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Close(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.JobService.Close(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListMine is GET /employer/jobs: every posting of the employer, drafts included.
func (h *JobHandler) ListMine(c *gin.Context) {
	jobs, err := h.JobService.ListForEmployer(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// AdminUpdate is PATCH /admin/jobs/:id for status and the featured flag.
func (h *JobHandler) AdminUpdate(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.AdminJobUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.JobService.AdminUpdate(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
