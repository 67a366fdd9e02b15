package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/services"
)

// ContentHandler serves the editorial pages: columns and company interviews.
type ContentHandler struct {
	Columns    *services.ColumnService
	Interviews *services.InterviewService
}

func NewContentHandler(columns *services.ColumnService, interviews *services.InterviewService) *ContentHandler {
	return &ContentHandler{Columns: columns, Interviews: interviews}
}

func (h *ContentHandler) ListColumns(c *gin.Context) {
	var q dtos.ContentListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.Columns.ListPublished(c.Request.Context(), &q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) GetColumn(c *gin.Context) {
	col, err := h.Columns.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

func (h *ContentHandler) AdminListColumns(c *gin.Context) {
	var q dtos.ContentListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.Columns.ListAll(c.Request.Context(), &q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) CreateColumn(c *gin.Context) {
	var req dtos.ColumnRequest
	if !bindJSON(c, &req) {
		return
	}
	col, err := h.Columns.Create(c.Request.Context(), auth.CurrentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

func (h *ContentHandler) UpdateColumn(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.ColumnRequest
	if !bindJSON(c, &req) {
		return
	}
	col, err := h.Columns.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

func (h *ContentHandler) DeleteColumn(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Columns.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) ListInterviews(c *gin.Context) {
	h.listInterviews(c, true)
}

func (h *ContentHandler) AdminListInterviews(c *gin.Context) {
	h.listInterviews(c, false)
}

func (h *ContentHandler) GetInterview(c *gin.Context) {
	h.getInterview(c, true)
}

func (h *ContentHandler) AdminGetInterview(c *gin.Context) {
	h.getInterview(c, false)
}

func (h *ContentHandler) CreateInterview(c *gin.Context) {
	var req dtos.InterviewRequest
	if !bindJSON(c, &req) {
		return
	}
	iv, err := h.Interviews.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, iv)
}

func (h *ContentHandler) UpdateInterview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.InterviewRequest
	if !bindJSON(c, &req) {
		return
	}
	iv, err := h.Interviews.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *ContentHandler) DeleteInterview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Interviews.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) listInterviews(c *gin.Context, publishedOnly bool) {
	var q dtos.ContentListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.Interviews.List(c.Request.Context(), &q, publishedOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) getInterview(c *gin.Context, publishedOnly bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	iv, err := h.Interviews.Get(c.Request.Context(), id, publishedOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}
