package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/services"
)

type UploadHandler struct {
	Uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{Uploads: uploads}
}

// Upload is POST /uploads with multipart fields "file" and "purpose".
func (h *UploadHandler) Upload(c *gin.Context) {
	// Leave room for the multipart framing around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Uploads.MaxBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, services.ErrTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing multipart field \"file\""})
		return
	}
	if fh.Size > h.Uploads.MaxBytes {
		respondError(c, services.ErrTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	res, err := h.Uploads.Upload(c.Request.Context(), auth.CurrentUser(c), c.PostForm("purpose"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
