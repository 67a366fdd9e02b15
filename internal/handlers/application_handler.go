package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/services"
)

// ApplicationHandler covers applications and favorites, the two ways a seeker acts on a job.
type ApplicationHandler struct {
	Applications *services.ApplicationService
	Favorites    *services.FavoriteService
}

func NewApplicationHandler(apps *services.ApplicationService, favs *services.FavoriteService) *ApplicationHandler {
	return &ApplicationHandler{Applications: apps, Favorites: favs}
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.ApplyRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	app, err := h.Applications.Apply(c.Request.Context(), auth.CurrentUser(c), jobID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.Applications.ListMine(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := h.Applications.Withdraw(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) ListForEmployer(c *gin.Context) {
	var q dtos.ApplicationListQuery
	if !bindQuery(c, &q) {
		return
	}
	apps, err := h.Applications.ListForEmployer(c.Request.Context(), auth.CurrentUser(c), &q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.ApplicationStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.Applications.UpdateStatus(c.Request.Context(), auth.CurrentUser(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := h.Applications.Get(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) AddFavorite(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Favorites.Add(c.Request.Context(), auth.CurrentUser(c), jobID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ApplicationHandler) RemoveFavorite(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Favorites.Remove(c.Request.Context(), auth.CurrentUser(c), jobID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ApplicationHandler) ListFavorites(c *gin.Context) {
	favs, err := h.Favorites.List(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}
