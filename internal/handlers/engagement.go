// internal/handlers/engagement.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type EngagementHandler struct {
	engagementService *services.EngagementService
	catalog           config.CatalogConfig
}

func NewEngagementHandler(engagementService *services.EngagementService, catalog config.CatalogConfig) *EngagementHandler {
	return &EngagementHandler{
		engagementService: engagementService,
		catalog:           catalog,
	}
}

// POST /books/:id/like
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.engagementService.ToggleLike(c.Request.Context(), userID, bookID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /books/:id/bookmark
func (h *EngagementHandler) ToggleBookmark(c *gin.Context) {
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.engagementService.ToggleBookmark(c.Request.Context(), userID, bookID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /users/:id/follow
func (h *EngagementHandler) ToggleFollow(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.engagementService.ToggleFollow(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /books/:id/comments
func (h *EngagementHandler) GetComments(c *gin.Context) {
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c, h.catalog.DefaultPageSize, h.catalog.MaxPageSize)
	viewerID, _ := utils.GetUserIDFromContext(c)

	comments, total, err := h.engagementService.GetBookComments(c.Request.Context(), bookID, viewerID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(comments, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /books/:id/comments
func (h *EngagementHandler) CreateComment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.engagementService.CreateComment(c.Request.Context(), userID, bookID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCommentCreated),
		"comment": comment,
	})
}

// DELETE /comments/:id
func (h *EngagementHandler) DeleteComment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	commentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.engagementService.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCommentDeleted),
	})
}
