// internal/handlers/media.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type MediaHandler struct {
	authoringService *services.AuthoringService
	storageService   *services.StorageService
}

func NewMediaHandler(authoringService *services.AuthoringService, storageService *services.StorageService) *MediaHandler {
	return &MediaHandler{
		authoringService: authoringService,
		storageService:   storageService,
	}
}

// POST /media/presign
func (h *MediaHandler) PresignUpload(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	var req services.PresignRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := h.storageService.PresignUpload(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, upload)
}

// POST /books/:id/media
func (h *MediaHandler) CreateMedia(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateMediaRequest
	if !bindJSON(c, &req) {
		return
	}

	media, err := h.authoringService.CreateMedia(c.Request.Context(), bookID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyMediaCreated),
		"media":   media,
	})
}

// DELETE /media/:id
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	mediaID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.authoringService.DeleteMedia(c.Request.Context(), mediaID, userID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyMediaDeleted),
	})
}
