// internal/handlers/chapter.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type ChapterHandler struct {
	catalogService   *services.CatalogService
	authoringService *services.AuthoringService
}

func NewChapterHandler(catalogService *services.CatalogService, authoringService *services.AuthoringService) *ChapterHandler {
	return &ChapterHandler{
		catalogService:   catalogService,
		authoringService: authoringService,
	}
}

// GET /books/:id/chapters
func (h *ChapterHandler) GetChapters(c *gin.Context) {
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	viewerID, _ := utils.GetUserIDFromContext(c)

	chapters, err := h.catalogService.GetBookChapters(c.Request.Context(), bookID, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, chapters)
}

// POST /books/:id/chapters
func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := h.authoringService.CreateChapter(c.Request.Context(), bookID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyChapterCreated),
		"chapter": chapter,
	})
}

// PUT /chapters/:id
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	chapterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := h.authoringService.UpdateChapter(c.Request.Context(), chapterID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyChapterUpdated),
		"chapter": chapter,
	})
}

// DELETE /chapters/:id
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	chapterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.authoringService.DeleteChapter(c.Request.Context(), chapterID, userID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyChapterDeleted),
	})
}
