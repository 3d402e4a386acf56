// internal/handlers/book.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type BookHandler struct {
	catalogService   *services.CatalogService
	authoringService *services.AuthoringService
	catalog          config.CatalogConfig
}

func NewBookHandler(catalogService *services.CatalogService, authoringService *services.AuthoringService, catalog config.CatalogConfig) *BookHandler {
	return &BookHandler{
		catalogService:   catalogService,
		authoringService: authoringService,
		catalog:          catalog,
	}
}

// GET /books
func (h *BookHandler) GetBooks(c *gin.Context) {
	params := utils.GetPaginationParams(c, h.catalog.DefaultPageSize, h.catalog.MaxPageSize)
	viewerID, _ := utils.GetUserIDFromContext(c)

	filter := services.BookFilter{
		PaginationParams: params,
		Genre:            c.Query("genre"),
		Search:           c.Query("search"),
		AuthorID:         c.Query("author_id"),
		IsPublished:      queryBool(c, "is_published"),
		IsMature:         queryBool(c, "is_mature"),
		HasVideo:         queryBool(c, "has_video"),
		HasAudio:         queryBool(c, "has_audio"),
		HasImages:        queryBool(c, "has_images"),
		SortBy:           models.SortBy(c.Query("sort_by")),
		ViewerID:         viewerID,
	}

	books, total, err := h.catalogService.ListBooks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(books, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /books/trending
func (h *BookHandler) GetTrendingBooks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	books, err := h.catalogService.GetTrendingBooks(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, books)
}

// GET /books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	viewerID, _ := utils.GetUserIDFromContext(c)

	detail, err := h.catalogService.GetBookDetail(c.Request.Context(), id, viewerID, utils.GetViewerKey(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, detail)
}

// POST /books
func (h *BookHandler) CreateBook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.authoringService.CreateBook(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBookCreated),
		"book":    book,
	})
}

// PUT /books/:id
func (h *BookHandler) UpdateBook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.authoringService.UpdateBook(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBookUpdated),
		"book":    book,
	})
}

// DELETE /books/:id
func (h *BookHandler) DeleteBook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.authoringService.DeleteBook(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBookDeleted),
	})
}

// GET /genres
func (h *BookHandler) GetGenres(c *gin.Context) {
	utils.SuccessResponse(c, models.Genres)
}
