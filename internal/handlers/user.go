// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type UserHandler struct {
	userService    *services.UserService
	catalogService *services.CatalogService
	catalog        config.CatalogConfig
}

func NewUserHandler(userService *services.UserService, catalogService *services.CatalogService, catalog config.CatalogConfig) *UserHandler {
	return &UserHandler{
		userService:    userService,
		catalogService: catalogService,
		catalog:        catalog,
	}
}

// PUT /users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}

// GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}

// GET /users/:id/stats
func (h *UserHandler) GetUserStats(c *gin.Context) {
	stats, err := h.userService.GetUserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /users/:id/books
func (h *UserHandler) GetUserBooks(c *gin.Context) {
	params := utils.GetPaginationParams(c, h.catalog.DefaultPageSize, h.catalog.MaxPageSize)
	viewerID, _ := utils.GetUserIDFromContext(c)

	books, total, err := h.catalogService.GetAuthorBooks(c.Request.Context(), c.Param("id"), viewerID, params)
	h.respondBooks(c, books, total, params, err)
}

// GET /users/:id/bookmarks
func (h *UserHandler) GetUserBookmarks(c *gin.Context) {
	callerID, ok := requireUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c, h.catalog.DefaultPageSize, h.catalog.MaxPageSize)

	books, total, err := h.catalogService.GetUserBookmarks(c.Request.Context(), c.Param("id"), callerID, params)
	h.respondBooks(c, books, total, params, err)
}

// GET /users/:id/purchases
func (h *UserHandler) GetUserPurchases(c *gin.Context) {
	callerID, ok := requireUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c, h.catalog.DefaultPageSize, h.catalog.MaxPageSize)

	books, total, err := h.catalogService.GetUserPurchases(c.Request.Context(), c.Param("id"), callerID, params)
	h.respondBooks(c, books, total, params, err)
}

func (h *UserHandler) respondBooks(c *gin.Context, books []models.Book, total int64, params utils.PaginationParams, err error) {
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(books, total, params)
	utils.PaginatedResponse(c, result)
}
