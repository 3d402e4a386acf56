// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type PaginationResult struct {
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Total  int64       `json:"total"`
	Data   interface{} `json:"data"`
}

// GetPaginationParams reads limit/offset, accepting page as an alternative
// to offset.
func GetPaginationParams(c *gin.Context, defaultLimit, maxLimit int) PaginationParams {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
		if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 1 {
			offset = (page - 1) * limit
		}
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset).Limit(params.Limit)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	return PaginationResult{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
		Data:   data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Limit", strconv.Itoa(result.Limit))
	c.Header("X-Offset", strconv.Itoa(result.Offset))
}
