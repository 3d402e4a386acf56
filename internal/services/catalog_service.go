// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

// CatalogService answers the read side of the storefront: listings, the
// trending shelf and the full detail graph of one book.
type CatalogService struct {
	db        *gorm.DB
	cfg       config.CatalogConfig
	purchases *PurchaseService
	now       func() time.Time
}

type BookFilter struct {
	utils.PaginationParams
	Genre       string
	Search      string
	AuthorID    string
	IsPublished *bool
	IsMature    *bool
	HasVideo    *bool
	HasAudio    *bool
	HasImages   *bool
	SortBy      models.SortBy

	// ViewerID sees their own drafts when listing by AuthorID.
	ViewerID string
}

// BookDetail is a book plus the caller's relationship to it.
type BookDetail struct {
	*models.Book
	IsLiked      bool `json:"is_liked"`
	IsBookmarked bool `json:"is_bookmarked"`
	IsPurchased  bool `json:"is_purchased"`
	HasAccess    bool `json:"has_access"`
}

func NewCatalogService(db *gorm.DB, cfg config.CatalogConfig, purchases *PurchaseService) *CatalogService {
	return &CatalogService{
		db:        db,
		cfg:       cfg,
		purchases: purchases,
		now:       time.Now,
	}
}

func (s *CatalogService) ListBooks(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Book{})

	ownShelf := filter.AuthorID != "" && filter.AuthorID == filter.ViewerID
	switch {
	case ownShelf && filter.IsPublished != nil:
		query = query.Where("is_published = ?", *filter.IsPublished)
	case ownShelf:
	default:
		query = query.Where("is_published = ?", true)
	}

	if filter.Genre != "" {
		query = query.Where("genre = ?", filter.Genre)
	}
	if filter.AuthorID != "" {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + utils.EscapeLike(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.IsMature != nil {
		query = query.Where("is_mature = ?", *filter.IsMature)
	}
	if filter.HasVideo != nil {
		query = query.Where("has_video = ?", *filter.HasVideo)
	}
	if filter.HasAudio != nil {
		query = query.Where("has_audio = ?", *filter.HasAudio)
	}
	if filter.HasImages != nil {
		query = query.Where("has_images = ?", *filter.HasImages)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	params := filter.PaginationParams
	if params.Limit <= 0 {
		params.Limit = s.cfg.DefaultPageSize
	}
	if params.Limit > s.cfg.MaxPageSize {
		params.Limit = s.cfg.MaxPageSize
	}

	var books []models.Book
	err := utils.ApplyPagination(query, params).
		Order(sortOrder(filter.SortBy)).
		Preload("Author").
		Find(&books).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}

	return books, total, nil
}

// sortOrder maps a sort key to ORDER BY. Creation time and id break ties so
// pages do not drift.
func sortOrder(sortBy models.SortBy) string {
	switch sortBy {
	case models.SortPopular:
		return "view_count DESC, created_at DESC, id DESC"
	case models.SortRating:
		return "rating DESC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func (s *CatalogService) GetTrendingBooks(ctx context.Context, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = s.cfg.TrendingLimit
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	var books []models.Book
	err := s.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("view_count DESC, like_count DESC, created_at DESC, id DESC").
		Limit(limit).
		Preload("Author").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trending books: %w", err)
	}
	return books, nil
}

// GetBookDetail records a view and returns the book with author, ordered
// chapters, media and comments. Chapter content is withheld when the caller
// has no access.
func (s *CatalogService) GetBookDetail(ctx context.Context, id uuid.UUID, viewerID, viewerKey string) (*BookDetail, error) {
	if _, err := s.visibleBook(ctx, id, viewerID); err != nil {
		return nil, err
	}

	if _, err := s.RecordView(ctx, id, viewerKey); err != nil {
		return nil, err
	}

	var book models.Book
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Chapters.Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Where("chapter_id IS NULL").Order("created_at ASC")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Comments.User").
		First(&book, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("book")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	detail := &BookDetail{Book: &book}
	if err := s.fillViewerFlags(ctx, detail, viewerID); err != nil {
		return nil, err
	}
	if !detail.HasAccess {
		lockChapters(book.Chapters)
	}

	return detail, nil
}

// GetBookChapters returns the chapters of a visible book in reading order.
func (s *CatalogService) GetBookChapters(ctx context.Context, bookID uuid.UUID, viewerID string) ([]models.Chapter, error) {
	book, err := s.visibleBook(ctx, bookID, viewerID)
	if err != nil {
		return nil, err
	}

	var chapters []models.Chapter
	if err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("order_index ASC").
		Preload("Media").
		Find(&chapters).Error; err != nil {
		return nil, fmt.Errorf("failed to load chapters: %w", err)
	}

	access, err := s.purchases.CanAccess(ctx, viewerID, book)
	if err != nil {
		return nil, err
	}
	if !access {
		lockChapters(chapters)
	}

	return chapters, nil
}

func lockChapters(chapters []models.Chapter) {
	for i := range chapters {
		chapters[i].Content = ""
		chapters[i].Locked = true
	}
}

// visibleBook loads a book the viewer is allowed to see. Drafts are only
// visible to their author and look absent to everyone else.
func (s *CatalogService) visibleBook(ctx context.Context, id uuid.UUID, viewerID string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("book")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !bookVisibleTo(&book, viewerID) {
		return nil, notFound("book")
	}
	return &book, nil
}

func bookVisibleTo(book *models.Book, viewerID string) bool {
	return book.IsPublished || (viewerID != "" && viewerID == book.AuthorID)
}

func (s *CatalogService) fillViewerFlags(ctx context.Context, detail *BookDetail, viewerID string) error {
	book := detail.Book
	if viewerID == "" {
		detail.HasAccess = book.IsFree()
		return nil
	}

	db := s.db.WithContext(ctx)
	var liked, bookmarked int64
	if err := db.Model(&models.Like{}).
		Where("user_id = ? AND book_id = ?", viewerID, book.ID).
		Count(&liked).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&models.Bookmark{}).
		Where("user_id = ? AND book_id = ?", viewerID, book.ID).
		Count(&bookmarked).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	purchased, err := s.purchases.HasPurchased(ctx, viewerID, book.ID)
	if err != nil {
		return err
	}

	detail.IsLiked = liked > 0
	detail.IsBookmarked = bookmarked > 0
	detail.IsPurchased = purchased
	detail.HasAccess = book.IsFree() || viewerID == book.AuthorID || purchased
	return nil
}

// RecordView counts a read of the book. Within one dedup window a viewer is
// counted once; a zero window counts every read. It reports whether the
// counter moved.
func (s *CatalogService) RecordView(ctx context.Context, bookID uuid.UUID, viewerKey string) (bool, error) {
	db := s.db.WithContext(ctx)
	window := s.cfg.ViewDedupWindow

	if window <= 0 || viewerKey == "" {
		if err := incrementViews(db, bookID); err != nil {
			return false, err
		}
		return true, nil
	}

	counted := false
	err := database.WithTransaction(db, func(tx *gorm.DB) error {
		view := &models.BookView{
			ViewerKey: viewerKey,
			BookID:    bookID,
			Bucket:    s.now().UnixNano() / int64(window),
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(view)
		if result.Error != nil {
			return fmt.Errorf("failed to record view: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		counted = true
		return incrementViews(tx, bookID)
	})
	return counted, err
}

func incrementViews(db *gorm.DB, bookID uuid.UUID) error {
	if err := db.Model(&models.Book{}).
		Where("id = ?", bookID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// GetUserBookmarks lists the caller's bookmarked books, newest bookmark first.
func (s *CatalogService) GetUserBookmarks(ctx context.Context, userID, callerID string, params utils.PaginationParams) ([]models.Book, int64, error) {
	if userID != callerID {
		return nil, 0, forbidden("read bookmarks")
	}
	return s.booksThrough(ctx, "bookmarks", userID, params)
}

// GetUserPurchases lists the caller's purchased books, newest purchase first.
func (s *CatalogService) GetUserPurchases(ctx context.Context, userID, callerID string, params utils.PaginationParams) ([]models.Book, int64, error) {
	if userID != callerID {
		return nil, 0, forbidden("read purchases")
	}
	return s.booksThrough(ctx, "purchases", userID, params)
}

// booksThrough lists books linked to a user through a junction table that
// has user_id, book_id and created_at columns.
func (s *CatalogService) booksThrough(ctx context.Context, table, userID string, params utils.PaginationParams) ([]models.Book, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Book{}).
		Joins(fmt.Sprintf("JOIN %s ON %s.book_id = books.id", table, table)).
		Where(table+".user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	var books []models.Book
	if err := utils.ApplyPagination(query, params).
		Order(table + ".created_at DESC").
		Preload("Author").
		Find(&books).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load %s: %w", table, err)
	}

	return books, total, nil
}

// GetAuthorBooks lists an author's books, latest first. Authors looking at
// their own shelf also see drafts.
func (s *CatalogService) GetAuthorBooks(ctx context.Context, authorID, viewerID string, params utils.PaginationParams) ([]models.Book, int64, error) {
	return s.ListBooks(ctx, BookFilter{
		PaginationParams: params,
		AuthorID:         authorID,
		ViewerID:         viewerID,
		SortBy:           models.SortLatest,
	})
}
