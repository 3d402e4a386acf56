// internal/services/engagement_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

// EngagementService flips reader relationships (like, bookmark, follow) and
// keeps the denormalized counters on Book in step with the junction rows.
type EngagementService struct {
	db               *gorm.DB
	maxCommentLength int
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

type BookmarkResult struct {
	Bookmarked bool `json:"bookmarked"`
}

type FollowResult struct {
	Following bool `json:"following"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

func NewEngagementService(db *gorm.DB, maxCommentLength int) *EngagementService {
	return &EngagementService{db: db, maxCommentLength: maxCommentLength}
}

// ToggleLike likes the book if the user has not, unlikes it otherwise. The
// returned count is read back from the book after the change.
func (s *EngagementService) ToggleLike(ctx context.Context, userID string, bookID uuid.UUID) (*LikeResult, error) {
	result := &LikeResult{}
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := lockBook(tx, bookID, userID); err != nil {
			return err
		}

		liked, changed, err := togglePair(tx, &models.Like{UserID: userID, BookID: bookID},
			"user_id = ? AND book_id = ?", userID, bookID)
		if err != nil {
			return err
		}
		result.Liked = liked

		if changed {
			if err := adjustCounter(tx, bookID, "like_count", liked); err != nil {
				return err
			}
		}

		return tx.Model(&models.Book{}).
			Select("like_count").
			Where("id = ?", bookID).
			Scan(&result.LikeCount).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *EngagementService) ToggleBookmark(ctx context.Context, userID string, bookID uuid.UUID) (*BookmarkResult, error) {
	result := &BookmarkResult{}
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := lockBook(tx, bookID, userID); err != nil {
			return err
		}

		bookmarked, _, err := togglePair(tx, &models.Bookmark{UserID: userID, BookID: bookID},
			"user_id = ? AND book_id = ?", userID, bookID)
		result.Bookmarked = bookmarked
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *EngagementService) ToggleFollow(ctx context.Context, followerID, followingID string) (*FollowResult, error) {
	if followerID == followingID {
		return nil, invalidField("following_id", "ne", "you cannot follow yourself")
	}

	result := &FollowResult{}
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var target models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&target, "id = ?", followingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user")
			}
			return fmt.Errorf("database error: %w", err)
		}

		following, _, err := togglePair(tx, &models.Follow{FollowerID: followerID, FollowingID: followingID},
			"follower_id = ? AND following_id = ?", followerID, followingID)
		result.Following = following
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// togglePair deletes the junction row matching the condition, or inserts row
// when there was none. It reports the resulting state and whether a row
// actually changed, so counters move exactly once per toggle.
func togglePair(tx *gorm.DB, row interface{}, cond string, args ...interface{}) (bool, bool, error) {
	deleted := tx.Where(cond, args...).Delete(row)
	if deleted.Error != nil {
		return false, false, fmt.Errorf("failed to remove relationship: %w", deleted.Error)
	}
	if deleted.RowsAffected > 0 {
		return false, true, nil
	}

	inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if inserted.Error != nil {
		return false, false, fmt.Errorf("failed to add relationship: %w", inserted.Error)
	}
	return true, inserted.RowsAffected == 1, nil
}

// lockBook row-locks a book the viewer can see. Drafts of other authors
// report not found, as they do on read.
func lockBook(tx *gorm.DB, bookID uuid.UUID, viewerID string) error {
	var book models.Book
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "author_id", "is_published").
		First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("book")
		}
		return fmt.Errorf("database error: %w", err)
	}
	if !bookVisibleTo(&book, viewerID) {
		return notFound("book")
	}
	return nil
}

// adjustCounter moves a book counter by one. Decrements never go below zero.
func adjustCounter(tx *gorm.DB, bookID uuid.UUID, column string, up bool) error {
	expr := gorm.Expr(column + " + 1")
	if !up {
		expr = gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
	}
	if err := tx.Model(&models.Book{}).Where("id = ?", bookID).UpdateColumn(column, expr).Error; err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// CreateComment stores the comment and bumps the book's comment count.
func (s *EngagementService) CreateComment(ctx context.Context, userID string, bookID uuid.UUID, req *CreateCommentRequest) (*models.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, invalidField("content", "required", "content is required")
	}
	if s.maxCommentLength > 0 && utf8.RuneCountInString(content) > s.maxCommentLength {
		return nil, invalidField("content", "max", fmt.Sprintf("content must be at most %d characters", s.maxCommentLength))
	}

	comment := &models.Comment{
		UserID:  userID,
		BookID:  bookID,
		Content: content,
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := lockBook(tx, bookID, userID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return adjustCounter(tx, bookID, "comment_count", true)
	})
	if err != nil {
		return nil, err
	}

	s.db.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID)
	return comment, nil
}

// DeleteComment is allowed for the comment's writer and the book's author.
func (s *EngagementService) DeleteComment(ctx context.Context, commentID uuid.UUID, callerID string) error {
	db := s.db.WithContext(ctx)

	var comment models.Comment
	if err := db.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("comment")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if comment.UserID != callerID {
		var book models.Book
		if err := db.Select("id", "author_id").First(&book, "id = ?", comment.BookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("book")
			}
			return fmt.Errorf("database error: %w", err)
		}
		if book.AuthorID != callerID {
			return forbidden("delete comment")
		}
	}

	return database.WithTransaction(db, func(tx *gorm.DB) error {
		if err := lockBook(tx, comment.BookID, callerID); err != nil {
			return err
		}
		deleted := tx.Delete(&models.Comment{}, "id = ?", commentID)
		if deleted.Error != nil {
			return fmt.Errorf("failed to delete comment: %w", deleted.Error)
		}
		if deleted.RowsAffected == 0 {
			return nil
		}
		return adjustCounter(tx, comment.BookID, "comment_count", false)
	})
}

// GetBookComments lists comments newest first, each with its writer. A
// draft's comments are only listed for its author.
func (s *EngagementService) GetBookComments(ctx context.Context, bookID uuid.UUID, viewerID string, params utils.PaginationParams) ([]models.Comment, int64, error) {
	db := s.db.WithContext(ctx)

	var book models.Book
	if err := db.Select("id", "author_id", "is_published").First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, notFound("book")
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}
	if !bookVisibleTo(&book, viewerID) {
		return nil, 0, notFound("book")
	}

	query := db.Model(&models.Comment{}).Where("book_id = ?", bookID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	var comments []models.Comment
	if err := utils.ApplyPagination(query, params).
		Order("created_at DESC, id DESC").
		Preload("User").
		Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load comments: %w", err)
	}

	return comments, total, nil
}
