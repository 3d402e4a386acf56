// internal/services/authoring_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

// ObjectRemover drops stored media objects. StorageService implements it.
type ObjectRemover interface {
	DeleteObject(ctx context.Context, url string) error
}

// AuthoringService owns every mutation of books, chapters and media. Only
// the author of a book may change it or anything under it.
type AuthoringService struct {
	db      *gorm.DB
	objects ObjectRemover
}

type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Description   string `json:"description" validate:"max=10000"`
	Genre         string `json:"genre" validate:"required,genre"`
	CoverImageURL string `json:"cover_image_url" validate:"omitempty,url,max=1024"`
	Price         string `json:"price" validate:"omitempty,price"`
	IsMature      bool   `json:"is_mature"`
	IsPublished   *bool  `json:"is_published"`
	HasVideo      bool   `json:"has_video"`
	HasAudio      bool   `json:"has_audio"`
	HasImages     bool   `json:"has_images"`
	ReadTime      *int   `json:"read_time" validate:"omitempty,min=0"`
}

type UpdateBookRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=10000"`
	Genre         *string `json:"genre" validate:"omitempty,genre"`
	CoverImageURL *string `json:"cover_image_url" validate:"omitempty,url,max=1024"`
	Price         *string `json:"price" validate:"omitempty,price"`
	IsMature      *bool   `json:"is_mature"`
	IsPublished   *bool   `json:"is_published"`
	HasVideo      *bool   `json:"has_video"`
	HasAudio      *bool   `json:"has_audio"`
	HasImages     *bool   `json:"has_images"`
	ReadTime      *int    `json:"read_time" validate:"omitempty,min=0"`
}

type CreateChapterRequest struct {
	Title      string `json:"title" validate:"required,max=255"`
	Content    string `json:"content"`
	OrderIndex *int   `json:"order_index" validate:"omitempty,min=0"`
}

type UpdateChapterRequest struct {
	Title      *string `json:"title" validate:"omitempty,max=255"`
	Content    *string `json:"content"`
	OrderIndex *int    `json:"order_index" validate:"omitempty,min=0"`
}

type CreateMediaRequest struct {
	ChapterID *uuid.UUID `json:"chapter_id"`
	URL       string     `json:"url" validate:"required,max=1024"`
	Type      string     `json:"type" validate:"required,media_type"`
	FileName  string     `json:"file_name" validate:"max=255"`
	FileSize  int64      `json:"file_size" validate:"min=0"`
	MimeType  string     `json:"mime_type" validate:"max=127"`
	AltText   string     `json:"alt_text"`
}

func NewAuthoringService(db *gorm.DB, objects ObjectRemover) *AuthoringService {
	return &AuthoringService{db: db, objects: objects}
}

func (s *AuthoringService) CreateBook(ctx context.Context, authorID string, req *CreateBookRequest) (*models.Book, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalidField("title", "required", "title is required")
	}
	price, err := utils.ParsePrice(req.Price)
	if err != nil {
		return nil, invalidField("price", "price", err.Error())
	}

	book := &models.Book{
		Title:         title,
		Description:   req.Description,
		AuthorID:      authorID,
		Genre:         models.Genre(req.Genre),
		CoverImageURL: req.CoverImageURL,
		Price:         price,
		IsMature:      req.IsMature,
		HasVideo:      req.HasVideo,
		HasAudio:      req.HasAudio,
		HasImages:     req.HasImages,
		ReadTime:      req.ReadTime,
	}
	if req.IsPublished != nil {
		book.IsPublished = *req.IsPublished
	}

	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND is_creator = ?", authorID, false).
			UpdateColumn("is_creator", true).Error
	})
	if err != nil {
		return nil, err
	}

	s.db.WithContext(ctx).Preload("Author").First(book, "id = ?", book.ID)

	logrus.WithFields(logrus.Fields{
		"book_id":   book.ID,
		"author_id": authorID,
	}).Info("Book created")

	return book, nil
}

func (s *AuthoringService) UpdateBook(ctx context.Context, bookID uuid.UUID, authorID string, req *UpdateBookRequest) (*models.Book, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	book, err := s.ownedBook(ctx, bookID, authorID, "update book")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, invalidField("title", "required", "title is required")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Genre != nil {
		updates["genre"] = *req.Genre
	}
	if req.CoverImageURL != nil {
		updates["cover_image_url"] = *req.CoverImageURL
	}
	if req.Price != nil {
		price, err := utils.ParsePrice(*req.Price)
		if err != nil {
			return nil, invalidField("price", "price", err.Error())
		}
		updates["price"] = price
	}
	if req.IsMature != nil {
		updates["is_mature"] = *req.IsMature
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	if req.HasVideo != nil {
		updates["has_video"] = *req.HasVideo
	}
	if req.HasAudio != nil {
		updates["has_audio"] = *req.HasAudio
	}
	if req.HasImages != nil {
		updates["has_images"] = *req.HasImages
	}
	if req.ReadTime != nil {
		updates["read_time"] = *req.ReadTime
	}

	if err := s.db.WithContext(ctx).Model(book).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("Author").First(book, "id = ?", bookID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return book, nil
}

// DeleteBook removes the book's chapters, media and engagement rows and
// soft-deletes the book. Purchases are kept.
func (s *AuthoringService) DeleteBook(ctx context.Context, bookID uuid.UUID, authorID string) error {
	book, err := s.ownedBook(ctx, bookID, authorID, "delete book")
	if err != nil {
		return err
	}

	var mediaURLs []string
	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var chapterIDs []uuid.UUID
		if err := tx.Model(&models.Chapter{}).Where("book_id = ?", bookID).Pluck("id", &chapterIDs).Error; err != nil {
			return err
		}

		mediaOf := func() *gorm.DB {
			if len(chapterIDs) == 0 {
				return tx.Where("book_id = ?", bookID)
			}
			return tx.Where("book_id = ? OR chapter_id IN ?", bookID, chapterIDs)
		}
		if err := mediaOf().Model(&models.Media{}).Pluck("url", &mediaURLs).Error; err != nil {
			return err
		}
		if err := mediaOf().Delete(&models.Media{}).Error; err != nil {
			return err
		}

		for _, child := range []interface{}{
			&models.Chapter{},
			&models.Comment{},
			&models.Like{},
			&models.Bookmark{},
			&models.BookView{},
		} {
			if err := tx.Where("book_id = ?", bookID).Delete(child).Error; err != nil {
				return err
			}
		}

		return tx.Delete(book).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	for _, url := range mediaURLs {
		s.removeObject(ctx, url)
	}

	logrus.WithFields(logrus.Fields{
		"book_id":   bookID,
		"author_id": authorID,
		"media":     len(mediaURLs),
	}).Info("Book deleted")

	return nil
}

func (s *AuthoringService) CreateChapter(ctx context.Context, bookID uuid.UUID, authorID string, req *CreateChapterRequest) (*models.Chapter, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalidField("title", "required", "title is required")
	}

	if _, err := s.ownedBook(ctx, bookID, authorID, "add chapter"); err != nil {
		return nil, err
	}

	chapter := &models.Chapter{
		BookID:    bookID,
		Title:     title,
		Content:   req.Content,
		WordCount: utils.WordCount(req.Content),
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if req.OrderIndex != nil {
			chapter.OrderIndex = *req.OrderIndex
		} else {
			var next int
			if err := tx.Model(&models.Chapter{}).
				Where("book_id = ?", bookID).
				Select("COALESCE(MAX(order_index), 0) + 1").
				Scan(&next).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			chapter.OrderIndex = next
		}

		if err := tx.Create(chapter).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return fmt.Errorf("chapter order %d already used: %w", chapter.OrderIndex, ErrConflict)
			}
			return fmt.Errorf("failed to create chapter: %w", err)
		}
		return touchBook(tx, bookID)
	})
	if err != nil {
		return nil, err
	}

	return chapter, nil
}

func (s *AuthoringService) UpdateChapter(ctx context.Context, chapterID uuid.UUID, authorID string, req *UpdateChapterRequest) (*models.Chapter, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	chapter, err := s.ownedChapter(ctx, chapterID, authorID, "update chapter")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, invalidField("title", "required", "title is required")
		}
		updates["title"] = title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
		updates["word_count"] = utils.WordCount(*req.Content)
	}
	if req.OrderIndex != nil {
		updates["order_index"] = *req.OrderIndex
	}

	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Model(chapter).Updates(updates).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return fmt.Errorf("chapter order already used: %w", ErrConflict)
			}
			return fmt.Errorf("failed to update chapter: %w", err)
		}
		return touchBook(tx, chapter.BookID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).First(chapter, "id = ?", chapterID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return chapter, nil
}

func (s *AuthoringService) DeleteChapter(ctx context.Context, chapterID uuid.UUID, authorID string) error {
	chapter, err := s.ownedChapter(ctx, chapterID, authorID, "delete chapter")
	if err != nil {
		return err
	}

	var mediaURLs []string
	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Model(&models.Media{}).Where("chapter_id = ?", chapterID).Pluck("url", &mediaURLs).Error; err != nil {
			return err
		}
		if err := tx.Where("chapter_id = ?", chapterID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(chapter).Error; err != nil {
			return err
		}
		return touchBook(tx, chapter.BookID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}

	for _, url := range mediaURLs {
		s.removeObject(ctx, url)
	}
	return nil
}

// CreateMedia attaches an uploaded asset to a book, or to one of its
// chapters, and raises the book's matching has_* flag.
func (s *AuthoringService) CreateMedia(ctx context.Context, bookID uuid.UUID, authorID string, req *CreateMediaRequest) (*models.Media, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	if _, err := s.ownedBook(ctx, bookID, authorID, "add media"); err != nil {
		return nil, err
	}

	if req.ChapterID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Chapter{}).
			Where("id = ? AND book_id = ?", *req.ChapterID, bookID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			return nil, notFound("chapter")
		}
	}

	media := &models.Media{
		ChapterID: req.ChapterID,
		BookID:    &bookID,
		URL:       req.URL,
		Type:      models.MediaType(req.Type),
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		MimeType:  req.MimeType,
		AltText:   req.AltText,
	}

	flag := map[models.MediaType]string{
		models.MediaTypeImage: "has_images",
		models.MediaTypeVideo: "has_video",
		models.MediaTypeAudio: "has_audio",
	}[media.Type]

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Create(media).Error; err != nil {
			return fmt.Errorf("failed to create media: %w", err)
		}
		return tx.Model(&models.Book{}).
			Where("id = ?", bookID).
			UpdateColumn(flag, true).Error
	})
	if err != nil {
		return nil, err
	}

	return media, nil
}

func (s *AuthoringService) DeleteMedia(ctx context.Context, mediaID uuid.UUID, authorID string) error {
	var media models.Media
	if err := s.db.WithContext(ctx).First(&media, "id = ?", mediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("media")
		}
		return fmt.Errorf("database error: %w", err)
	}

	bookID, err := s.mediaBookID(ctx, &media)
	if err != nil {
		return err
	}
	if _, err := s.ownedBook(ctx, bookID, authorID, "delete media"); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&media).Error; err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	s.removeObject(ctx, media.URL)
	return nil
}

func (s *AuthoringService) mediaBookID(ctx context.Context, media *models.Media) (uuid.UUID, error) {
	if media.BookID != nil {
		return *media.BookID, nil
	}
	if media.ChapterID == nil {
		return uuid.Nil, notFound("book")
	}

	var chapter models.Chapter
	if err := s.db.WithContext(ctx).Select("id", "book_id").First(&chapter, "id = ?", *media.ChapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, notFound("chapter")
		}
		return uuid.Nil, fmt.Errorf("database error: %w", err)
	}
	return chapter.BookID, nil
}

// ownedBook loads a book and checks that authorID wrote it. A missing book
// is ErrNotFound; someone else's book is ErrForbidden.
func (s *AuthoringService) ownedBook(ctx context.Context, bookID uuid.UUID, authorID, action string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("book")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if book.AuthorID != authorID {
		return nil, forbidden(action)
	}
	return &book, nil
}

func (s *AuthoringService) ownedChapter(ctx context.Context, chapterID uuid.UUID, authorID, action string) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := s.db.WithContext(ctx).First(&chapter, "id = ?", chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("chapter")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if _, err := s.ownedBook(ctx, chapter.BookID, authorID, action); err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (s *AuthoringService) removeObject(ctx context.Context, url string) {
	if s.objects == nil || url == "" {
		return
	}
	if err := s.objects.DeleteObject(ctx, url); err != nil {
		logrus.WithError(err).WithField("url", url).Warn("Failed to delete stored media")
	}
}

func touchBook(tx *gorm.DB, bookID uuid.UUID) error {
	return tx.Model(&models.Book{}).Where("id = ?", bookID).UpdateColumn("updated_at", time.Now()).Error
}
