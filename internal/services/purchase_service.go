// internal/services/purchase_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/models"
)

// PurchaseService records that a reader obtained a priced book and answers
// access questions from those records.
type PurchaseService struct {
	db *gorm.DB
}

func NewPurchaseService(db *gorm.DB) *PurchaseService {
	return &PurchaseService{db: db}
}

func (s *PurchaseService) HasPurchased(ctx context.Context, userID string, bookID uuid.UUID) (bool, error) {
	if userID == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

// CanAccess grants full content for free books, to the author and to buyers.
func (s *PurchaseService) CanAccess(ctx context.Context, userID string, book *models.Book) (bool, error) {
	if book.IsFree() || (userID != "" && userID == book.AuthorID) {
		return true, nil
	}
	return s.HasPurchased(ctx, userID, book.ID)
}

// CreatePurchase inserts the purchase and credits the author in one
// transaction. A second purchase of the same book by the same user fails
// with ErrConflict.
func (s *PurchaseService) CreatePurchase(ctx context.Context, userID string, bookID uuid.UUID, amount float64, paymentRef string) (*models.Purchase, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if amount < 0 {
		return nil, invalidField("amount", "min", "amount must not be negative")
	}

	purchase := &models.Purchase{
		UserID: userID,
		BookID: bookID,
		Amount: amount,
	}
	if paymentRef != "" {
		purchase.StripePaymentIntentID = &paymentRef
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "author_id").
			First(&book, "id = ?", bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("book")
			}
			return fmt.Errorf("database error: %w", err)
		}

		var existing int64
		if err := tx.Model(&models.Purchase{}).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("book already purchased: %w", ErrConflict)
		}

		if err := tx.Create(purchase).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return fmt.Errorf("book already purchased: %w", ErrConflict)
			}
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", book.AuthorID).
			UpdateColumn("total_earnings", gorm.Expr("total_earnings + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to credit author: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"book_id": bookID,
		"amount":  amount,
	}).Info("Purchase recorded")

	return purchase, nil
}
