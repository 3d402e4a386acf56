// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/models"
)

const (
	intentStatusSucceeded = "succeeded"

	// metaPriceCents carries the price quoted when the intent was created.
	metaPriceCents = "price_cents"
)

// PaymentService runs checkout against the payment processor and records
// purchases only once the processor confirms the charge.
type PaymentService struct {
	db        *gorm.DB
	config    config.PaymentConfig
	gateway   PaymentGateway
	purchases *PurchaseService
	notifier  PurchaseNotifier
}

type CreatePaymentIntentRequest struct {
	BookID uuid.UUID `json:"book_id" validate:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type ConfirmPurchaseRequest struct {
	BookID          uuid.UUID `json:"book_id" validate:"required"`
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
}

// NewPaymentService wires checkout. notifier may be nil.
func NewPaymentService(db *gorm.DB, cfg config.PaymentConfig, gateway PaymentGateway, purchases *PurchaseService, notifier PurchaseNotifier) *PaymentService {
	return &PaymentService{
		db:        db,
		config:    cfg,
		gateway:   gateway,
		purchases: purchases,
		notifier:  notifier,
	}
}

// CreatePaymentIntent opens a checkout for a priced book the caller does not
// own yet. Processor failures wrap ErrPaymentProvider.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID string, bookID uuid.UUID) (*PaymentIntentResponse, error) {
	book, err := s.purchasableBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.IsFree() {
		return nil, invalidField("book_id", "priced", "this book is free")
	}
	if book.AuthorID == userID {
		return nil, invalidField("book_id", "not_author", "you cannot buy your own book")
	}

	purchased, err := s.purchases.HasPurchased(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if purchased {
		return nil, fmt.Errorf("book already purchased: %w", ErrConflict)
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentParams{
		AmountCents:        book.PriceCents(),
		Currency:           s.config.Currency,
		PaymentMethodTypes: s.config.PaymentMethodTypes,
		Metadata: map[string]string{
			"book_id":      bookID.String(),
			"user_id":      userID,
			metaPriceCents: strconv.FormatInt(book.PriceCents(), 10),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	return &PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          book.PriceCents(),
		Currency:        s.config.Currency,
	}, nil
}

// ConfirmPurchase asks the processor for the intent and records the purchase
// only if it succeeded for this user, this book and the full price.
func (s *PaymentService) ConfirmPurchase(ctx context.Context, userID string, bookID uuid.UUID, paymentIntentID string) (*models.Purchase, error) {
	book, err := s.purchasableBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	if err := verifyIntent(intent, userID, book); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":           userID,
			"book_id":           bookID,
			"payment_intent_id": paymentIntentID,
		}).WithError(err).Warn("Payment confirmation rejected")
		return nil, err
	}

	purchase, err := s.purchases.CreatePurchase(ctx, userID, bookID, paidAmount(intent), intent.ID)
	if err != nil {
		return nil, err
	}
	s.notifyPurchase(purchase)
	return purchase, nil
}

// HandleWebhook records purchases announced by signed processor events. A
// purchase that was already recorded is not an error.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return invalidField("signature", "signature", err.Error())
	}

	log := logrus.WithFields(logrus.Fields{"event_id": event.ID, "type": event.Type})
	if event.Type != eventPaymentIntentSucceeded || event.Intent == nil {
		log.Debug("Ignoring webhook event")
		return nil
	}

	intent := event.Intent
	bookID, err := uuid.Parse(intent.Metadata["book_id"])
	if err != nil {
		log.Warn("Payment intent without book metadata")
		return nil
	}
	userID := intent.Metadata["user_id"]

	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithField("book_id", bookID).Warn("Payment for unknown book")
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := verifyIntent(intent, userID, &book); err != nil {
		log.WithError(err).Warn("Payment intent does not match book")
		return nil
	}

	purchase, err := s.purchases.CreatePurchase(ctx, userID, bookID, paidAmount(intent), intent.ID)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			log.Info("Purchase already recorded")
			return nil
		}
		return err
	}
	s.notifyPurchase(purchase)
	return nil
}

// notifyPurchase hands the purchase to the notifier in the background.
func (s *PaymentService) notifyPurchase(purchase *models.Purchase) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.PurchaseCompleted(context.Background(), purchase); err != nil {
			logrus.WithError(err).WithField("purchase_id", purchase.ID).Warn("Purchase notification failed")
		}
	}()
}

func (s *PaymentService) purchasableBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ? AND is_published = ?", bookID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("book")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &book, nil
}

// verifyIntent holds the intent to the price quoted at checkout, or to the
// current price when the intent carries no quote.
func verifyIntent(intent *Intent, userID string, book *models.Book) error {
	quoted := book.PriceCents()
	if v, err := strconv.ParseInt(intent.Metadata[metaPriceCents], 10, 64); err == nil {
		quoted = v
	}

	switch {
	case intent.Status != intentStatusSucceeded:
		return fmt.Errorf("payment intent status %q: %w", intent.Status, ErrPaymentNotConfirmed)
	case quoted <= 0 || intent.AmountCents != quoted:
		return fmt.Errorf("payment amount %d does not match price %d: %w",
			intent.AmountCents, quoted, ErrPaymentNotConfirmed)
	case intent.Metadata["book_id"] != book.ID.String() || intent.Metadata["user_id"] != userID:
		return fmt.Errorf("payment intent belongs to another purchase: %w", ErrPaymentNotConfirmed)
	}
	return nil
}

// paidAmount is what the processor actually charged, in currency units.
func paidAmount(intent *Intent) float64 {
	return float64(intent.AmountCents) / 100
}
