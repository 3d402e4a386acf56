package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/javajoker/highdeium-backend/internal/models"
)

type PaymentServiceTestSuite struct {
	serviceSuite
	gateway   *fakeGateway
	payments  *PaymentService
	purchases *PurchaseService
	book      *models.Book
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.gateway = newFakeGateway()
	s.purchases = NewPurchaseService(s.db)
	s.payments = NewPaymentService(s.db, s.cfg.Payment, s.gateway, s.purchases, nil)
	s.createUser("author")
	s.createUser("reader")
	s.book = s.createBook("author", func(b *models.Book) { b.Price = 4.99 })
}

func (s *PaymentServiceTestSuite) succeed(id string) {
	s.gateway.intents[id].Status = "succeeded"
}

func (s *PaymentServiceTestSuite) TestCreatePaymentIntent() {
	resp, err := s.payments.CreatePaymentIntent(s.ctx, "reader", s.book.ID)
	s.Require().NoError(err)
	s.Equal("pi_1_secret", resp.ClientSecret)
	s.Equal(int64(499), resp.Amount)

	s.Require().Len(s.gateway.created, 1)
	params := s.gateway.created[0]
	s.Equal(int64(499), params.AmountCents)
	s.Equal("usd", params.Currency)
	s.Equal([]string{"card", "cashapp"}, params.PaymentMethodTypes)
	s.Equal(s.book.ID.String(), params.Metadata["book_id"])
	s.Equal("reader", params.Metadata["user_id"])
	s.Equal("499", params.Metadata["price_cents"])
}

func (s *PaymentServiceTestSuite) TestCreatePaymentIntentRejections() {
	free := s.createBook("author", nil)
	_, err := s.payments.CreatePaymentIntent(s.ctx, "reader", free.ID)
	s.True(errors.Is(err, ErrValidation))

	_, err = s.payments.CreatePaymentIntent(s.ctx, "author", s.book.ID)
	s.True(errors.Is(err, ErrValidation))

	draft := s.createBook("author", func(b *models.Book) {
		b.Price = 1
		b.IsPublished = false
	})
	_, err = s.payments.CreatePaymentIntent(s.ctx, "reader", draft.ID)
	s.True(errors.Is(err, ErrNotFound))

	_, err = s.purchases.CreatePurchase(s.ctx, "reader", s.book.ID, 4.99, "")
	s.Require().NoError(err)
	_, err = s.payments.CreatePaymentIntent(s.ctx, "reader", s.book.ID)
	s.True(errors.Is(err, ErrConflict))

	s.Empty(s.gateway.created)
}

func (s *PaymentServiceTestSuite) TestProviderFailureIsDistinct() {
	s.gateway.createErr = errors.New("stripe unreachable")

	_, err := s.payments.CreatePaymentIntent(s.ctx, "reader", s.book.ID)
	s.True(errors.Is(err, ErrPaymentProvider))
	s.False(errors.Is(err, ErrValidation))

	s.gateway.getErr = errors.New("stripe unreachable")
	_, err = s.payments.ConfirmPurchase(s.ctx, "reader", s.book.ID, "pi_1")
	s.True(errors.Is(err, ErrPaymentProvider))
}

func (s *PaymentServiceTestSuite) TestConfirmPurchaseVerifiesIntent() {
	resp, err := s.payments.CreatePaymentIntent(s.ctx, "reader", s.book.ID)
	s.Require().NoError(err)

	// Not paid yet.
	_, err = s.payments.ConfirmPurchase(s.ctx, "reader", s.book.ID, resp.PaymentIntentID)
	s.True(errors.Is(err, ErrPaymentNotConfirmed))

	s.succeed(resp.PaymentIntentID)

	// Someone else's intent.
	s.createUser("other")
	_, err = s.payments.ConfirmPurchase(s.ctx, "other", s.book.ID, resp.PaymentIntentID)
	s.True(errors.Is(err, ErrPaymentNotConfirmed))

	purchase, err := s.payments.ConfirmPurchase(s.ctx, "reader", s.book.ID, resp.PaymentIntentID)
	s.Require().NoError(err)
	s.Require().NotNil(purchase.StripePaymentIntentID)
	s.Equal(resp.PaymentIntentID, *purchase.StripePaymentIntentID)
	s.InDelta(4.99, purchase.Amount, 0.001)

	_, err = s.payments.ConfirmPurchase(s.ctx, "reader", s.book.ID, resp.PaymentIntentID)
	s.True(errors.Is(err, ErrConflict))
}

func (s *PaymentServiceTestSuite) TestConfirmPurchaseRejectsUnderpayment() {
	s.gateway.intents["pi_cheap"] = &Intent{
		ID:          "pi_cheap",
		Status:      "succeeded",
		AmountCents: 100,
		Metadata:    map[string]string{"book_id": s.book.ID.String(), "user_id": "reader"},
	}

	_, err := s.payments.ConfirmPurchase(s.ctx, "reader", s.book.ID, "pi_cheap")
	s.True(errors.Is(err, ErrPaymentNotConfirmed))
	s.Equal(int64(0), s.count(&models.Purchase{}, "1 = 1"))
}

func (s *PaymentServiceTestSuite) TestConfirmPurchaseHonorsQuotedPrice() {
	resp, err := s.payments.CreatePaymentIntent(s.ctx, "reader", s.book.ID)
	s.Require().NoError(err)
	s.succeed(resp.PaymentIntentID)

	// The author raises the price after the reader has paid.
	s.Require().NoError(s.db.Model(&models.Book{}).Where("id = ?", s.book.ID).Update("price", 9.99).Error)

	purchase, err := s.payments.ConfirmPurchase(s.ctx, "reader", s.book.ID, resp.PaymentIntentID)
	s.Require().NoError(err)
	s.InDelta(4.99, purchase.Amount, 0.001)

	var author models.User
	s.Require().NoError(s.db.First(&author, "id = ?", "author").Error)
	s.InDelta(4.99, author.TotalEarnings, 0.001)
}

func (s *PaymentServiceTestSuite) TestConfirmPurchaseRejectsAmountOffQuote() {
	s.gateway.intents["pi_tampered"] = &Intent{
		ID:          "pi_tampered",
		Status:      "succeeded",
		AmountCents: 100,
		Metadata: map[string]string{
			"book_id":     s.book.ID.String(),
			"user_id":     "reader",
			"price_cents": "499",
		},
	}

	_, err := s.payments.ConfirmPurchase(s.ctx, "reader", s.book.ID, "pi_tampered")
	s.True(errors.Is(err, ErrPaymentNotConfirmed))
	s.Equal(int64(0), s.count(&models.Purchase{}, "1 = 1"))
}

func (s *PaymentServiceTestSuite) TestWebhookRecordsPurchaseIdempotently() {
	s.gateway.event = &WebhookEvent{
		ID:   "evt_1",
		Type: "payment_intent.succeeded",
		Intent: &Intent{
			ID:          "pi_hook",
			Status:      "succeeded",
			AmountCents: 499,
			Metadata:    map[string]string{"book_id": s.book.ID.String(), "user_id": "reader"},
		},
	}

	s.Require().NoError(s.payments.HandleWebhook(s.ctx, []byte("{}"), "sig"))
	s.Require().NoError(s.payments.HandleWebhook(s.ctx, []byte("{}"), "sig"))
	s.Equal(int64(1), s.count(&models.Purchase{}, "book_id = ?", s.book.ID))

	s.gateway.event = &WebhookEvent{ID: "evt_2", Type: "charge.refunded"}
	s.NoError(s.payments.HandleWebhook(s.ctx, []byte("{}"), "sig"))

	s.gateway.parseErr = errors.New("bad signature")
	err := s.payments.HandleWebhook(s.ctx, []byte("{}"), "forged")
	s.True(errors.Is(err, ErrValidation))
}

type recordingNotifier struct {
	purchases chan *models.Purchase
}

func (n *recordingNotifier) PurchaseCompleted(ctx context.Context, purchase *models.Purchase) error {
	n.purchases <- purchase
	return nil
}

func (s *PaymentServiceTestSuite) TestRecordedPurchaseNotifiesOnce() {
	notifier := &recordingNotifier{purchases: make(chan *models.Purchase, 4)}
	s.payments = NewPaymentService(s.db, s.cfg.Payment, s.gateway, s.purchases, notifier)
	s.gateway.event = &WebhookEvent{
		ID:   "evt_1",
		Type: "payment_intent.succeeded",
		Intent: &Intent{
			ID:          "pi_hook",
			Status:      "succeeded",
			AmountCents: 499,
			Metadata:    map[string]string{"book_id": s.book.ID.String(), "user_id": "reader"},
		},
	}

	s.Require().NoError(s.payments.HandleWebhook(s.ctx, []byte("{}"), "sig"))
	s.Require().NoError(s.payments.HandleWebhook(s.ctx, []byte("{}"), "sig"))

	select {
	case purchase := <-notifier.purchases:
		s.Equal("reader", purchase.UserID)
	case <-time.After(time.Second):
		s.Fail("no notification sent")
	}
	s.Never(func() bool { return len(notifier.purchases) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
