package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/highdeium-backend/internal/models"
)

type PurchaseServiceTestSuite struct {
	serviceSuite
	purchases *PurchaseService
}

func (s *PurchaseServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.purchases = NewPurchaseService(s.db)
	s.createUser("author")
	s.createUser("reader")
}

func (s *PurchaseServiceTestSuite) TestPurchaseGrantsAccessOnce() {
	book := s.createBook("author", func(b *models.Book) { b.Price = 4.99 })

	access, err := s.purchases.CanAccess(s.ctx, "reader", book)
	s.Require().NoError(err)
	s.False(access)

	_, err = s.purchases.CreatePurchase(s.ctx, "reader", book.ID, 4.99, "pi_first")
	s.Require().NoError(err)

	purchased, err := s.purchases.HasPurchased(s.ctx, "reader", book.ID)
	s.Require().NoError(err)
	s.True(purchased)

	_, err = s.purchases.CreatePurchase(s.ctx, "reader", book.ID, 4.99, "pi_second")
	s.True(errors.Is(err, ErrConflict))
	s.Equal(int64(1), s.count(&models.Purchase{}, "user_id = ? AND book_id = ?", "reader", book.ID))

	access, err = s.purchases.CanAccess(s.ctx, "reader", book)
	s.Require().NoError(err)
	s.True(access)

	var author models.User
	s.Require().NoError(s.db.First(&author, "id = ?", "author").Error)
	s.InDelta(4.99, author.TotalEarnings, 0.001)
}

func (s *PurchaseServiceTestSuite) TestCanAccessAlternateGrants() {
	free := s.createBook("author", nil)
	priced := s.createBook("author", func(b *models.Book) { b.Price = 2 })

	access, err := s.purchases.CanAccess(s.ctx, "", free)
	s.Require().NoError(err)
	s.True(access)

	access, err = s.purchases.CanAccess(s.ctx, "author", priced)
	s.Require().NoError(err)
	s.True(access)

	access, err = s.purchases.CanAccess(s.ctx, "", priced)
	s.Require().NoError(err)
	s.False(access)
}

func (s *PurchaseServiceTestSuite) TestPaymentReferenceIsUnique() {
	first := s.createBook("author", func(b *models.Book) { b.Price = 1 })
	second := s.createBook("author", func(b *models.Book) { b.Price = 1 })

	_, err := s.purchases.CreatePurchase(s.ctx, "reader", first.ID, 1, "pi_shared")
	s.Require().NoError(err)
	_, err = s.purchases.CreatePurchase(s.ctx, "reader", second.ID, 1, "pi_shared")
	s.True(errors.Is(err, ErrConflict))

	var author models.User
	s.Require().NoError(s.db.First(&author, "id = ?", "author").Error)
	s.InDelta(1.0, author.TotalEarnings, 0.001)
}

func (s *PurchaseServiceTestSuite) TestCreatePurchaseRejectsBadInput() {
	book := s.createBook("author", nil)

	_, err := s.purchases.CreatePurchase(s.ctx, "reader", uuid.New(), 1, "")
	s.True(errors.Is(err, ErrNotFound))

	_, err = s.purchases.CreatePurchase(s.ctx, "", book.ID, 1, "")
	s.True(errors.Is(err, ErrUnauthenticated))

	_, err = s.purchases.CreatePurchase(s.ctx, "reader", book.ID, -1, "")
	s.True(errors.Is(err, ErrValidation))
}

func TestPurchaseServiceSuite(t *testing.T) {
	suite.Run(t, new(PurchaseServiceTestSuite))
}
