package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/javajoker/highdeium-backend/internal/models"
)

type UserServiceTestSuite struct {
	serviceSuite
	users *UserService
}

func (s *UserServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.users = NewUserService(s.db)
}

func (s *UserServiceTestSuite) TestUpsertUserKeepsLocalEdits() {
	user, err := s.users.UpsertUser(s.ctx, &Identity{Subject: "sub-1", Email: "a@example.com", FirstName: "Ada"})
	s.Require().NoError(err)
	s.Equal("Ada", user.FirstName)

	_, err = s.users.UpdateProfile(s.ctx, "sub-1", &UpdateProfileRequest{Bio: strPtr("writes things")})
	s.Require().NoError(err)

	user, err = s.users.UpsertUser(s.ctx, &Identity{Subject: "sub-1", Email: "ada@example.com", FirstName: "Ada", LastName: "L"})
	s.Require().NoError(err)
	s.Equal("ada@example.com", *user.Email)
	s.Equal("L", user.LastName)
	s.Equal("writes things", user.Bio)
	s.Equal(int64(1), s.count(&models.User{}, "1 = 1"))

	_, err = s.users.UpsertUser(s.ctx, &Identity{Subject: "sub-2", Email: "ada@example.com"})
	s.True(errors.Is(err, ErrConflict))
}

func (s *UserServiceTestSuite) TestUpdateProfileValidation() {
	s.createUser("reader")

	_, err := s.users.UpdateProfile(s.ctx, "reader", &UpdateProfileRequest{ProfileImageURL: strPtr("not a url")})
	s.True(errors.Is(err, ErrValidation))

	_, err = s.users.UpdateProfile(s.ctx, "ghost", &UpdateProfileRequest{Bio: strPtr("x")})
	s.True(errors.Is(err, ErrNotFound))

	user, err := s.users.UpdateProfile(s.ctx, "reader", &UpdateProfileRequest{IsCreator: boolPtr(true)})
	s.Require().NoError(err)
	s.True(user.IsCreator)
}

func (s *UserServiceTestSuite) TestGetUserStats() {
	s.createUser("author")
	s.createUser("fan")
	s.createUser("idol")
	s.createBook("author", nil)
	s.createBook("author", nil)
	s.createBook("author", func(b *models.Book) { b.IsPublished = false })
	s.Require().NoError(s.db.Create(&models.Follow{FollowerID: "fan", FollowingID: "author"}).Error)
	s.Require().NoError(s.db.Create(&models.Follow{FollowerID: "author", FollowingID: "idol"}).Error)
	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", "author").Update("total_earnings", 12.5).Error)

	stats, err := s.users.GetUserStats(s.ctx, "author")
	s.Require().NoError(err)
	s.Equal(&UserStats{
		BooksCount:     2,
		FollowersCount: 1,
		FollowingCount: 1,
		TotalEarnings:  "12.50",
	}, stats)

	_, err = s.users.GetUserStats(s.ctx, "ghost")
	s.True(errors.Is(err, ErrNotFound))
}

func (s *UserServiceTestSuite) TestUpdateStripeInfo() {
	s.createUser("reader")

	user, err := s.users.UpdateStripeInfo(s.ctx, "reader", "cus_123")
	s.Require().NoError(err)
	s.Equal("cus_123", user.StripeCustomerID)

	_, err = s.users.UpdateStripeInfo(s.ctx, "ghost", "cus_456")
	s.True(errors.Is(err, ErrNotFound))
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
