package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type EngagementServiceTestSuite struct {
	serviceSuite
	engagement *EngagementService
	book       *models.Book
}

func (s *EngagementServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.engagement = NewEngagementService(s.db, 20)
	s.createUser("author")
	s.book = s.createBook("author", nil)
}

func (s *EngagementServiceTestSuite) TestLikeCountMatchesRowsAfterManyToggles() {
	// Users 0..4 like once, users 0 and 1 toggle again, user 2 three more times.
	toggles := map[int]int{0: 2, 1: 2, 2: 4, 3: 1, 4: 1}
	for user, n := range toggles {
		id := fmt.Sprintf("user-%d", user)
		s.createUser(id)
		for i := 0; i < n; i++ {
			_, err := s.engagement.ToggleLike(s.ctx, id, s.book.ID)
			s.Require().NoError(err)
		}
	}

	rows := s.count(&models.Like{}, "book_id = ?", s.book.ID)
	s.Equal(int64(2), rows)
	s.Equal(rows, s.reloadBook(s.book.ID).LikeCount)
}

func (s *EngagementServiceTestSuite) TestToggleLikeUnknownBook() {
	_, err := s.engagement.ToggleLike(s.ctx, "author", uuid.New())
	s.True(errors.Is(err, ErrNotFound))
}

func (s *EngagementServiceTestSuite) TestUnlikeNeverGoesNegative() {
	s.createUser("reader")
	s.Require().NoError(s.db.Create(&models.Like{UserID: "reader", BookID: s.book.ID}).Error)

	// The counter never saw the row; unliking must not go negative.
	result, err := s.engagement.ToggleLike(s.ctx, "reader", s.book.ID)
	s.Require().NoError(err)
	s.False(result.Liked)
	s.Equal(int64(0), result.LikeCount)
}

func (s *EngagementServiceTestSuite) TestToggleBookmark() {
	s.createUser("reader")

	result, err := s.engagement.ToggleBookmark(s.ctx, "reader", s.book.ID)
	s.Require().NoError(err)
	s.True(result.Bookmarked)
	s.Equal(int64(1), s.count(&models.Bookmark{}, "user_id = ?", "reader"))

	result, err = s.engagement.ToggleBookmark(s.ctx, "reader", s.book.ID)
	s.Require().NoError(err)
	s.False(result.Bookmarked)
	s.Equal(int64(0), s.count(&models.Bookmark{}, "user_id = ?", "reader"))
}

func (s *EngagementServiceTestSuite) TestToggleFollow() {
	s.createUser("reader")

	result, err := s.engagement.ToggleFollow(s.ctx, "reader", "author")
	s.Require().NoError(err)
	s.True(result.Following)

	result, err = s.engagement.ToggleFollow(s.ctx, "reader", "author")
	s.Require().NoError(err)
	s.False(result.Following)

	_, err = s.engagement.ToggleFollow(s.ctx, "reader", "reader")
	s.True(errors.Is(err, ErrValidation))

	_, err = s.engagement.ToggleFollow(s.ctx, "reader", "ghost")
	s.True(errors.Is(err, ErrNotFound))
	s.Equal(int64(0), s.count(&models.Follow{}, "1 = 1"))
}

func (s *EngagementServiceTestSuite) TestCommentsKeepCounter() {
	s.createUser("reader")
	s.createUser("stranger")

	first, err := s.engagement.CreateComment(s.ctx, "reader", s.book.ID, &CreateCommentRequest{Content: "  loved it  "})
	s.Require().NoError(err)
	s.Equal("loved it", first.Content)
	s.Require().NotNil(first.User)
	s.Equal("reader", first.User.ID)

	second, err := s.engagement.CreateComment(s.ctx, "stranger", s.book.ID, &CreateCommentRequest{Content: "meh"})
	s.Require().NoError(err)
	s.Equal(int64(2), s.reloadBook(s.book.ID).CommentCount)

	// Only the writer or the book's author may delete.
	s.True(errors.Is(s.engagement.DeleteComment(s.ctx, first.ID, "stranger"), ErrForbidden))
	s.Require().NoError(s.engagement.DeleteComment(s.ctx, first.ID, "reader"))
	s.Require().NoError(s.engagement.DeleteComment(s.ctx, second.ID, "author"))
	s.Equal(int64(0), s.reloadBook(s.book.ID).CommentCount)

	s.True(errors.Is(s.engagement.DeleteComment(s.ctx, second.ID, "author"), ErrNotFound))
}

func (s *EngagementServiceTestSuite) TestCreateCommentValidation() {
	s.createUser("reader")

	_, err := s.engagement.CreateComment(s.ctx, "reader", s.book.ID, &CreateCommentRequest{Content: "   "})
	s.True(errors.Is(err, ErrValidation))

	_, err = s.engagement.CreateComment(s.ctx, "reader", s.book.ID, &CreateCommentRequest{Content: strings.Repeat("é", 21)})
	s.True(errors.Is(err, ErrValidation))

	_, err = s.engagement.CreateComment(s.ctx, "reader", uuid.New(), &CreateCommentRequest{Content: "hi"})
	s.True(errors.Is(err, ErrNotFound))

	s.Equal(int64(0), s.reloadBook(s.book.ID).CommentCount)
}

func (s *EngagementServiceTestSuite) TestGetBookCommentsNewestFirst() {
	s.createUser("reader")
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.db.Create(&models.Comment{
			UserID:    "reader",
			BookID:    s.book.ID,
			Content:   fmt.Sprintf("c%d", i),
			CreatedAt: fixtureClock.Add(timeMinutes(i)),
		}).Error)
	}

	comments, total, err := s.engagement.GetBookComments(s.ctx, s.book.ID, "", utils.PaginationParams{Limit: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(comments, 2)
	s.Equal("c2", comments[0].Content)
	s.Equal("c1", comments[1].Content)
	s.NotNil(comments[0].User)

	_, _, err = s.engagement.GetBookComments(s.ctx, uuid.New(), "", utils.PaginationParams{Limit: 2})
	s.True(errors.Is(err, ErrNotFound))
}

func (s *EngagementServiceTestSuite) TestDraftHiddenFromOtherReaders() {
	s.createUser("stranger")
	draft := s.createBook("author", func(b *models.Book) { b.IsPublished = false })

	_, err := s.engagement.ToggleLike(s.ctx, "stranger", draft.ID)
	s.True(errors.Is(err, ErrNotFound))

	_, err = s.engagement.ToggleBookmark(s.ctx, "stranger", draft.ID)
	s.True(errors.Is(err, ErrNotFound))

	_, err = s.engagement.CreateComment(s.ctx, "stranger", draft.ID, &CreateCommentRequest{Content: "first!"})
	s.True(errors.Is(err, ErrNotFound))

	_, _, err = s.engagement.GetBookComments(s.ctx, draft.ID, "stranger", utils.PaginationParams{Limit: 10})
	s.True(errors.Is(err, ErrNotFound))
	_, _, err = s.engagement.GetBookComments(s.ctx, draft.ID, "", utils.PaginationParams{Limit: 10})
	s.True(errors.Is(err, ErrNotFound))

	reloaded := s.reloadBook(draft.ID)
	s.Equal(int64(0), reloaded.LikeCount)
	s.Equal(int64(0), reloaded.CommentCount)
	s.Equal(int64(0), s.count(&models.Like{}, "book_id = ?", draft.ID))
	s.Equal(int64(0), s.count(&models.Bookmark{}, "book_id = ?", draft.ID))
	s.Equal(int64(0), s.count(&models.Comment{}, "book_id = ?", draft.ID))
}

func (s *EngagementServiceTestSuite) TestAuthorEngagesWithOwnDraft() {
	draft := s.createBook("author", func(b *models.Book) { b.IsPublished = false })

	result, err := s.engagement.ToggleLike(s.ctx, "author", draft.ID)
	s.Require().NoError(err)
	s.True(result.Liked)

	_, err = s.engagement.CreateComment(s.ctx, "author", draft.ID, &CreateCommentRequest{Content: "note to self"})
	s.Require().NoError(err)

	comments, total, err := s.engagement.GetBookComments(s.ctx, draft.ID, "author", utils.PaginationParams{Limit: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(comments, 1)
	s.Equal("note to self", comments[0].Content)
}

func TestEngagementServiceSuite(t *testing.T) {
	suite.Run(t, new(EngagementServiceTestSuite))
}
