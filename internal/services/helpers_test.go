package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/models"
)

// serviceSuite gives every test a fresh migrated SQLite database.
type serviceSuite struct {
	suite.Suite
	db  *gorm.DB
	ctx context.Context
	cfg *config.Config
}

func (s *serviceSuite) SetupTest() {
	db, err := database.Initialize(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(s.T().TempDir(), "test.db"),
		LogLevel:   "silent",
	})
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))

	s.db = db
	s.ctx = context.Background()
	s.cfg = &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 2,
		},
		Identity: config.IdentityConfig{DemoLoginEnable: true},
		Payment: config.PaymentConfig{
			Currency:           "usd",
			PaymentMethodTypes: []string{"card", "cashapp"},
		},
		Catalog: config.CatalogConfig{
			DefaultPageSize:  20,
			MaxPageSize:      100,
			TrendingLimit:    6,
			ViewDedupWindow:  30 * time.Minute,
			MaxCommentLength: 5000,
		},
	}
}

func (s *serviceSuite) TearDownTest() {
	if s.db != nil {
		database.Close(s.db)
	}
}

func (s *serviceSuite) createUser(id string) *models.User {
	email := id + "@example.com"
	user := &models.User{ID: id, Email: &email, FirstName: id}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

var fixtureClock = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// createBook inserts a published fantasy book. Each call is one minute
// newer than the previous one so ordering by creation time is stable.
func (s *serviceSuite) createBook(authorID string, mutate func(*models.Book)) *models.Book {
	fixtureClock = fixtureClock.Add(time.Minute)
	book := &models.Book{
		Title:       "Book",
		AuthorID:    authorID,
		Genre:       models.GenreFantasy,
		IsPublished: true,
	}
	book.CreatedAt = fixtureClock
	if mutate != nil {
		mutate(book)
	}
	s.Require().NoError(s.db.Create(book).Error)
	return book
}

func (s *serviceSuite) reloadBook(id interface{}) *models.Book {
	var book models.Book
	s.Require().NoError(s.db.Unscoped().First(&book, "id = ?", id).Error)
	return &book
}

func (s *serviceSuite) count(model interface{}, query string, args ...interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

// fakeGateway stands in for the payment processor.
type fakeGateway struct {
	intents   map[string]*Intent
	created   []IntentParams
	createErr error
	getErr    error
	event     *WebhookEvent
	parseErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*Intent)}
}

func (g *fakeGateway) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, p)
	id := fmt.Sprintf("pi_%d", len(g.created))
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
		Metadata:     p.Metadata,
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *fakeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	intent, ok := g.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return intent, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

// fakeVerifier accepts any token listed in identities.
type fakeVerifier struct {
	identities map[string]*Identity
}

func (v *fakeVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if identity, ok := v.identities[token]; ok {
		return identity, nil
	}
	return nil, errors.New("token rejected")
}

func timeMinutes(n int) time.Duration { return time.Duration(n) * time.Minute }
