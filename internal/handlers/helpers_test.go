package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/middleware"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type HandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	gateway  *fakeGateway
	verifier *fakeVerifier
}

func (suite *HandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize())
}

func (suite *HandlerTestSuite) SetupTest() {
	db, err := database.Initialize(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(suite.T().TempDir(), "handlers.db"),
		LogLevel:   "silent",
	})
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(db))
	suite.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "handler-secret", AccessTokenTTL: 1, RefreshTokenTTL: 2},
		Identity:    config.IdentityConfig{DemoLoginEnable: true},
		Payment:     config.PaymentConfig{Currency: "usd", PaymentMethodTypes: []string{"card"}},
		Catalog: config.CatalogConfig{
			DefaultPageSize:  20,
			MaxPageSize:      100,
			TrendingLimit:    6,
			ViewDedupWindow:  30 * time.Minute,
			MaxCommentLength: 500,
		},
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	suite.gateway = &fakeGateway{intents: make(map[string]*services.Intent)}
	suite.verifier = &fakeVerifier{identities: map[string]*services.Identity{
		"good-token": {Subject: "google-1", Email: "g1@example.com", FirstName: "Grace"},
	}}
	storage, err := services.NewStorageService(config.AWSConfig{}, "http://localhost:8080")
	suite.Require().NoError(err)

	purchases := services.NewPurchaseService(db)
	users := services.NewUserService(db)
	catalog := services.NewCatalogService(db, cfg.Catalog, purchases)
	authoring := services.NewAuthoringService(db, storage)
	engagement := services.NewEngagementService(db, cfg.Catalog.MaxCommentLength)
	payments := services.NewPaymentService(db, cfg.Payment, suite.gateway, purchases, nil)

	authHandler := NewAuthHandler(services.NewAuthService(users, suite.verifier, cfg), users)
	bookHandler := NewBookHandler(catalog, authoring, cfg.Catalog)
	chapterHandler := NewChapterHandler(catalog, authoring)
	mediaHandler := NewMediaHandler(authoring, storage)
	engagementHandler := NewEngagementHandler(engagement, cfg.Catalog)
	userHandler := NewUserHandler(users, catalog, cfg.Catalog)
	paymentHandler := NewPaymentHandler(payments)

	r := gin.New()
	r.Use(middleware.I18nMiddleware())
	v1 := r.Group("/v1")
	authed := middleware.AuthRequired()
	optional := middleware.OptionalAuth()

	v1.GET("/genres", bookHandler.GetGenres)
	v1.POST("/auth/google", authHandler.GoogleLogin)
	v1.POST("/auth/demo", authHandler.DemoLogin)
	v1.POST("/auth/refresh", authHandler.RefreshToken)
	v1.GET("/auth/me", authed, authHandler.Me)

	v1.GET("/books", optional, bookHandler.GetBooks)
	v1.GET("/books/trending", bookHandler.GetTrendingBooks)
	v1.GET("/books/:id", optional, bookHandler.GetBook)
	v1.POST("/books", authed, bookHandler.CreateBook)
	v1.PUT("/books/:id", authed, bookHandler.UpdateBook)
	v1.DELETE("/books/:id", authed, bookHandler.DeleteBook)
	v1.GET("/books/:id/chapters", optional, chapterHandler.GetChapters)
	v1.POST("/books/:id/chapters", authed, chapterHandler.CreateChapter)
	v1.PUT("/chapters/:id", authed, chapterHandler.UpdateChapter)
	v1.DELETE("/chapters/:id", authed, chapterHandler.DeleteChapter)
	v1.POST("/books/:id/media", authed, mediaHandler.CreateMedia)
	v1.DELETE("/media/:id", authed, mediaHandler.DeleteMedia)
	v1.POST("/media/presign", authed, mediaHandler.PresignUpload)
	v1.POST("/books/:id/like", authed, engagementHandler.ToggleLike)
	v1.POST("/books/:id/bookmark", authed, engagementHandler.ToggleBookmark)
	v1.GET("/books/:id/comments", optional, engagementHandler.GetComments)
	v1.POST("/books/:id/comments", authed, engagementHandler.CreateComment)
	v1.DELETE("/comments/:id", authed, engagementHandler.DeleteComment)
	v1.GET("/users/:id", userHandler.GetUser)
	v1.GET("/users/:id/stats", userHandler.GetUserStats)
	v1.GET("/users/:id/books", optional, userHandler.GetUserBooks)
	v1.PUT("/users/profile", authed, userHandler.UpdateProfile)
	v1.GET("/users/:id/bookmarks", authed, userHandler.GetUserBookmarks)
	v1.GET("/users/:id/purchases", authed, userHandler.GetUserPurchases)
	v1.POST("/users/:id/follow", authed, engagementHandler.ToggleFollow)
	v1.POST("/payments/intent", authed, paymentHandler.CreatePaymentIntent)
	v1.POST("/payments/purchase", authed, paymentHandler.ConfirmPurchase)
	v1.POST("/payments/webhook", paymentHandler.Webhook)

	suite.router = r
}

func (suite *HandlerTestSuite) TearDownTest() {
	database.Close(suite.db)
}

func (suite *HandlerTestSuite) createUser(id string) {
	email := id + "@example.com"
	suite.Require().NoError(suite.db.Create(&models.User{ID: id, Email: &email, FirstName: id}).Error)
}

// request sends a JSON request, signed as userID when it is not empty.
func (suite *HandlerTestSuite) request(method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := utils.GenerateJWT(userID, userID+"@example.com", false, 1)
		suite.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Error   *utils.APIError        `json:"error"`
	Meta    map[string]interface{} `json:"meta"`
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		suite.Require().NoError(json.Unmarshal(env.Data, data))
	}
	return env
}

func (suite *HandlerTestSuite) createBook(authorID string, body map[string]interface{}) string {
	payload := map[string]interface{}{"title": "Dune", "genre": "sci-fi", "is_published": true}
	for k, v := range body {
		payload[k] = v
	}

	w := suite.request(http.MethodPost, "/v1/books", payload, authorID)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Book models.Book `json:"book"`
	}
	suite.decode(w, &data)
	return data.Book.ID.String()
}

type fakeGateway struct {
	intents   map[string]*services.Intent
	createErr error
	event     *services.WebhookEvent
	parseErr  error
}

func (g *fakeGateway) CreateIntent(ctx context.Context, p services.IntentParams) (*services.Intent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	id := fmt.Sprintf("pi_%d", len(g.intents)+1)
	intent := &services.Intent{
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

func (g *fakeGateway) GetIntent(ctx context.Context, id string) (*services.Intent, error) {
	intent, ok := g.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return intent, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*services.WebhookEvent, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

type fakeVerifier struct {
	identities map[string]*services.Identity
}

func (v *fakeVerifier) Verify(ctx context.Context, token string) (*services.Identity, error) {
	if identity, ok := v.identities[token]; ok {
		return identity, nil
	}
	return nil, errors.New("token rejected")
}
