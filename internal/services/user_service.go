// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,max=255"`
	LastName        *string `json:"last_name" validate:"omitempty,max=255"`
	Bio             *string `json:"bio" validate:"omitempty,max=2000"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url,max=1024"`
	IsCreator       *bool   `json:"is_creator"`
}

type UserStats struct {
	BooksCount     int64  `json:"books_count"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	TotalEarnings  string `json:"total_earnings"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// UpsertUser creates the user on first sight and refreshes the profile
// claims on every later sign-in. Local edits to bio and creator flag stay.
func (s *UserService) UpsertUser(ctx context.Context, identity *Identity) (*models.User, error) {
	if identity.Subject == "" {
		return nil, invalidField("id", "required", "identity subject is required")
	}

	user := &models.User{
		ID:              identity.Subject,
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		ProfileImageURL: identity.PictureURL,
	}
	if identity.Email != "" {
		email := identity.Email
		user.Email = &email
	}

	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, fmt.Errorf("email already linked to another account: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return s.GetUser(ctx, identity.Subject)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.ProfileImageURL != nil {
		updates["profile_image_url"] = *req.ProfileImageURL
	}
	if req.IsCreator != nil {
		updates["is_creator"] = *req.IsCreator
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUser(ctx, id)
}

// GetUserStats counts published books and follow edges on demand.
func (s *UserService) GetUserStats(ctx context.Context, id string) (*UserStats, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	stats := &UserStats{TotalEarnings: fmt.Sprintf("%.2f", user.TotalEarnings)}

	if err := db.Model(&models.Book{}).
		Where("author_id = ? AND is_published = ?", id, true).
		Count(&stats.BooksCount).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&models.Follow{}).
		Where("following_id = ?", id).
		Count(&stats.FollowersCount).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&models.Follow{}).
		Where("follower_id = ?", id).
		Count(&stats.FollowingCount).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return stats, nil
}

func (s *UserService) UpdateStripeInfo(ctx context.Context, id, customerID string) (*models.User, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stripe_customer_id": customerID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update stripe info: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, notFound("user")
	}
	return s.GetUser(ctx, id)
}
