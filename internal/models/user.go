// internal/models/user.go
package models

import (
	"time"
)

// User is keyed by the identity provider's subject, so the ID is not a UUID.
type User struct {
	ID               string    `json:"id" gorm:"primaryKey;size:255"`
	Email            *string   `json:"email" gorm:"uniqueIndex;size:255"`
	FirstName        string    `json:"first_name" gorm:"size:255"`
	LastName         string    `json:"last_name" gorm:"size:255"`
	ProfileImageURL  string    `json:"profile_image_url" gorm:"size:1024"`
	StripeCustomerID string    `json:"-" gorm:"size:255"`
	Bio              string    `json:"bio" gorm:"type:text"`
	IsCreator        bool      `json:"is_creator" gorm:"default:false"`
	TotalEarnings    float64   `json:"total_earnings" gorm:"type:decimal(10,2);default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DisplayName joins the name claims, falling back to the email address.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" && u.Email != nil {
		return *u.Email
	}
	return name
}
