// internal/models/purchase.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purchase is immutable; its existence grants access to a priced book.
type Purchase struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID                string    `json:"user_id" gorm:"size:255;not null;uniqueIndex:idx_purchases_user_book,priority:1"`
	BookID                uuid.UUID `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:idx_purchases_user_book,priority:2;index"`
	Amount                float64   `json:"amount" gorm:"type:decimal(8,2);not null"`
	StripePaymentIntentID *string   `json:"stripe_payment_intent_id" gorm:"size:255;uniqueIndex"`
	CreatedAt             time.Time `json:"created_at"`

	Book *Book `json:"book,omitempty" gorm:"foreignKey:BookID"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error { return assignID(&p.ID) }
