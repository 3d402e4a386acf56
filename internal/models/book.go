// internal/models/book.go
package models

import (
	"fmt"
	"math"

	"gorm.io/gorm"
)

type Book struct {
	BaseModel
	Title         string         `json:"title" gorm:"size:255;not null"`
	Description   string         `json:"description" gorm:"type:text"`
	AuthorID      string         `json:"author_id" gorm:"size:255;not null;index"`
	Genre         Genre          `json:"genre" gorm:"type:varchar(32);not null;index"`
	CoverImageURL string         `json:"cover_image_url" gorm:"size:1024"`
	Price         float64        `json:"price" gorm:"type:decimal(8,2);default:0"`
	IsMature      bool           `json:"is_mature" gorm:"default:false"`
	IsPublished   bool           `json:"is_published" gorm:"default:false;index"`
	HasVideo      bool           `json:"has_video" gorm:"default:false"`
	HasAudio      bool           `json:"has_audio" gorm:"default:false"`
	HasImages     bool           `json:"has_images" gorm:"default:false"`
	ReadTime      *int           `json:"read_time"`
	ViewCount     int64          `json:"view_count" gorm:"default:0"`
	LikeCount     int64          `json:"like_count" gorm:"default:0"`
	CommentCount  int64          `json:"comment_count" gorm:"default:0"`
	Rating        float64        `json:"rating" gorm:"type:decimal(3,2);default:0"`
	RatingCount   int64          `json:"rating_count" gorm:"default:0"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Author   *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Chapters []Chapter `json:"chapters,omitempty" gorm:"foreignKey:BookID"`
	Media    []Media   `json:"media,omitempty" gorm:"foreignKey:BookID"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:BookID"`
}

// IsFree reports whether the book costs nothing.
func (b *Book) IsFree() bool {
	return b.PriceCents() == 0
}

// PriceCents is the price in minor currency units.
func (b *Book) PriceCents() int64 {
	return int64(math.Round(b.Price * 100))
}

// PriceString renders the price the way it was entered, e.g. "4.99".
func (b *Book) PriceString() string {
	return fmt.Sprintf("%.2f", b.Price)
}
