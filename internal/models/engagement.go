// internal/models/engagement.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Junction rows are hard-deleted on toggle, so they carry no soft-delete
// marker and the pair index stays unique.

type Like struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"size:255;not null;uniqueIndex:idx_likes_user_book,priority:1"`
	BookID    uuid.UUID `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_book,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
}

type Bookmark struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"size:255;not null;uniqueIndex:idx_bookmarks_user_book,priority:1"`
	BookID    uuid.UUID `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_book,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`

	Book *Book `json:"book,omitempty" gorm:"foreignKey:BookID"`
}

type Follow struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FollowerID  string    `json:"follower_id" gorm:"size:255;not null;uniqueIndex:idx_follows_pair,priority:1"`
	FollowingID string    `json:"following_id" gorm:"size:255;not null;uniqueIndex:idx_follows_pair,priority:2;index"`
	CreatedAt   time.Time `json:"created_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"size:255;not null;index"`
	BookID    uuid.UUID `json:"book_id" gorm:"type:uuid;not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// BookView backs the view de-duplication window: one row per viewer, book
// and time bucket.
type BookView struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ViewerKey string    `json:"viewer_key" gorm:"size:255;not null;uniqueIndex:idx_book_views_bucket,priority:1"`
	BookID    uuid.UUID `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:idx_book_views_bucket,priority:2;index"`
	Bucket    int64     `json:"bucket" gorm:"not null;uniqueIndex:idx_book_views_bucket,priority:3"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error     { return assignID(&l.ID) }
func (b *Bookmark) BeforeCreate(tx *gorm.DB) error { return assignID(&b.ID) }
func (f *Follow) BeforeCreate(tx *gorm.DB) error   { return assignID(&f.ID) }
func (c *Comment) BeforeCreate(tx *gorm.DB) error  { return assignID(&c.ID) }
func (v *BookView) BeforeCreate(tx *gorm.DB) error { return assignID(&v.ID) }

func assignID(id *uuid.UUID) error {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	return nil
}
