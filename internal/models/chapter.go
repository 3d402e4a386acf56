// internal/models/chapter.go
package models

import (
	"github.com/google/uuid"
)

type Chapter struct {
	BaseModel
	BookID     uuid.UUID `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:idx_chapters_book_order,priority:1"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	OrderIndex int       `json:"order_index" gorm:"not null;uniqueIndex:idx_chapters_book_order,priority:2"`
	WordCount  int       `json:"word_count" gorm:"default:0"`

	// Locked is set on read when the caller may not see the content.
	Locked bool `json:"locked,omitempty" gorm:"-"`

	Media []Media `json:"media,omitempty" gorm:"foreignKey:ChapterID"`
}

type Media struct {
	BaseModel
	ChapterID *uuid.UUID `json:"chapter_id" gorm:"type:uuid;index"`
	BookID    *uuid.UUID `json:"book_id" gorm:"type:uuid;index"`
	URL       string     `json:"url" gorm:"size:1024;not null"`
	Type      MediaType  `json:"type" gorm:"type:varchar(16);not null"`
	FileName  string     `json:"file_name" gorm:"size:255"`
	FileSize  int64      `json:"file_size"`
	MimeType  string     `json:"mime_type" gorm:"size:127"`
	AltText   string     `json:"alt_text" gorm:"type:text"`
}

func (Media) TableName() string { return "media" }
