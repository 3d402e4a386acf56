// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key in Go so the schema does not depend on
// a database-side UUID generator.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type Genre string

const (
	GenreFantasy    Genre = "fantasy"
	GenreSciFi      Genre = "sci-fi"
	GenreRomance    Genre = "romance"
	GenreHorror     Genre = "horror"
	GenreThriller   Genre = "thriller"
	GenreMystery    Genre = "mystery"
	GenreAdventure  Genre = "adventure"
	GenreDrama      Genre = "drama"
	GenreComedy     Genre = "comedy"
	GenreNonFiction Genre = "non-fiction"
	GenreBiography  Genre = "biography"
	GenreSelfHelp   Genre = "self-help"
	GenreBusiness   Genre = "business"
	GenreHistory    Genre = "history"
	GenreScience    Genre = "science"
	GenreOther      Genre = "other"
)

// Genres lists the closed genre enumeration in display order.
var Genres = []Genre{
	GenreFantasy, GenreSciFi, GenreRomance, GenreHorror,
	GenreThriller, GenreMystery, GenreAdventure, GenreDrama,
	GenreComedy, GenreNonFiction, GenreBiography, GenreSelfHelp,
	GenreBusiness, GenreHistory, GenreScience, GenreOther,
}

func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio:
		return true
	}
	return false
}

type SortBy string

const (
	SortLatest  SortBy = "latest"
	SortPopular SortBy = "popular"
	SortRating  SortBy = "rating"
)
