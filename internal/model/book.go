package model

import (
	"time"

	"gorm.io/gorm"
)

// Book is a catalog entry owned by the identity that created it.
type Book struct {
	ID          string    `json:"_id" gorm:"type:char(24);primaryKey"`
	AuthorID    string    `json:"authorId" gorm:"type:char(24);not null;index"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Synopsis    string    `json:"synopsis,omitempty" gorm:"type:text"`
	ReleaseYear int       `json:"releaseYear" gorm:"not null"`
	Genre       string    `json:"genre,omitempty" gorm:"size:100"`
	CoverImage  string    `json:"coverImage" gorm:"size:1024;not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// BeforeCreate assigns an object id before inserting the record.
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

// OwnedBy reports whether the book belongs to the given identity.
func (b *Book) OwnedBy(userID string) bool {
	return b != nil && userID != "" && b.AuthorID == userID
}
