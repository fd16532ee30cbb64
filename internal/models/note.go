package models

import (
	"time"

	"github.com/google/uuid"
)

// Note belongs to exactly one user. A user with notes cannot be deleted.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Ticket    uint      `gorm:"autoIncrement;uniqueIndex:idx_notes_ticket" json:"ticket"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
