package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User is an account managed through the admin endpoints. Deletion is a hard
// delete: a removed user leaves no tombstone row.
type User struct {
	ID        uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string                      `gorm:"size:255;not null;uniqueIndex:idx_users_username" json:"username"`
	Password  string                      `gorm:"not null" json:"-"`
	Roles     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"roles"`
	Active    bool                        `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}
