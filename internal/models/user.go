package models

import (
	"time"
)

// User represents an account. The id doubles as the identity provider's
// subject id carried in access tokens.
type User struct {
	ID           string  `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
	Name         string  `gorm:"type:varchar(64);not null;column:name" json:"name"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex:users_email_ux;column:email" json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null;column:password_hash" json:"-"`
	AvatarURL    *string `gorm:"type:varchar(1024);column:avatar_url" json:"avatar_url,omitempty"`
	Bio          *string `gorm:"type:varchar(500);column:bio" json:"bio,omitempty"`

	// Social stats, maintained the same transactional-counter way as likes.
	FollowersCount int64 `gorm:"not null;default:0;column:followers_count" json:"followers_count"`
	FollowingCount int64 `gorm:"not null;default:0;column:following_count" json:"following_count"`

	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`

	// Per-viewer state, computed at read time and never persisted.
	IsFollowedByViewer bool `gorm:"-" json:"is_followed_by_viewer"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
