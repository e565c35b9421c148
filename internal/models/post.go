package models

import (
	"time"
)

// Post represents a user post. The author fields are a denormalized snapshot
// taken at creation time, not a live join against users.
type Post struct {
	ID         string  `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
	UserID     string  `gorm:"type:varchar(36);not null;index:posts_user_idx;column:user_id" json:"user_id"`
	UserName   string  `gorm:"type:varchar(64);not null;column:user_name" json:"user_name"`
	UserAvatar *string `gorm:"type:varchar(1024);column:user_avatar" json:"user_avatar,omitempty"`

	Content  string  `gorm:"type:text;not null;column:content" json:"content"`
	ImageURL *string `gorm:"type:varchar(1024);column:image_url" json:"image_url,omitempty"`
	Location *string `gorm:"type:varchar(255);column:location" json:"location,omitempty"`

	// Derived counters, maintained atomically alongside like/comment writes.
	LikesCount    int64 `gorm:"not null;default:0;column:likes_count" json:"likes_count"`
	CommentsCount int64 `gorm:"not null;default:0;column:comments_count" json:"comments_count"`

	CreatedAt time.Time `gorm:"not null;index:posts_created_idx;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`

	// Viewer-specific state, recomputed on every read; never persisted.
	IsLikedByViewer bool `gorm:"-" json:"is_liked_by_viewer"`

	// Populated on detail fetches only; empty on cache-sourced reads.
	Comments []Comment `gorm:"-" json:"comments"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}
