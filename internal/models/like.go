package models

import (
	"time"
)

// Like records that a user liked a post. The (post_id, user_id) composite key
// makes creation naturally idempotent; existence of a row is the sole source
// of truth for liked state, while posts.likes_count is a derived counter.
type Like struct {
	PostID    string    `gorm:"type:varchar(36);primaryKey;column:post_id" json:"post_id"`
	UserID    string    `gorm:"type:varchar(36);primaryKey;index:likes_user_idx;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}
