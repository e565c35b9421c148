package models

import (
	"time"
)

// Comment represents a comment on a post. Comments are append-only.
type Comment struct {
	ID         string  `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
	PostID     string  `gorm:"type:varchar(36);not null;index:comments_post_idx;column:post_id" json:"post_id"`
	UserID     string  `gorm:"type:varchar(36);not null;column:user_id" json:"user_id"`
	UserName   string  `gorm:"type:varchar(64);not null;column:user_name" json:"user_name"`
	UserAvatar *string `gorm:"type:varchar(1024);column:user_avatar" json:"user_avatar,omitempty"`

	Content   string    `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
