package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/unfit20/unfit20/internal/models"
)

// postsKey is the hash holding the cached feed, one field per post id.
const postsKey = "posts"

// CachedPost is the flattened cache row for a post. Comments are never
// cached and viewer-specific liked state is never stored, so a cache-sourced
// read always reports empty comments and an unliked post.
type CachedPost struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserAvatar    *string   `json:"user_avatar"`
	Content       string    `json:"content"`
	ImageURL      *string   `json:"image_url"`
	Location      *string   `json:"location"`
	LikesCount    int64     `json:"likes_count"`
	CommentsCount int64     `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToCached flattens a post into its cache row
func ToCached(post *models.Post) CachedPost {
	return CachedPost{
		ID:            post.ID,
		UserID:        post.UserID,
		UserName:      post.UserName,
		UserAvatar:    post.UserAvatar,
		Content:       post.Content,
		ImageURL:      post.ImageURL,
		Location:      post.Location,
		LikesCount:    post.LikesCount,
		CommentsCount: post.CommentsCount,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
}

// FromCached expands a cache row back into a post
func FromCached(row CachedPost) *models.Post {
	return &models.Post{
		ID:            row.ID,
		UserID:        row.UserID,
		UserName:      row.UserName,
		UserAvatar:    row.UserAvatar,
		Content:       row.Content,
		ImageURL:      row.ImageURL,
		Location:      row.Location,
		LikesCount:    row.LikesCount,
		CommentsCount: row.CommentsCount,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Comments:      []models.Comment{},
	}
}

// PostCache is the local read replica of the posts collection
type PostCache struct {
	cache *Cache
}

// NewPostCache creates a new post cache
func NewPostCache(cache *Cache) *PostCache {
	return &PostCache{cache: cache}
}

// SavePosts upserts the given posts by id. Existing rows for other posts are
// left in place; the cache is never cleared wholesale.
func (p *PostCache) SavePosts(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(posts))
	for _, post := range posts {
		data, err := json.Marshal(ToCached(post))
		if err != nil {
			return err
		}
		values[post.ID] = data
	}
	return p.cache.HSet(ctx, postsKey, values)
}

// SavePost upserts a single post
func (p *PostCache) SavePost(ctx context.Context, post *models.Post) error {
	return p.SavePosts(ctx, []*models.Post{post})
}

// GetPost retrieves a single cached post; absent rows return (nil, nil)
func (p *PostCache) GetPost(ctx context.Context, id string) (*models.Post, error) {
	data, err := p.cache.HGet(ctx, postsKey, id)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	var row CachedPost
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, err
	}
	return FromCached(row), nil
}

// GetAll retrieves all cached posts, newest first
func (p *PostCache) GetAll(ctx context.Context) ([]*models.Post, error) {
	rows, err := p.cache.HGetAll(ctx, postsKey)
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(rows))
	for _, data := range rows {
		var row CachedPost
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			// Skip malformed rows rather than failing the whole read
			continue
		}
		posts = append(posts, FromCached(row))
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// Delete removes a post's cache row
func (p *PostCache) Delete(ctx context.Context, id string) error {
	return p.cache.HDel(ctx, postsKey, id)
}
