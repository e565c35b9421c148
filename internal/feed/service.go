package feed

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/models"
	"github.com/unfit20/unfit20/internal/storage"
	"github.com/unfit20/unfit20/pkg/logging"
	"github.com/unfit20/unfit20/pkg/telemetry"
)

// PostStore is the posts collection of the canonical document store
type PostStore interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListNewestFirst(ctx context.Context) ([]*models.Post, error)
	ListPage(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, userID string) ([]*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	AddLikesCount(ctx context.Context, id string, delta int64) error
	AddCommentsCount(ctx context.Context, id string, delta int64) error
}

// CommentStore is the comments collection
type CommentStore interface {
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	DeleteByPost(ctx context.Context, postID string) error
}

// LikeStore is the likes collection
type LikeStore interface {
	Exists(ctx context.Context, postID, userID string) (bool, error)
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, postID, userID string) error
	DeleteByPost(ctx context.Context, postID string) error
	ListPostIDsByUser(ctx context.Context, userID string) ([]string, error)
}

// UserStore resolves author snapshots
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// PostCache is the local read replica consulted when the canonical store
// is unreachable
type PostCache interface {
	SavePosts(ctx context.Context, posts []*models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetAll(ctx context.Context) ([]*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// ObjectStore holds uploaded images
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// ImageUpload carries an image to be stored alongside a post
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Service reconciles the canonical store with the local cache and folds
// per-viewer state onto shared post records. Mutations deliberately report
// plain success booleans; a failed call is retried only by the caller.
type Service struct {
	posts    PostStore
	comments CommentStore
	likes    LikeStore
	users    UserStore
	cache    PostCache
	objects  ObjectStore
	logger   *zap.Logger
}

// NewService creates a new feed service
func NewService(posts PostStore, comments CommentStore, likes LikeStore, users UserStore, cache PostCache, objects ObjectStore) *Service {
	return &Service{
		posts:    posts,
		comments: comments,
		likes:    likes,
		users:    users,
		cache:    cache,
		objects:  objects,
		logger:   logging.WithComponent("feed-service"),
	}
}

// FetchFeed returns all posts newest first, enriched for the viewer. On
// success the fetched set is upserted into the local cache; on failure the
// cache is served instead, and only when the cache is empty too does the
// original error surface.
func (s *Service) FetchFeed(ctx context.Context, viewerID string) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.fetch_feed")
	defer span.End()

	posts, err := s.posts.ListNewestFirst(ctx)
	if err != nil {
		s.logger.Warn("Feed fetch failed, falling back to cache", zap.Error(err))
		cached, cerr := s.cache.GetAll(ctx)
		if cerr != nil || len(cached) == 0 {
			return nil, err
		}
		return cached, nil
	}

	posts = s.enrichAll(ctx, posts, viewerID)

	if cerr := s.cache.SavePosts(ctx, posts); cerr != nil {
		// Cache refresh is opportunistic; a failed write never fails the read.
		s.logger.Debug("Cache refresh failed", zap.Error(cerr))
	}

	return posts, nil
}

// FetchFeedPage returns one page of the enriched feed. No cache interaction;
// a failed page fetch yields an empty page.
func (s *Service) FetchFeedPage(ctx context.Context, viewerID string, page, pageSize int) []*models.Post {
	ctx, span := telemetry.StartSpan(ctx, "feed.fetch_feed_page")
	defer span.End()

	if page < 0 || pageSize <= 0 {
		return []*models.Post{}
	}

	posts, err := s.posts.ListPage(ctx, pageSize, page*pageSize)
	if err != nil {
		s.logger.Warn("Feed page fetch failed", zap.Int("page", page), zap.Error(err))
		return []*models.Post{}
	}
	return s.enrichAll(ctx, posts, viewerID)
}

// FetchUserFeed returns one author's posts newest first. Failures yield an
// empty slice with no cache fallback.
func (s *Service) FetchUserFeed(ctx context.Context, viewerID, authorID string) []*models.Post {
	ctx, span := telemetry.StartSpan(ctx, "feed.fetch_user_feed")
	defer span.End()

	posts, err := s.posts.ListByAuthor(ctx, authorID)
	if err != nil {
		s.logger.Warn("User feed fetch failed", zap.String("author_id", authorID), zap.Error(err))
		return []*models.Post{}
	}
	return s.enrichAll(ctx, posts, viewerID)
}

// FetchPost returns one enriched post, falling back to a single-row cache
// lookup on failure. Absent posts return (nil, nil).
func (s *Service) FetchPost(ctx context.Context, viewerID, postID string) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.fetch_post")
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		s.logger.Warn("Post fetch failed, falling back to cache", zap.String("post_id", postID), zap.Error(err))
		cached, cerr := s.cache.GetPost(ctx, postID)
		if cerr != nil {
			return nil, nil
		}
		return cached, nil
	}
	if post == nil {
		return nil, nil
	}

	if err := s.enrich(ctx, post, viewerID); err != nil {
		s.logger.Warn("Post enrichment failed, falling back to cache", zap.String("post_id", postID), zap.Error(err))
		cached, cerr := s.cache.GetPost(ctx, postID)
		if cerr != nil {
			return nil, nil
		}
		return cached, nil
	}

	return post, nil
}

// FetchLikedPosts returns the posts a user has liked, newest first. The
// underlying fetch is per-id, so ordering is imposed client-side. Failures
// yield an empty slice.
func (s *Service) FetchLikedPosts(ctx context.Context, userID string) []*models.Post {
	ctx, span := telemetry.StartSpan(ctx, "feed.fetch_liked_posts")
	defer span.End()

	ids, err := s.likes.ListPostIDsByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Liked posts lookup failed", zap.String("user_id", userID), zap.Error(err))
		return []*models.Post{}
	}

	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		post, err := s.posts.GetByID(ctx, id)
		if err != nil || post == nil {
			// Stale like records referencing deleted posts are skipped.
			continue
		}
		comments, err := s.comments.ListByPost(ctx, id)
		if err != nil {
			continue
		}
		post.Comments = comments
		// Liked by construction: these posts were resolved from the
		// viewer's own like records.
		post.IsLikedByViewer = true
		posts = append(posts, post)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

// CreatePost writes a new post authored by userID. The author snapshot is
// resolved first and an optional image is fully uploaded before the document
// write; any failure before that write is a no-op.
func (s *Service) CreatePost(ctx context.Context, userID, content string, image *ImageUpload, location *string) bool {
	ctx, span := telemetry.StartSpan(ctx, "feed.create_post")
	defer span.End()

	if userID == "" {
		return false
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		s.logger.Warn("Author lookup failed on create", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	var imageURL *string
	if image != nil {
		url, err := s.objects.Put(ctx, storage.PostImageKey(), image.Reader, image.Size, image.ContentType)
		if err != nil {
			s.logger.Warn("Image upload failed", zap.Error(err))
			return false
		}
		imageURL = &url
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		UserName:   user.Name,
		UserAvatar: user.AvatarURL,
		Content:    content,
		ImageURL:   imageURL,
		Location:   location,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Warn("Post create failed", zap.Error(err))
		return false
	}

	s.logger.Info("Post created", zap.String("post_id", post.ID), zap.String("user_id", userID))
	return true
}

// UpdatePost rewrites content, image and location of a post owned by userID
func (s *Service) UpdatePost(ctx context.Context, userID, postID, content string, image *ImageUpload, location *string) bool {
	ctx, span := telemetry.StartSpan(ctx, "feed.update_post")
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil || post == nil {
		return false
	}
	if post.UserID != userID {
		s.logger.Warn("Rejected update of foreign post",
			zap.String("post_id", postID), zap.String("user_id", userID))
		return false
	}

	if image != nil {
		url, err := s.objects.Put(ctx, storage.PostImageKey(), image.Reader, image.Size, image.ContentType)
		if err != nil {
			s.logger.Warn("Image upload failed", zap.Error(err))
			return false
		}
		post.ImageURL = &url
	}

	post.Content = content
	post.Location = location
	post.UpdatedAt = time.Now().UTC()

	if err := s.posts.Update(ctx, post); err != nil {
		s.logger.Warn("Post update failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}
	return true
}

// DeletePost removes a post owned by userID along with its comments, likes,
// stored image and cache row. The cascade is best-effort: each step is
// attempted independently and a failing step does not block the others.
func (s *Service) DeletePost(ctx context.Context, userID, postID string) bool {
	ctx, span := telemetry.StartSpan(ctx, "feed.delete_post")
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil || post == nil {
		return false
	}
	if post.UserID != userID {
		s.logger.Warn("Rejected delete of foreign post",
			zap.String("post_id", postID), zap.String("user_id", userID))
		return false
	}

	ok := true
	if err := s.posts.Delete(ctx, postID); err != nil {
		s.logger.Warn("Post delete failed", zap.String("post_id", postID), zap.Error(err))
		ok = false
	}
	if err := s.comments.DeleteByPost(ctx, postID); err != nil {
		s.logger.Warn("Comment cascade failed", zap.String("post_id", postID), zap.Error(err))
	}
	if err := s.likes.DeleteByPost(ctx, postID); err != nil {
		s.logger.Warn("Like cascade failed", zap.String("post_id", postID), zap.Error(err))
	}
	if post.ImageURL != nil {
		if key := storage.KeyFromURL(*post.ImageURL); key != "" {
			if err := s.objects.Remove(ctx, key); err != nil {
				s.logger.Warn("Image cascade failed", zap.String("post_id", postID), zap.Error(err))
			}
		}
	}
	if err := s.cache.Delete(ctx, postID); err != nil {
		s.logger.Debug("Cache row delete failed", zap.String("post_id", postID), zap.Error(err))
	}

	return ok
}

// LikePost records a like. Liking an already-liked post is a successful
// no-op; a genuine state change bumps the post's like counter atomically.
func (s *Service) LikePost(ctx context.Context, userID, postID string) bool {
	ctx, span := telemetry.StartSpan(ctx, "feed.like_post")
	defer span.End()

	if userID == "" {
		return false
	}

	liked, err := s.likes.Exists(ctx, postID, userID)
	if err != nil {
		s.logger.Warn("Like lookup failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}
	if liked {
		return true
	}

	like := &models.Like{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
	if err := s.likes.Create(ctx, like); err != nil {
		// A concurrent like from another device trips the composite primary
		// key; that race still counts as liked.
		if again, lerr := s.likes.Exists(ctx, postID, userID); lerr == nil && again {
			return true
		}
		s.logger.Warn("Like create failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}

	if err := s.posts.AddLikesCount(ctx, postID, 1); err != nil {
		s.logger.Warn("Like counter update failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}
	return true
}

// UnlikePost removes a like. Unliking a not-liked post is a successful no-op.
func (s *Service) UnlikePost(ctx context.Context, userID, postID string) bool {
	ctx, span := telemetry.StartSpan(ctx, "feed.unlike_post")
	defer span.End()

	if userID == "" {
		return false
	}

	liked, err := s.likes.Exists(ctx, postID, userID)
	if err != nil {
		s.logger.Warn("Like lookup failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}
	if !liked {
		return true
	}

	if err := s.likes.Delete(ctx, postID, userID); err != nil {
		s.logger.Warn("Like delete failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}

	if err := s.posts.AddLikesCount(ctx, postID, -1); err != nil {
		s.logger.Warn("Like counter update failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}
	return true
}

// AddComment appends a comment and bumps the post's comment counter
func (s *Service) AddComment(ctx context.Context, userID, postID, content string) bool {
	ctx, span := telemetry.StartSpan(ctx, "feed.add_comment")
	defer span.End()

	if userID == "" {
		return false
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		s.logger.Warn("Author lookup failed on comment", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	comment := &models.Comment{
		ID:         uuid.New().String(),
		PostID:     postID,
		UserID:     user.ID,
		UserName:   user.Name,
		UserAvatar: user.AvatarURL,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Warn("Comment create failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}

	if err := s.posts.AddCommentsCount(ctx, postID, 1); err != nil {
		s.logger.Warn("Comment counter update failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}
	return true
}

// enrichAll folds viewer state and comments onto each post. A post whose
// enrichment queries fail is dropped from the result rather than failing
// the whole batch.
func (s *Service) enrichAll(ctx context.Context, posts []*models.Post, viewerID string) []*models.Post {
	enriched := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if err := s.enrich(ctx, post, viewerID); err != nil {
			s.logger.Debug("Skipping post with failed enrichment",
				zap.String("post_id", post.ID), zap.Error(err))
			continue
		}
		enriched = append(enriched, post)
	}
	return enriched
}

// enrich computes viewer-specific liked state and loads the comment list
func (s *Service) enrich(ctx context.Context, post *models.Post, viewerID string) error {
	post.IsLikedByViewer = false
	if viewerID != "" {
		liked, err := s.likes.Exists(ctx, post.ID, viewerID)
		if err != nil {
			return err
		}
		post.IsLikedByViewer = liked
	}

	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	post.Comments = comments
	return nil
}
