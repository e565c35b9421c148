package users

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/models"
	"github.com/unfit20/unfit20/internal/storage"
	"github.com/unfit20/unfit20/pkg/logging"
	"github.com/unfit20/unfit20/pkg/telemetry"
)

// UserStore is the users collection of the canonical document store
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	AddFollowersCount(ctx context.Context, id string, delta int64) error
	AddFollowingCount(ctx context.Context, id string, delta int64) error
}

// FollowStore is the follow-edge collection
type FollowStore interface {
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followeeID string) error
}

// ObjectStore holds uploaded avatar images
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// AvatarUpload carries a profile image to be stored
type AvatarUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ProfileUpdate holds the mutable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name   *string
	Bio    *string
	Avatar *AvatarUpload
}

// Service manages user profiles and the follow graph
type Service struct {
	users   UserStore
	follows FollowStore
	objects ObjectStore
	logger  *zap.Logger
}

// NewService creates a new users service
func NewService(users UserStore, follows FollowStore, objects ObjectStore) *Service {
	return &Service{
		users:   users,
		follows: follows,
		objects: objects,
		logger:  logging.WithComponent("users-service"),
	}
}

// GetProfile returns a user's profile, annotated with whether the viewer
// follows them. Absent users return (nil, nil).
func (s *Service) GetProfile(ctx context.Context, viewerID, userID string) (*models.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "users.get_profile")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Profile fetch failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	if viewerID != "" && viewerID != userID {
		following, err := s.follows.Exists(ctx, viewerID, userID)
		if err != nil {
			s.logger.Warn("Follow lookup failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			user.IsFollowedByViewer = following
		}
	}
	return user, nil
}

// UpdateProfile applies the given profile changes to userID's own record.
// A new avatar is fully uploaded before the document write; the previous
// avatar object is removed best-effort afterwards.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) bool {
	ctx, span := telemetry.StartSpan(ctx, "users.update_profile")
	defer span.End()

	if userID == "" {
		return false
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		s.logger.Warn("Profile lookup failed on update", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	var oldAvatarKey string
	if update.Avatar != nil {
		url, err := s.objects.Put(ctx, storage.ProfileImageKey(userID),
			update.Avatar.Reader, update.Avatar.Size, update.Avatar.ContentType)
		if err != nil {
			s.logger.Warn("Avatar upload failed", zap.String("user_id", userID), zap.Error(err))
			return false
		}
		if user.AvatarURL != nil {
			oldAvatarKey = storage.KeyFromURL(*user.AvatarURL)
		}
		user.AvatarURL = &url
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Bio != nil {
		user.Bio = update.Bio
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("Profile update failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	if oldAvatarKey != "" {
		if err := s.objects.Remove(ctx, oldAvatarKey); err != nil {
			s.logger.Debug("Stale avatar cleanup failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.logger.Info("Profile updated", zap.String("user_id", userID))
	return true
}

// Follow records a follow edge from followerID to followeeID. Following an
// already-followed user is a successful no-op; self-follow is rejected. A
// genuine state change bumps both users' counters atomically.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) bool {
	ctx, span := telemetry.StartSpan(ctx, "users.follow")
	defer span.End()

	if followerID == "" || followeeID == "" || followerID == followeeID {
		return false
	}

	followee, err := s.users.GetByID(ctx, followeeID)
	if err != nil || followee == nil {
		s.logger.Warn("Followee lookup failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}

	following, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		s.logger.Warn("Follow lookup failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}
	if following {
		return true
	}

	edge := &models.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now().UTC()}
	if err := s.follows.Create(ctx, edge); err != nil {
		// A concurrent follow from another device trips the composite
		// primary key; that race still counts as following.
		if again, ferr := s.follows.Exists(ctx, followerID, followeeID); ferr == nil && again {
			return true
		}
		s.logger.Warn("Follow create failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}

	if err := s.users.AddFollowersCount(ctx, followeeID, 1); err != nil {
		s.logger.Warn("Followers counter update failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}
	if err := s.users.AddFollowingCount(ctx, followerID, 1); err != nil {
		s.logger.Warn("Following counter update failed", zap.String("follower_id", followerID), zap.Error(err))
		return false
	}
	return true
}

// Unfollow removes a follow edge. Unfollowing a not-followed user is a
// successful no-op.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) bool {
	ctx, span := telemetry.StartSpan(ctx, "users.unfollow")
	defer span.End()

	if followerID == "" || followeeID == "" || followerID == followeeID {
		return false
	}

	following, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		s.logger.Warn("Follow lookup failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}
	if !following {
		return true
	}

	if err := s.follows.Delete(ctx, followerID, followeeID); err != nil {
		s.logger.Warn("Follow delete failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}

	if err := s.users.AddFollowersCount(ctx, followeeID, -1); err != nil {
		s.logger.Warn("Followers counter update failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}
	if err := s.users.AddFollowingCount(ctx, followerID, -1); err != nil {
		s.logger.Warn("Following counter update failed", zap.String("follower_id", followerID), zap.Error(err))
		return false
	}
	return true
}

// IsFollowing reports whether followerID follows followeeID. Failures read
// as not following.
func (s *Service) IsFollowing(ctx context.Context, followerID, followeeID string) bool {
	following, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		s.logger.Warn("Follow lookup failed", zap.String("followee_id", followeeID), zap.Error(err))
		return false
	}
	return following
}
