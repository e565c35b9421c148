package syncer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/models"
	"github.com/unfit20/unfit20/pkg/config"
	"github.com/unfit20/unfit20/pkg/logging"
	"github.com/unfit20/unfit20/pkg/telemetry"
)

// PostStore is the posts collection of the canonical document store
type PostStore interface {
	ListPage(ctx context.Context, limit, offset int) ([]*models.Post, error)
}

// PostCache is the local read replica being kept warm
type PostCache interface {
	SavePosts(ctx context.Context, posts []*models.Post) error
	GetAll(ctx context.Context) ([]*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// Syncer keeps the cached feed replica converging on the canonical store.
// Request-driven cache refreshes only upsert, so rows for posts deleted
// elsewhere linger until this worker reconciles them away.
type Syncer struct {
	posts    PostStore
	cache    PostCache
	interval time.Duration
	batch    int
	logger   *zap.Logger
}

// New creates a new feed syncer
func New(posts PostStore, cache PostCache, cfg *config.SyncerConfig) *Syncer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}

	return &Syncer{
		posts:    posts,
		cache:    cache,
		interval: interval,
		batch:    batch,
		logger:   logging.GetLogger().With(zap.String("component", "syncer")),
	}
}

// Run starts the sync loop and blocks until the context is cancelled
func (s *Syncer) Run(ctx context.Context) error {
	s.logger.Info("Starting feed syncer", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.SyncOnce(ctx); err != nil {
				s.logger.Error("Sync pass failed", zap.Error(err))
			}
			s.wait(ctx)
		}
	}
}

// SyncOnce runs a single reconciliation pass: every canonical post is
// upserted into the cache, then cache rows with no canonical counterpart
// are removed.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "syncer.sync_once")
	defer span.End()

	seen := make(map[string]struct{})
	total := 0

	for offset := 0; ; offset += s.batch {
		posts, err := s.posts.ListPage(ctx, s.batch, offset)
		if err != nil {
			return fmt.Errorf("failed to list posts at offset %d: %w", offset, err)
		}
		if len(posts) == 0 {
			break
		}

		for _, p := range posts {
			seen[p.ID] = struct{}{}
		}
		if err := s.cache.SavePosts(ctx, posts); err != nil {
			return fmt.Errorf("failed to refresh cache batch: %w", err)
		}

		total += len(posts)
		if len(posts) < s.batch {
			break
		}
	}

	cached, err := s.cache.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached posts: %w", err)
	}

	pruned := 0
	for _, p := range cached {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		if err := s.cache.Delete(ctx, p.ID); err != nil {
			s.logger.Warn("Failed to prune stale cache row",
				zap.String("post_id", p.ID), zap.Error(err))
			continue
		}
		pruned++
	}

	s.logger.Debug("Sync pass complete",
		zap.Int("refreshed", total), zap.Int("pruned", pruned))
	return nil
}

// wait sleeps for the sync interval or until the context is cancelled
func (s *Syncer) wait(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
