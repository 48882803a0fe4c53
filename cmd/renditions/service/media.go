package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediaforge/renditions/cmd/renditions/models"
	"github.com/mediaforge/renditions/cmd/renditions/repository"
	"github.com/mediaforge/renditions/common/attachment"
	"github.com/mediaforge/renditions/common/cache"
	"github.com/mediaforge/renditions/common/logger"
	"github.com/mediaforge/renditions/common/storage"
	"github.com/mediaforge/renditions/common/validation"
)

// urlCacheTTL bounds staleness of cached URL sets. Signed URLs expire
// after 30 minutes, so cached sets must turn over faster.
const urlCacheTTL = 5 * time.Minute

// ErrValidationFailed wraps upload rule violations
var ErrValidationFailed = errors.New("upload validation failed")

// MediaService owns the upload/serve/delete lifecycle of media records.
// Attachment writes happen before the database row exists; the service
// rolls the renditions back when the row cannot be written.
type MediaService struct {
	repo        *repository.MediaRepository
	manager     *attachment.Manager
	cache       cache.Cache
	rules       []validation.Rule
	defaultOpts []attachment.Option
	log         *logger.Logger
}

// NewMediaService creates a new media service. rules run against every
// upload before any rendition is generated; defaultOpts apply to every
// write, underneath any per-request options.
func NewMediaService(
	repo *repository.MediaRepository,
	manager *attachment.Manager,
	urlCache cache.Cache,
	log *logger.Logger,
	defaultOpts []attachment.Option,
	rules ...validation.Rule,
) *MediaService {
	return &MediaService{
		repo:        repo,
		manager:     manager,
		cache:       urlCache,
		rules:       rules,
		defaultOpts: defaultOpts,
		log:         log,
	}
}

// DefaultUploadOptions derives the service-wide attachment overrides
// from configuration
func DefaultUploadOptions(folder string) []attachment.Option {
	var opts []attachment.Option
	if folder != "" {
		opts = append(opts, attachment.WithFolder(folder))
	}
	return opts
}

// Upload validates buf, generates and stores its renditions, and
// inserts the media record. Renditions written before a failed insert
// are deleted again.
func (s *MediaService) Upload(ctx context.Context, fileName string, buf []byte, opts ...attachment.Option) (*models.MediaRecord, error) {
	if violations := validation.Validate(buf, s.rules...); len(violations) > 0 {
		s.log.Warn("upload rejected by validation",
			"file_name", fileName,
			"violations", len(violations),
		)
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, violations[0].Error())
	}

	att, err := s.manager.FromBuffer(buf, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment: %w", err)
	}
	att.SetOptions(s.defaultOpts...)
	att.SetOptions(opts...)

	if _, err := att.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	media := &models.MediaRecord{
		ID:         uuid.New(),
		FileName:   fileName,
		Attachment: att.Snapshot(),
	}

	if err := s.repo.Create(ctx, media); err != nil {
		// The renditions are orphaned without the row; best effort
		// rollback before surfacing the insert failure
		if delErr := att.Delete(ctx); delErr != nil {
			s.log.Error("failed to roll back attachment after insert failure",
				"id", media.ID,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.log.Info("media uploaded",
		"id", media.ID,
		"file_name", fileName,
		"renditions", len(media.Attachment.Breakpoints),
	)

	return media, nil
}

// Get returns the media record and its computed URL set. URL sets are
// served from cache when fresh.
func (s *MediaService) Get(ctx context.Context, id uuid.UUID) (*models.MediaRecord, *attachment.URLSet, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if urls, ok := s.cachedURLs(ctx, id); ok {
		return media, urls, nil
	}

	att := s.manager.FromRecord(media.Attachment)
	att.SetOptions(attachment.WithURLPolicy(attachment.PrecomputeURLs()))

	urls, err := att.ComputeURLs(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute media urls: %w", err)
	}

	s.storeURLs(ctx, id, urls)
	return media, urls, nil
}

// GetSigned is Get with explicit signing options and no caching
func (s *MediaService) GetSigned(ctx context.Context, id uuid.UUID, signing *storage.SignedURLOptions) (*models.MediaRecord, *attachment.URLSet, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	att := s.manager.FromRecord(media.Attachment)
	att.SetOptions(attachment.WithURLPolicy(attachment.PrecomputeURLs()))

	urls, err := att.ComputeURLs(ctx, signing)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute media urls: %w", err)
	}

	return media, urls, nil
}

// Replace swaps the stored image for a new one. The old renditions are
// removed only after the row update succeeds; a failed update rolls the
// new renditions back instead.
func (s *MediaService) Replace(ctx context.Context, id uuid.UUID, fileName string, buf []byte, opts ...attachment.Option) (*models.MediaRecord, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if violations := validation.Validate(buf, s.rules...); len(violations) > 0 {
		s.log.Warn("replacement rejected by validation",
			"id", id,
			"violations", len(violations),
		)
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, violations[0].Error())
	}

	newAtt, err := s.manager.FromBuffer(buf, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment: %w", err)
	}
	newAtt.SetOptions(s.defaultOpts...)
	newAtt.SetOptions(opts...)

	if _, err := newAtt.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	// The swap reads the displaced snapshot under a row lock, so a
	// concurrent replace cannot leave either set of renditions orphaned
	old, err := s.repo.SwapAttachment(ctx, id, fileName, newAtt.Snapshot())
	if err != nil {
		if delErr := newAtt.Delete(ctx); delErr != nil {
			s.log.Error("failed to roll back attachment after update failure",
				"id", id,
				"error", delErr,
			)
		}
		return nil, err
	}

	// Old renditions are now unreferenced
	oldAtt := s.manager.FromRecord(old)
	if err := oldAtt.Delete(ctx); err != nil {
		s.log.Error("failed to delete replaced renditions", "id", id, "error", err)
	}

	s.invalidateURLs(ctx, id)

	media.FileName = fileName
	media.Attachment = newAtt.Snapshot()
	s.log.Info("media replaced", "id", id, "file_name", fileName)

	return media, nil
}

// Delete removes the renditions and then the record. A rendition delete
// failure leaves the row in place so the files stay reachable.
func (s *MediaService) Delete(ctx context.Context, id uuid.UUID) error {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	att := s.manager.FromRecord(media.Attachment)
	if err := att.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete renditions: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateURLs(ctx, id)
	s.log.Info("media deleted", "id", id)

	return nil
}

// List returns records newest first
func (s *MediaService) List(ctx context.Context, limit, offset int) ([]*models.MediaRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func urlCacheKey(id uuid.UUID) string {
	return "media_urls:" + id.String()
}

func (s *MediaService) cachedURLs(ctx context.Context, id uuid.UUID) (*attachment.URLSet, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, ok, err := s.cache.Get(ctx, urlCacheKey(id))
	if err != nil || !ok {
		return nil, false
	}

	urls := &attachment.URLSet{}
	if err := json.Unmarshal(raw, urls); err != nil {
		return nil, false
	}
	return urls, true
}

func (s *MediaService) storeURLs(ctx context.Context, id uuid.UUID, urls *attachment.URLSet) {
	if s.cache == nil || urls == nil {
		return
	}

	raw, err := json.Marshal(urls)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, urlCacheKey(id), raw, urlCacheTTL); err != nil {
		s.log.Debug("failed to cache media urls", "id", id, "error", err)
	}
}

func (s *MediaService) invalidateURLs(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, urlCacheKey(id)); err != nil {
		s.log.Debug("failed to invalidate url cache", "id", id, "error", err)
	}
}
