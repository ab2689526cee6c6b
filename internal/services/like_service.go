// Package services – LikeService
//
// This file implements the like/unlike workflow: the relationship row, the
// dedup-checked "New Like" notification on like, and the notification
// revocation (with its notification_removed push) on unlike.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LikeService owns the profile-like relationship and its notification side
// effects.
type LikeService struct {
	DB            *gorm.DB
	Notifications *NotificationService
}

// NewLikeService constructs a LikeService.
func NewLikeService(db *gorm.DB, notifications *NotificationService) *LikeService {
	return &LikeService{DB: db, Notifications: notifications}
}

// Like records that likerID liked likedUserID's profile and notifies the
// liked user. The notification goes through the dedup window, so repeated
// like/unlike cycles within the window produce a single notification.
func (s *LikeService) Like(ctx context.Context, likerID, likedUserID string) (*domain.Like, error) {
	tr := otel.Tracer("services/LikeService")
	ctx, span := tr.Start(ctx, "Like",
		trace.WithAttributes(
			attribute.String("like.liker", likerID),
			attribute.String("like.liked", likedUserID),
		),
	)
	defer span.End()

	if likerID == likedUserID {
		return nil, ErrSelfLike
	}
	if _, err := repo.GetLike(s.DB.WithContext(ctx), likerID, likedUserID); err == nil {
		return nil, ErrAlreadyLiked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	like, err := repo.CreateLike(s.DB.WithContext(ctx), likerID, likedUserID)
	if err != nil {
		return nil, err
	}

	// Best-effort side effect: the like stands even when the notification
	// write fails.
	_, _, err = s.Notifications.Create(ctx, likedUserID, likerID,
		domain.NotificationTypeLike,
		"New Like",
		fmt.Sprintf("User %s liked your profile!", likerID),
		domain.JSONMap{"liker_id": likerID},
	)
	if err != nil {
		span.RecordError(err)
	}

	return like, nil
}

// Unlike removes the like relationship and revokes the most recent matching
// like notification. A missing notification is not an error — the
// relationship removal still succeeds and no removal event is sent.
func (s *LikeService) Unlike(ctx context.Context, likerID, likedUserID string) error {
	tr := otel.Tracer("services/LikeService")
	ctx, span := tr.Start(ctx, "Unlike",
		trace.WithAttributes(
			attribute.String("like.liker", likerID),
			attribute.String("like.liked", likedUserID),
		),
	)
	defer span.End()

	like, err := repo.GetLike(s.DB.WithContext(ctx), likerID, likedUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLikeNotFound
	}
	if err != nil {
		return err
	}

	if err := repo.DeleteLike(s.DB.WithContext(ctx), like.ID); err != nil {
		return err
	}

	if _, err := s.Notifications.RemoveLatest(ctx, likedUserID, likerID, domain.NotificationTypeLike); err != nil {
		span.RecordError(err)
	}
	return nil
}

// ListReceived returns likes aimed at userID, newest first.
func (s *LikeService) ListReceived(ctx context.Context, userID string) ([]domain.Like, error) {
	return repo.ListLikesReceived(s.DB.WithContext(ctx), userID)
}

// ListGiven returns likes made by userID, newest first.
func (s *LikeService) ListGiven(ctx context.Context, userID string) ([]domain.Like, error) {
	return repo.ListLikesGiven(s.DB.WithContext(ctx), userID)
}
