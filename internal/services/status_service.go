// Package services – StatusService
//
// This file implements the REST-facing side of presence: explicit status
// updates and offline requests are funneled into the presence state machine
// (which owns the broadcasts), while reads come straight from the durable
// mirror.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/realtime"
	"github.com/tbourn/go-social-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StatusService exposes user status operations to the HTTP layer.
type StatusService struct {
	DB       *gorm.DB
	Presence *realtime.Presence
}

// NewStatusService constructs a StatusService.
func NewStatusService(db *gorm.DB, presence *realtime.Presence) *StatusService {
	return &StatusService{DB: db, Presence: presence}
}

// UpdateStatus validates and applies a status change for userID. The
// broadcast happens inside the presence layer and fires even when the value
// did not change. An empty status keeps the stored value.
func (s *StatusService) UpdateStatus(ctx context.Context, userID, status string) (*domain.UserStatus, error) {
	tr := otel.Tracer("services/StatusService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("status", status),
		),
	)
	defer span.End()

	if status != "" && !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.Presence.SetStatus(ctx, userID, status)
}

// SetOffline applies the explicit client-initiated offline transition.
func (s *StatusService) SetOffline(ctx context.Context, userID string) error {
	tr := otel.Tracer("services/StatusService")
	ctx, span := tr.Start(ctx, "SetOffline",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return s.Presence.SetOffline(ctx, userID)
}

// Get returns userID's durable status row.
func (s *StatusService) Get(ctx context.Context, userID string) (*domain.UserStatus, error) {
	row, err := repo.GetStatus(ctx, s.DB, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// OnlineUsers lists the durable status rows of online users, excluding the
// caller.
func (s *StatusService) OnlineUsers(ctx context.Context, userID string) ([]domain.UserStatus, error) {
	return repo.ListOnline(ctx, s.DB, userID)
}
