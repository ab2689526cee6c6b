// Package services defines the business logic for presence status, likes,
// and notifications. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrInvalidStatus is returned when a status update names a value outside
	// online/offline/away/busy.
	ErrInvalidStatus = errors.New("invalid status value")

	// ErrStatusNotFound indicates the requested user has no status row yet.
	ErrStatusNotFound = errors.New("user status not found")

	// ErrSelfLike is returned when a user attempts to like their own profile.
	ErrSelfLike = errors.New("cannot like own profile")

	// ErrAlreadyLiked is returned when the like relationship already exists.
	ErrAlreadyLiked = errors.New("profile already liked")

	// ErrLikeNotFound indicates there is no like relationship to remove.
	ErrLikeNotFound = errors.New("like not found")

	// ErrNotificationNotFound indicates the requested notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrForbiddenNotification is returned when a user acts on a notification
	// that is not addressed to them.
	ErrForbiddenNotification = errors.New("notification belongs to another user")
)
