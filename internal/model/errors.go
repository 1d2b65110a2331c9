package model

import "errors"

// Not found. Handlers map these to 404.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrCreationNotFound     = errors.New("creation not found")
	ErrNotificationNotFound = errors.New("notification not found or unauthorized")
	ErrCreationNotPending   = errors.New("creation is already published")
)

// Invalid request. Handlers map these to 400.
var (
	ErrPromptRequired   = errors.New("prompt is required")
	ErrContentRequired  = errors.New("comment text is required")
	ErrContentTooLong   = errors.New("comment text too long")
	ErrReasonRequired   = errors.New("report reason is required")
	ErrNoUpdateFields   = errors.New("at least one of isRead or dismissed is required")
	ErrInvalidPushToken = errors.New("invalid push token")
	ErrQueryRequired    = errors.New("search query is required")
)

// ErrHandleTaken is returned when a handle is already claimed.
var ErrHandleTaken = errors.New("handle already taken")

// ErrUpstreamFailure covers both image generation and thumbnail compositing.
// Callers cannot tell which step failed.
var ErrUpstreamFailure = errors.New("image service failure")
