// Package server provides the HTTP surface of the studio API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "github.com/lumenframe/studio-api/internal/instagram"

// LoginRequest is the HTTP request body for admin login.
type LoginRequest struct {
	// Email is the admin account email.
	Email string `json:"email" validate:"required,email"`
	// Password is the account password.
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	// Token is the signed JWT to present on protected routes.
	Token string `json:"token"`
}

// ContactRequest is the public contact form submission body.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=40"`
	Message string `json:"message" validate:"required,max=5000"`
}

// FeedbackRequest is the public review submission body.
type FeedbackRequest struct {
	Author string `json:"author" validate:"required,max=200"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required,max=5000"`
}

// CategoryRequest creates or updates a portfolio category.
type CategoryRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Slug     string `json:"slug" validate:"required,max=200"`
	Ordering int    `json:"ordering" validate:"min=0"`
}

// ProjectListResponse is one page of portfolio projects.
type ProjectListResponse struct {
	// Projects is the page contents.
	Projects any `json:"projects"`
	// Total is the unfiltered match count for pagination.
	Total int `json:"total"`
	// Page is the 1-based page number served.
	Page int `json:"page"`
	// Limit is the page size used.
	Limit int `json:"limit"`
}

// CompressTestResponse reports the outcome of a direct compression run.
type CompressTestResponse struct {
	// OriginalSizeMB is the input size in megabytes.
	OriginalSizeMB float64 `json:"original_size_mb"`
	// CompressedSizeMB is the output size in megabytes.
	CompressedSizeMB float64 `json:"compressed_size_mb"`
	// CompressionRatio is (original-compressed)/original.
	CompressionRatio float64 `json:"compression_ratio"`
}

// InstagramFeedResponse wraps the proxied feed page.
type InstagramFeedResponse struct {
	Posts      []instagram.Post `json:"posts"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ErrorDetail is the error object embedded in every error response.
type ErrorDetail struct {
	// Message is the human-readable error message.
	Message string `json:"message"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
	// MaxSize is the violated byte limit for FILE_TOO_LARGE.
	MaxSize int64 `json:"maxSize,omitempty"`
	// FileType is the file class the limit applies to.
	FileType string `json:"fileType,omitempty"`
	// AllowedTypes lists accepted extensions for INVALID_FILE_TYPE.
	AllowedTypes []string `json:"allowedTypes,omitempty"`
}

// ErrorResponse is the standard error response envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
