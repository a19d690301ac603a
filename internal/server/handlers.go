package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/lumenframe/studio-api/internal/auth"
	"github.com/lumenframe/studio-api/internal/compress"
	"github.com/lumenframe/studio-api/internal/content"
	"github.com/lumenframe/studio-api/internal/instagram"
	"github.com/lumenframe/studio-api/internal/pipeline"
	"github.com/lumenframe/studio-api/internal/session"
	"github.com/lumenframe/studio-api/internal/upload"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	pipeline  *pipeline.Service
	receiver  *upload.Receiver
	sessions  *session.Manager
	auth      *auth.Service
	instagram instagram.Client

	homepage  content.HomepageRepository
	portfolio content.PortfolioRepository
	team      content.TeamRepository
	intake    content.IntakeRepository

	compressDefaults compress.Options
	validator        *validator.Validate
	logger           *slog.Logger
}

// HandlersConfig bundles the dependencies for NewHandlers.
type HandlersConfig struct {
	Pipeline  *pipeline.Service
	Sessions  *session.Manager
	Auth      *auth.Service
	Instagram instagram.Client

	Homepage  content.HomepageRepository
	Portfolio content.PortfolioRepository
	Team      content.TeamRepository
	Intake    content.IntakeRepository

	CompressDefaults compress.Options
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg HandlersConfig, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		pipeline:         cfg.Pipeline,
		receiver:         upload.NewReceiver(),
		sessions:         cfg.Sessions,
		auth:             cfg.Auth,
		instagram:        cfg.Instagram,
		homepage:         cfg.Homepage,
		portfolio:        cfg.Portfolio,
		team:             cfg.Team,
		intake:           cfg.Intake,
		compressDefaults: cfg.CompressDefaults,
		validator:        validator.New(),
		logger:           logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Login handles POST /api/auth/login requests.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password", "INVALID_CREDENTIALS")
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "login failed", "LOGIN_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// InstagramFeed handles GET /api/instagram/feed requests.
func (h *Handlers) InstagramFeed(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")

	feed, err := h.instagram.RecentMedia(r.Context(), limit, cursor)
	if err != nil {
		h.logger.Error("instagram feed fetch failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "instagram feed unavailable", "INSTAGRAM_UNAVAILABLE")
		return
	}

	writeJSON(w, http.StatusOK, InstagramFeedResponse{
		Posts:      feed.Posts,
		NextCursor: feed.NextCursor,
	})
}

// CompressTest handles POST /api/media/compress-test requests: compress the
// submitted video and report the stats without storing anything.
func (h *Handlers) CompressTest(w http.ResponseWriter, r *http.Request) {
	f, err := h.receiver.Single(r, "video", upload.ClassVideo)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	opts := h.compressDefaults
	if q := r.FormValue("quality"); q != "" {
		opts.Quality = compress.Quality(q)
	}
	if t := r.FormValue("target_size_mb"); t != "" {
		if mb, convErr := strconv.Atoi(t); convErr == nil && mb > 0 {
			opts.TargetSizeMB = mb
		}
	}

	result, err := h.pipeline.CompressVideo(r.Context(), f.Data, opts, r.FormValue("session_id"))
	if err != nil {
		h.logger.Error("compress test failed",
			slog.String("filename", f.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnprocessableEntity, "compression failed", "COMPRESSION_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, CompressTestResponse{
		OriginalSizeMB:   result.OriginalSizeMB,
		CompressedSizeMB: result.CompressedSizeMB,
		CompressionRatio: result.CompressionRatio,
	})
}

// decodeAndValidate decodes a JSON body into dst and validates it, writing
// the error response itself on failure.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

// writeUploadError maps upload rejections to their HTTP representation and
// everything else to a 500.
func (h *Handlers) writeUploadError(w http.ResponseWriter, err error) {
	var uerr *upload.Error
	if errors.As(err, &uerr) {
		writeJSON(w, uerr.Status, ErrorResponse{Error: ErrorDetail{
			Message:      uerr.Message,
			Code:         uerr.Code,
			MaxSize:      uerr.MaxBytes,
			FileType:     string(uerr.Class),
			AllowedTypes: uerr.AllowedTypes,
		}})
		return
	}
	h.logger.Error("upload failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "upload failed", "UPLOAD_FAILED")
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard envelope.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Message: message,
		Code:    code,
	}})
}
