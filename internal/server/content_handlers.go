package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/lumenframe/studio-api/internal/content"
	"github.com/lumenframe/studio-api/internal/storage"
	"github.com/lumenframe/studio-api/internal/upload"
)

// Storage folders per content area.
const (
	folderHomepage  = "homepage"
	folderPortfolio = "portfolio"
	folderTeam      = "team"
)

// ListHomepageElements handles GET /api/homepage/elements.
func (h *Handlers) ListHomepageElements(w http.ResponseWriter, r *http.Request) {
	els, err := h.homepage.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list homepage elements", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list homepage elements", "LIST_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, els)
}

// CreateHomepageElement handles POST /api/homepage/elements: multipart
// media_file plus title/ordering/visible fields.
func (h *Handlers) CreateHomepageElement(w http.ResponseWriter, r *http.Request) {
	f, err := h.receiver.Single(r, "media_file", upload.ClassMixed)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	asset, err := h.pipeline.Ingest(r.Context(), f, folderHomepage, r.FormValue("session_id"))
	if err != nil {
		h.logger.Error("homepage media ingest failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "media upload failed", "STORAGE_FAILED")
		return
	}

	ordering, _ := strconv.Atoi(r.FormValue("ordering"))
	el := &content.HomepageElement{
		Title:    r.FormValue("title"),
		Ordering: ordering,
		Visible:  r.FormValue("visible") != "false",
		MediaRef: mediaRef(asset),
	}
	if err := h.homepage.Create(r.Context(), el); err != nil {
		h.pipeline.Discard(r.Context(), asset.PublicID)
		h.logger.Error("failed to persist homepage element", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create homepage element", "CREATE_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, el)
}

// homepageUpdateRequest is the JSON body for updating a homepage element.
type homepageUpdateRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Ordering int    `json:"ordering" validate:"min=0"`
	Visible  bool   `json:"visible"`
}

// UpdateHomepageElement handles PUT /api/homepage/elements/{id}.
func (h *Handlers) UpdateHomepageElement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req homepageUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	el, err := h.homepage.Get(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "homepage element")
		return
	}
	el.Title = req.Title
	el.Ordering = req.Ordering
	el.Visible = req.Visible

	if err := h.homepage.Update(r.Context(), el); err != nil {
		h.writeRepoError(w, err, "homepage element")
		return
	}
	writeJSON(w, http.StatusOK, el)
}

// ReorderHomepage handles PUT /api/homepage/elements/order.
func (h *Handlers) ReorderHomepage(w http.ResponseWriter, r *http.Request) {
	var updates []content.OrderUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	for _, u := range updates {
		if err := h.validator.Struct(u); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
	}
	if err := h.homepage.Reorder(r.Context(), updates); err != nil {
		h.logger.Error("homepage reorder failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "reorder failed", "REORDER_FAILED")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteHomepageElement handles DELETE /api/homepage/elements/{id}.
func (h *Handlers) DeleteHomepageElement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	el, err := h.homepage.Delete(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "homepage element")
		return
	}
	h.pipeline.DeleteAsset(r.Context(), el.PublicID)
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/portfolio/categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.portfolio.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list categories", "LIST_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// CreateCategory handles POST /api/portfolio/categories.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	c := &content.Category{Name: req.Name, Slug: req.Slug, Ordering: req.Ordering}
	if err := h.portfolio.CreateCategory(r.Context(), c); err != nil {
		h.logger.Error("failed to create category", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create category", "CREATE_FAILED")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/portfolio/categories/{id}.
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	c := &content.Category{ID: id, Name: req.Name, Slug: req.Slug, Ordering: req.Ordering}
	if err := h.portfolio.UpdateCategory(r.Context(), c); err != nil {
		h.writeRepoError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/portfolio/categories/{id}.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.portfolio.DeleteCategory(r.Context(), id); err != nil {
		h.writeRepoError(w, err, "category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjects handles GET /api/portfolio/projects?category=&page=&limit=.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	var categoryID uuid.UUID
	if c := r.URL.Query().Get("category"); c != "" {
		parsed, err := uuid.Parse(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category ID", "INVALID_ID")
			return
		}
		categoryID = parsed
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	projects, total, err := h.portfolio.ListProjects(r.Context(), categoryID, (page-1)*limit, limit)
	if err != nil {
		h.logger.Error("failed to list projects", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list projects", "LIST_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{
		Projects: projects,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// CreateProject handles POST /api/portfolio/projects: multipart photo plus
// title/description/category_id/ordering fields.
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	f, err := h.receiver.Single(r, "photo", upload.ClassImage)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	categoryID, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category_id", "INVALID_ID")
		return
	}

	asset, err := h.pipeline.Ingest(r.Context(), f, folderPortfolio, r.FormValue("session_id"))
	if err != nil {
		h.logger.Error("project cover ingest failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "media upload failed", "STORAGE_FAILED")
		return
	}

	ordering, _ := strconv.Atoi(r.FormValue("ordering"))
	p := &content.Project{
		CategoryID:  categoryID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Ordering:    ordering,
		MediaRef:    mediaRef(asset),
	}
	if err := h.portfolio.CreateProject(r.Context(), p); err != nil {
		h.pipeline.Discard(r.Context(), asset.PublicID)
		h.logger.Error("failed to persist project", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create project", "CREATE_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// projectDetail is a project with its attached videos.
type projectDetail struct {
	*content.Project
	Videos []content.ProjectVideo `json:"videos"`
}

// GetProject handles GET /api/portfolio/projects/{id}.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.portfolio.GetProject(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "project")
		return
	}
	videos, err := h.portfolio.ListProjectVideos(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list project videos", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load project", "LIST_FAILED")
		return
	}
	if videos == nil {
		videos = []content.ProjectVideo{}
	}
	writeJSON(w, http.StatusOK, projectDetail{Project: p, Videos: videos})
}

// DeleteProject handles DELETE /api/portfolio/projects/{id}. The cover and
// every attached video are removed from storage best-effort.
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, videos, err := h.portfolio.DeleteProject(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "project")
		return
	}
	h.pipeline.DeleteAsset(r.Context(), p.PublicID)
	for _, v := range videos {
		h.pipeline.DeleteAsset(r.Context(), v.PublicID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddProjectVideos handles POST /api/portfolio/projects/{id}/videos: one or
// more multipart video files plus an optional title field. Files are ingested
// in order; if any step fails, assets already uploaded for this request are
// discarded and nothing is persisted.
func (h *Handlers) AddProjectVideos(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.portfolio.GetProject(r.Context(), id); err != nil {
		h.writeRepoError(w, err, "project")
		return
	}

	files, err := h.receiver.Multi(r, "video", upload.ClassVideo)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	sessionID := r.FormValue("session_id")
	title := r.FormValue("title")
	created := make([]*content.ProjectVideo, 0, len(files))
	for _, f := range files {
		asset, err := h.pipeline.Ingest(r.Context(), f, folderPortfolio, sessionID)
		if err != nil {
			h.discardProjectVideos(r.Context(), created)
			h.logger.Error("project video ingest failed", slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, "media upload failed", "STORAGE_FAILED")
			return
		}

		v := &content.ProjectVideo{
			ProjectID: id,
			Title:     title,
			MediaRef:  mediaRef(asset),
		}
		if err := h.portfolio.AddProjectVideo(r.Context(), v); err != nil {
			h.pipeline.Discard(r.Context(), asset.PublicID)
			h.discardProjectVideos(r.Context(), created)
			h.logger.Error("failed to persist project video", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to add video", "CREATE_FAILED")
			return
		}
		created = append(created, v)
	}

	writeJSON(w, http.StatusCreated, created)
}

// discardProjectVideos rolls back records and assets created earlier in a
// failed bulk request.
func (h *Handlers) discardProjectVideos(ctx context.Context, created []*content.ProjectVideo) {
	for _, v := range created {
		if _, err := h.portfolio.DeleteProjectVideo(ctx, v.ID); err != nil {
			h.logger.Warn("failed to roll back project video",
				slog.String("id", v.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		h.pipeline.Discard(ctx, v.PublicID)
	}
}

// DeleteProjectVideo handles DELETE /api/portfolio/videos/{id}.
func (h *Handlers) DeleteProjectVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.portfolio.DeleteProjectVideo(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "project video")
		return
	}
	h.pipeline.DeleteAsset(r.Context(), v.PublicID)
	w.WriteHeader(http.StatusNoContent)
}

// ListTeam handles GET /api/team.
func (h *Handlers) ListTeam(w http.ResponseWriter, r *http.Request) {
	members, err := h.team.ListTeamMembers(r.Context())
	if err != nil {
		h.logger.Error("failed to list team", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list team", "LIST_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// CreateTeamMember handles POST /api/team: multipart photo plus
// name/role/bio/ordering fields.
func (h *Handlers) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	f, err := h.receiver.Single(r, "photo", upload.ClassImage)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	asset, err := h.pipeline.Ingest(r.Context(), f, folderTeam, r.FormValue("session_id"))
	if err != nil {
		h.logger.Error("team photo ingest failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "media upload failed", "STORAGE_FAILED")
		return
	}

	ordering, _ := strconv.Atoi(r.FormValue("ordering"))
	m := &content.TeamMember{
		Name:     r.FormValue("name"),
		Role:     r.FormValue("role"),
		Bio:      r.FormValue("bio"),
		Ordering: ordering,
		MediaRef: mediaRef(asset),
	}
	if err := h.team.CreateTeamMember(r.Context(), m); err != nil {
		h.pipeline.Discard(r.Context(), asset.PublicID)
		h.logger.Error("failed to persist team member", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create team member", "CREATE_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// DeleteTeamMember handles DELETE /api/team/{id}.
func (h *Handlers) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.team.DeleteTeamMember(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "team member")
		return
	}
	h.pipeline.DeleteAsset(r.Context(), m.PublicID)
	w.WriteHeader(http.StatusNoContent)
}

// CreateContact handles the public POST /api/contact.
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	m := &content.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}
	if err := h.intake.CreateContact(r.Context(), m); err != nil {
		h.logger.Error("failed to store contact message", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to submit message", "CREATE_FAILED")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListContacts handles the admin GET /api/contact.
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.intake.ListContacts(r.Context())
	if err != nil {
		h.logger.Error("failed to list contact messages", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list messages", "LIST_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// CreateFeedback handles the public POST /api/feedback. Reviews start
// unapproved and stay hidden until an admin approves them.
func (h *Handlers) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	fb := &content.Feedback{
		Author: req.Author,
		Rating: req.Rating,
		Text:   req.Text,
	}
	if err := h.intake.CreateFeedback(r.Context(), fb); err != nil {
		h.logger.Error("failed to store feedback", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to submit feedback", "CREATE_FAILED")
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// ListFeedback handles the public GET /api/feedback (approved only).
func (h *Handlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	fb, err := h.intake.ListFeedback(r.Context(), true)
	if err != nil {
		h.logger.Error("failed to list feedback", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list feedback", "LIST_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// ListAllFeedback handles the admin GET /api/feedback/all.
func (h *Handlers) ListAllFeedback(w http.ResponseWriter, r *http.Request) {
	fb, err := h.intake.ListFeedback(r.Context(), false)
	if err != nil {
		h.logger.Error("failed to list feedback", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list feedback", "LIST_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// ApproveFeedback handles POST /api/feedback/{id}/approve.
func (h *Handlers) ApproveFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.intake.ApproveFeedback(r.Context(), id); err != nil {
		h.writeRepoError(w, err, "feedback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFeedback handles DELETE /api/feedback/{id}.
func (h *Handlers) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.intake.DeleteFeedback(r.Context(), id); err != nil {
		h.writeRepoError(w, err, "feedback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeRepoError maps repository errors to HTTP responses.
func (h *Handlers) writeRepoError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, content.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found", "NOT_FOUND")
		return
	}
	h.logger.Error("repository operation failed",
		slog.String("entity", what),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "operation failed", "INTERNAL_ERROR")
}

// pathID parses the {id} path segment, writing the error response itself.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID", "INVALID_ID")
		return uuid.Nil, false
	}
	return id, true
}

// mediaRef converts a stored asset into the embedded record fields.
func mediaRef(a *storage.Asset) content.MediaRef {
	return content.MediaRef{
		PublicID:        a.PublicID,
		URL:             a.URL,
		ThumbnailURL:    a.ThumbnailURL,
		MediaType:       a.MediaType,
		SizeBytes:       a.SizeBytes,
		DurationSeconds: a.DurationSeconds,
	}
}
