package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenframe/studio-api/internal/auth"
	"github.com/lumenframe/studio-api/internal/compress"
	"github.com/lumenframe/studio-api/internal/content"
	"github.com/lumenframe/studio-api/internal/instagram"
	"github.com/lumenframe/studio-api/internal/pipeline"
	"github.com/lumenframe/studio-api/internal/session"
	"github.com/lumenframe/studio-api/internal/storage"
	"github.com/lumenframe/studio-api/internal/upload"
)

// fakeStore is an in-memory object store.
type fakeStore struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	uploadErr error
}

func (f *fakeStore) Upload(_ context.Context, folder, filename string, data []byte, contentType string) (*storage.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	key := folder + "/" + filename
	f.uploads = append(f.uploads, key)
	mediaType := "image"
	if strings.HasPrefix(contentType, "video/") {
		mediaType = "video"
	}
	return &storage.Asset{
		PublicID:  key,
		URL:       "https://cdn.example/" + key,
		MediaType: mediaType,
		SizeBytes: int64(len(data)),
	}, nil
}

func (f *fakeStore) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeStore) EnsureFolder(context.Context, string) error { return nil }

// fakeProcessor implements media.Processor without ffmpeg.
type fakeProcessor struct{}

func (fakeProcessor) ResizeImage(_ context.Context, _, dst string, _, _ int) error {
	return os.WriteFile(dst, []byte("resized"), 0600)
}

func (fakeProcessor) ProbeDuration(context.Context, string) (float64, error) {
	return 12, nil
}

// fakeTranscoder writes canned compressed output.
type fakeTranscoder struct{}

func (fakeTranscoder) Encode(_ context.Context, _, outputPath string, _ compress.EncodeSpec, _ chan<- float64) error {
	return os.WriteFile(outputPath, []byte("compressed"), 0600)
}

// memRepo is an in-memory implementation of the content repositories.
type memRepo struct {
	mu         sync.Mutex
	homepage   map[uuid.UUID]*content.HomepageElement
	feedback   map[uuid.UUID]*content.Feedback
	contacts   []content.ContactMessage
	team       map[uuid.UUID]*content.TeamMember
	categories map[uuid.UUID]*content.Category
	projects   map[uuid.UUID]*content.Project
	videos     map[uuid.UUID]*content.ProjectVideo
	user       *content.User

	createErr      error
	videoErr       error
	videoFailAfter int
	videoCalls     int
}

func newMemRepo() *memRepo {
	return &memRepo{
		homepage:   make(map[uuid.UUID]*content.HomepageElement),
		feedback:   make(map[uuid.UUID]*content.Feedback),
		team:       make(map[uuid.UUID]*content.TeamMember),
		categories: make(map[uuid.UUID]*content.Category),
		projects:   make(map[uuid.UUID]*content.Project),
		videos:     make(map[uuid.UUID]*content.ProjectVideo),
	}
}

func (m *memRepo) Create(_ context.Context, el *content.HomepageElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	el.ID = uuid.New()
	m.homepage[el.ID] = el
	return nil
}

func (m *memRepo) List(_ context.Context) ([]content.HomepageElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	els := make([]content.HomepageElement, 0, len(m.homepage))
	for _, el := range m.homepage {
		els = append(els, *el)
	}
	return els, nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*content.HomepageElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.homepage[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	clone := *el
	return &clone, nil
}

func (m *memRepo) Update(_ context.Context, el *content.HomepageElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.homepage[el.ID]; !ok {
		return content.ErrNotFound
	}
	m.homepage[el.ID] = el
	return nil
}

func (m *memRepo) Reorder(_ context.Context, updates []content.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		if el, ok := m.homepage[u.ID]; ok {
			el.Ordering = u.Ordering
		}
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) (*content.HomepageElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.homepage[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	delete(m.homepage, id)
	return el, nil
}

func (m *memRepo) CreateTeamMember(_ context.Context, tm *content.TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm.ID = uuid.New()
	m.team[tm.ID] = tm
	return nil
}

func (m *memRepo) ListTeamMembers(_ context.Context) ([]content.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]content.TeamMember, 0, len(m.team))
	for _, tm := range m.team {
		members = append(members, *tm)
	}
	return members, nil
}

func (m *memRepo) DeleteTeamMember(_ context.Context, id uuid.UUID) (*content.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.team[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	delete(m.team, id)
	return tm, nil
}

func (m *memRepo) CreateContact(_ context.Context, msg *content.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.New()
	m.contacts = append(m.contacts, *msg)
	return nil
}

func (m *memRepo) ListContacts(context.Context) ([]content.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]content.ContactMessage(nil), m.contacts...), nil
}

func (m *memRepo) CreateFeedback(_ context.Context, f *content.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.New()
	m.feedback[f.ID] = f
	return nil
}

func (m *memRepo) ListFeedback(_ context.Context, approvedOnly bool) ([]content.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []content.Feedback
	for _, f := range m.feedback {
		if approvedOnly && !f.Approved {
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

func (m *memRepo) ApproveFeedback(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feedback[id]
	if !ok {
		return content.ErrNotFound
	}
	f.Approved = true
	return nil
}

func (m *memRepo) DeleteFeedback(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feedback[id]; !ok {
		return content.ErrNotFound
	}
	delete(m.feedback, id)
	return nil
}

func (m *memRepo) CreateCategory(_ context.Context, c *content.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	m.categories[c.ID] = c
	return nil
}

func (m *memRepo) ListCategories(context.Context) ([]content.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cats := make([]content.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cats = append(cats, *c)
	}
	return cats, nil
}

func (m *memRepo) UpdateCategory(_ context.Context, c *content.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return content.ErrNotFound
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memRepo) DeleteCategory(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return content.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memRepo) CreateProject(_ context.Context, p *content.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	p.ID = uuid.New()
	m.projects[p.ID] = p
	return nil
}

func (m *memRepo) ListProjects(_ context.Context, categoryID uuid.UUID, offset, limit int) ([]content.Project, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []content.Project
	for _, p := range m.projects {
		if categoryID != uuid.Nil && p.CategoryID != categoryID {
			continue
		}
		all = append(all, *p)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memRepo) GetProject(_ context.Context, id uuid.UUID) (*content.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memRepo) DeleteProject(_ context.Context, id uuid.UUID) (*content.Project, []content.ProjectVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil, content.ErrNotFound
	}
	delete(m.projects, id)
	var videos []content.ProjectVideo
	for vid, v := range m.videos {
		if v.ProjectID == id {
			videos = append(videos, *v)
			delete(m.videos, vid)
		}
	}
	return p, videos, nil
}

func (m *memRepo) AddProjectVideo(_ context.Context, v *content.ProjectVideo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videoCalls++
	if m.videoErr != nil && m.videoCalls > m.videoFailAfter {
		return m.videoErr
	}
	v.ID = uuid.New()
	m.videos[v.ID] = v
	return nil
}

func (m *memRepo) ListProjectVideos(_ context.Context, projectID uuid.UUID) ([]content.ProjectVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []content.ProjectVideo
	for _, v := range m.videos {
		if v.ProjectID == projectID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteProjectVideo(_ context.Context, id uuid.UUID) (*content.ProjectVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	delete(m.videos, id)
	return v, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*content.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, content.ErrNotFound
	}
	return m.user, nil
}

// stubInstagram serves a canned feed or error.
type stubInstagram struct {
	feed *instagram.Feed
	err  error
}

func (s stubInstagram) RecentMedia(context.Context, int, string) (*instagram.Feed, error) {
	return s.feed, s.err
}

type testAPI struct {
	router   http.Handler
	store    *fakeStore
	repo     *memRepo
	sessions *session.Manager
	token    string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repo := newMemRepo()
	hash, err := auth.HashPassword("studio-pass")
	require.NoError(t, err)
	repo.user = &content.User{
		ID:           uuid.New(),
		Email:        "admin@studio.example",
		PasswordHash: hash,
		Role:         "admin",
	}

	store := &fakeStore{}
	sessions := session.NewManager(nil)
	engine := compress.NewEngine(fakeTranscoder{}, fakeProcessor{}, t.TempDir(), nil)
	pipe := pipeline.NewService(store, engine, fakeProcessor{}, sessions, nil, pipeline.Config{
		ThresholdMB: 50,
		TempDir:     t.TempDir(),
	})
	authSvc := auth.NewService(repo, "test-secret")

	h := NewHandlers(HandlersConfig{
		Pipeline:  pipe,
		Sessions:  sessions,
		Auth:      authSvc,
		Instagram: stubInstagram{feed: &instagram.Feed{Posts: []instagram.Post{{ID: "1", MediaType: "IMAGE"}}}},
		Homepage:  repo,
		Portfolio: repo,
		Team:      repo,
		Intake:    repo,
	}, nil)

	router := NewRouter(h, authSvc, newTestLogger(), DefaultConfig())

	token, err := authSvc.Login(context.Background(), "admin@studio.example", "studio-pass")
	require.NoError(t, err)

	return &testAPI{router: router, store: store, repo: repo, sessions: sessions, token: token}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (a *testAPI) do(req *http.Request, authed bool) *httptest.ResponseRecorder {
	if authed {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	hdr.Set("Content-Type", contentType)
	fw, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

type filePart struct {
	field, filename, contentType string
	data                         []byte
}

func multipartFiles(t *testing.T, parts []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		hdr.Set("Content-Type", p.contentType)
		fw, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(httptest.NewRequest(http.MethodGet, "/health", nil), false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(jsonRequest(t, http.MethodPost, "/api/auth/login",
		LoginRequest{Email: "admin@studio.example", Password: "studio-pass"}), false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestLoginBadPassword(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(jsonRequest(t, http.MethodPost, "/api/auth/login",
		LoginRequest{Email: "admin@studio.example", Password: "wrong"}), false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, rec).Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	api := newTestAPI(t)

	body, ctype := multipartBody(t, "media_file", "hero.jpg", "image/jpeg", []byte("jpeg"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/homepage/elements", body)
	req.Header.Set("Content-Type", ctype)

	rec := api.do(req, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
}

func TestCreateHomepageElement(t *testing.T) {
	api := newTestAPI(t)

	body, ctype := multipartBody(t, "media_file", "hero.jpg", "image/jpeg", []byte("jpeg-bytes"),
		map[string]string{"title": "Summer shoot", "ordering": "3"})
	req := httptest.NewRequest(http.MethodPost, "/api/homepage/elements", body)
	req.Header.Set("Content-Type", ctype)

	rec := api.do(req, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var el content.HomepageElement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &el))
	assert.Equal(t, "Summer shoot", el.Title)
	assert.Equal(t, 3, el.Ordering)
	assert.True(t, el.Visible)
	assert.NotEmpty(t, el.PublicID)
	assert.True(t, strings.HasPrefix(el.URL, "https://cdn.example/homepage/"))
	assert.Equal(t, "image", el.MediaType)

	require.Len(t, api.store.uploads, 1)
}

func TestCreateHomepageElementInvalidType(t *testing.T) {
	api := newTestAPI(t)

	body, ctype := multipartBody(t, "media_file", "resume.pdf", "application/pdf", []byte("%PDF"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/homepage/elements", body)
	req.Header.Set("Content-Type", ctype)

	rec := api.do(req, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	detail := decodeError(t, rec)
	assert.Equal(t, upload.CodeInvalidFileType, detail.Code)
	assert.NotEmpty(t, detail.AllowedTypes)
	assert.Empty(t, api.store.uploads)
}

func TestCreateTeamMemberOversizedPhoto(t *testing.T) {
	api := newTestAPI(t)

	big := make([]byte, upload.MaxImageBytes+1)
	body, ctype := multipartBody(t, "photo", "portrait.jpg", "image/jpeg", big,
		map[string]string{"name": "Ada"})
	req := httptest.NewRequest(http.MethodPost, "/api/team", body)
	req.Header.Set("Content-Type", ctype)

	rec := api.do(req, true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	detail := decodeError(t, rec)
	assert.Equal(t, upload.CodeFileTooLarge, detail.Code)
	assert.Equal(t, upload.MaxImageBytes, detail.MaxSize)
	assert.Equal(t, "image", detail.FileType)
}

func TestCreateHomepageElementDBFailureDiscardsUpload(t *testing.T) {
	api := newTestAPI(t)
	api.repo.createErr = errors.New("connection reset")

	body, ctype := multipartBody(t, "media_file", "hero.jpg", "image/jpeg", []byte("jpeg"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/homepage/elements", body)
	req.Header.Set("Content-Type", ctype)

	rec := api.do(req, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The orphaned object is removed from storage.
	require.Len(t, api.store.uploads, 1)
	assert.Equal(t, api.store.uploads, api.store.deleted)
}

func TestDeleteHomepageElementRemovesMedia(t *testing.T) {
	api := newTestAPI(t)
	el := &content.HomepageElement{Title: "old banner"}
	el.PublicID = "homepage/old.jpg"
	require.NoError(t, api.repo.Create(context.Background(), el))

	req := httptest.NewRequest(http.MethodDelete, "/api/homepage/elements/"+el.ID.String(), nil)
	rec := api.do(req, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, api.store.deleted, "homepage/old.jpg")
}

func TestDeleteUnknownElement(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/homepage/elements/"+uuid.NewString(), nil)
	rec := api.do(req, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestContactFormValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(jsonRequest(t, http.MethodPost, "/api/contact",
		ContactRequest{Name: "Client", Email: "not-an-email", Message: "hello"}), false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = api.do(jsonRequest(t, http.MethodPost, "/api/contact",
		ContactRequest{Name: "Client", Email: "client@example.com", Message: "booking inquiry"}), false)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFeedbackApprovalFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(jsonRequest(t, http.MethodPost, "/api/feedback",
		FeedbackRequest{Author: "Happy Client", Rating: 5, Text: "wonderful photos"}), false)
	require.Equal(t, http.StatusCreated, rec.Code)

	var fb content.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))
	assert.False(t, fb.Approved)

	// Public list hides unapproved reviews.
	rec = api.do(httptest.NewRequest(http.MethodGet, "/api/feedback", nil), false)
	require.Equal(t, http.StatusOK, rec.Code)
	var public []content.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &public))
	assert.Empty(t, public)

	rec = api.do(httptest.NewRequest(http.MethodPost, "/api/feedback/"+fb.ID.String()+"/approve", nil), true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(httptest.NewRequest(http.MethodGet, "/api/feedback", nil), false)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &public))
	require.Len(t, public, 1)
	assert.True(t, public[0].Approved)
}

func TestAddProjectVideosBulk(t *testing.T) {
	api := newTestAPI(t)
	p := &content.Project{Title: "Wedding reel"}
	require.NoError(t, api.repo.CreateProject(context.Background(), p))

	body, ctype := multipartFiles(t, []filePart{
		{field: "video", filename: "ceremony.mp4", contentType: "video/mp4", data: []byte("vid-1")},
		{field: "video", filename: "reception.mp4", contentType: "video/mp4", data: []byte("vid-2")},
	}, map[string]string{"title": "Highlights"})
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/projects/"+p.ID.String()+"/videos", body)
	req.Header.Set("Content-Type", ctype)

	rec := api.do(req, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created []content.ProjectVideo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created, 2)
	for _, v := range created {
		assert.Equal(t, p.ID, v.ProjectID)
		assert.Equal(t, "Highlights", v.Title)
		assert.NotEmpty(t, v.PublicID)
	}
	assert.Len(t, api.store.uploads, 2)
	assert.Empty(t, api.store.deleted)
}

func TestAddProjectVideosBulkRollsBackOnFailure(t *testing.T) {
	api := newTestAPI(t)
	p := &content.Project{Title: "Wedding reel"}
	require.NoError(t, api.repo.CreateProject(context.Background(), p))

	// The second insert fails; the first video's record and both uploaded
	// objects must be rolled back.
	api.repo.videoErr = errors.New("connection reset")
	api.repo.videoFailAfter = 1

	body, ctype := multipartFiles(t, []filePart{
		{field: "video", filename: "ceremony.mp4", contentType: "video/mp4", data: []byte("vid-1")},
		{field: "video", filename: "reception.mp4", contentType: "video/mp4", data: []byte("vid-2")},
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/projects/"+p.ID.String()+"/videos", body)
	req.Header.Set("Content-Type", ctype)

	rec := api.do(req, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Empty(t, api.repo.videos)
	assert.Len(t, api.store.uploads, 2)
	assert.ElementsMatch(t, api.store.uploads, api.store.deleted)
}

func TestInstagramFeed(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/instagram/feed", nil), false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp InstagramFeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "1", resp.Posts[0].ID)
}
