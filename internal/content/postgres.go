package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// NewDB opens and pings a Postgres connection pool.
func NewDB(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// PostgresStore implements all content repositories over one sqlx pool.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Compile-time interface checks.
var (
	_ HomepageRepository  = (*PostgresStore)(nil)
	_ PortfolioRepository = (*PostgresStore)(nil)
	_ TeamRepository      = (*PostgresStore)(nil)
	_ IntakeRepository    = (*PostgresStore)(nil)
	_ UserRepository      = (*PostgresStore)(nil)
)

const homepageColumns = `id, title, ordering, visible,
	media_public_id, media_url, media_thumbnail_url, media_type,
	media_size_bytes, media_duration_seconds, created_at, updated_at`

// Create inserts a homepage element, assigning a fresh ID.
func (s *PostgresStore) Create(ctx context.Context, el *HomepageElement) error {
	el.ID = uuid.New()
	el.CreatedAt = time.Now()
	el.UpdatedAt = el.CreatedAt

	const query = `
		insert into homepage_elements (` + homepageColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		el.ID, el.Title, el.Ordering, el.Visible,
		el.PublicID, el.URL, el.ThumbnailURL, el.MediaType,
		el.SizeBytes, el.DurationSeconds, el.CreatedAt, el.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert homepage element: %w", err)
	}
	return nil
}

// List returns homepage elements in display order.
func (s *PostgresStore) List(ctx context.Context) ([]HomepageElement, error) {
	var els []HomepageElement
	const query = `select ` + homepageColumns + ` from homepage_elements order by ordering, created_at`
	if err := s.db.SelectContext(ctx, &els, query); err != nil {
		return nil, fmt.Errorf("list homepage elements: %w", err)
	}
	return els, nil
}

// Get fetches one homepage element.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*HomepageElement, error) {
	var el HomepageElement
	const query = `select ` + homepageColumns + ` from homepage_elements where id = $1`
	if err := s.db.GetContext(ctx, &el, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get homepage element: %w", err)
	}
	return &el, nil
}

// Update rewrites the mutable fields of a homepage element.
func (s *PostgresStore) Update(ctx context.Context, el *HomepageElement) error {
	const query = `
		update homepage_elements
		set title = $2, ordering = $3, visible = $4, updated_at = $5
		where id = $1
	`
	res, err := s.db.ExecContext(ctx, query, el.ID, el.Title, el.Ordering, el.Visible, time.Now())
	if err != nil {
		return fmt.Errorf("update homepage element: %w", err)
	}
	return requireRow(res)
}

// Reorder upserts id→ordering pairs in one transaction.
func (s *PostgresStore) Reorder(ctx context.Context, updates []OrderUpdate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
		update homepage_elements set ordering = $2, updated_at = $3 where id = $1
	`
	now := time.Now()
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, query, u.ID, u.Ordering, now); err != nil {
			return fmt.Errorf("reorder element %s: %w", u.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Delete removes a homepage element, returning it for media cleanup.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) (*HomepageElement, error) {
	el, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `delete from homepage_elements where id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete homepage element: %w", err)
	}
	return el, nil
}

// CreateCategory inserts a portfolio category.
func (s *PostgresStore) CreateCategory(ctx context.Context, c *Category) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	const query = `
		insert into categories (id, name, slug, ordering, created_at)
		values ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug, c.Ordering, c.CreatedAt); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// ListCategories returns categories in display order.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	const query = `select id, name, slug, ordering, created_at from categories order by ordering, name`
	if err := s.db.SelectContext(ctx, &cats, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// UpdateCategory rewrites a category's mutable fields.
func (s *PostgresStore) UpdateCategory(ctx context.Context, c *Category) error {
	const query = `update categories set name = $2, slug = $3, ordering = $4 where id = $1`
	res, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug, c.Ordering)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

// DeleteCategory removes a category.
func (s *PostgresStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from categories where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

const projectColumns = `id, category_id, title, description, ordering,
	media_public_id, media_url, media_thumbnail_url, media_type,
	media_size_bytes, media_duration_seconds, created_at, updated_at`

// CreateProject inserts a project.
func (s *PostgresStore) CreateProject(ctx context.Context, p *Project) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	const query = `
		insert into projects (` + projectColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.CategoryID, p.Title, p.Description, p.Ordering,
		p.PublicID, p.URL, p.ThumbnailURL, p.MediaType,
		p.SizeBytes, p.DurationSeconds, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// ListProjects returns one page of projects plus the total count.
// A zero categoryID disables the category filter.
func (s *PostgresStore) ListProjects(ctx context.Context, categoryID uuid.UUID, offset, limit int) ([]Project, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var (
		projects []Project
		total    int
	)
	if categoryID == uuid.Nil {
		const query = `select ` + projectColumns + ` from projects order by ordering, created_at desc limit $1 offset $2`
		if err := s.db.SelectContext(ctx, &projects, query, limit, offset); err != nil {
			return nil, 0, fmt.Errorf("list projects: %w", err)
		}
		if err := s.db.GetContext(ctx, &total, `select count(*) from projects`); err != nil {
			return nil, 0, fmt.Errorf("count projects: %w", err)
		}
		return projects, total, nil
	}

	const query = `select ` + projectColumns + ` from projects where category_id = $1 order by ordering, created_at desc limit $2 offset $3`
	if err := s.db.SelectContext(ctx, &projects, query, categoryID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	if err := s.db.GetContext(ctx, &total, `select count(*) from projects where category_id = $1`, categoryID); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// GetProject fetches one project.
func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	var p Project
	const query = `select ` + projectColumns + ` from projects where id = $1`
	if err := s.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// DeleteProject removes a project and its videos, returning both for
// remote media cleanup.
func (s *PostgresStore) DeleteProject(ctx context.Context, id uuid.UUID) (*Project, []ProjectVideo, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	videos, err := s.ListProjectVideos(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin project delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from project_videos where project_id = $1`, id); err != nil {
		return nil, nil, fmt.Errorf("delete project videos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `delete from projects where id = $1`, id); err != nil {
		return nil, nil, fmt.Errorf("delete project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit project delete: %w", err)
	}
	return p, videos, nil
}

const projectVideoColumns = `id, project_id, title,
	media_public_id, media_url, media_thumbnail_url, media_type,
	media_size_bytes, media_duration_seconds, created_at`

// AddProjectVideo attaches a video to a project.
func (s *PostgresStore) AddProjectVideo(ctx context.Context, v *ProjectVideo) error {
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	const query = `
		insert into project_videos (` + projectVideoColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.ProjectID, v.Title,
		v.PublicID, v.URL, v.ThumbnailURL, v.MediaType,
		v.SizeBytes, v.DurationSeconds, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project video: %w", err)
	}
	return nil
}

// ListProjectVideos returns a project's videos, newest first.
func (s *PostgresStore) ListProjectVideos(ctx context.Context, projectID uuid.UUID) ([]ProjectVideo, error) {
	var videos []ProjectVideo
	const query = `select ` + projectVideoColumns + ` from project_videos where project_id = $1 order by created_at desc`
	if err := s.db.SelectContext(ctx, &videos, query, projectID); err != nil {
		return nil, fmt.Errorf("list project videos: %w", err)
	}
	return videos, nil
}

// DeleteProjectVideo removes one project video, returning it for cleanup.
func (s *PostgresStore) DeleteProjectVideo(ctx context.Context, id uuid.UUID) (*ProjectVideo, error) {
	var v ProjectVideo
	const query = `select ` + projectVideoColumns + ` from project_videos where id = $1`
	if err := s.db.GetContext(ctx, &v, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project video: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `delete from project_videos where id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete project video: %w", err)
	}
	return &v, nil
}

const teamColumns = `id, name, role, bio, ordering,
	media_public_id, media_url, media_thumbnail_url, media_type,
	media_size_bytes, media_duration_seconds, created_at`

// CreateTeamMember inserts a team member.
func (s *PostgresStore) CreateTeamMember(ctx context.Context, m *TeamMember) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	const query = `
		insert into team_members (` + teamColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Role, m.Bio, m.Ordering,
		m.PublicID, m.URL, m.ThumbnailURL, m.MediaType,
		m.SizeBytes, m.DurationSeconds, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert team member: %w", err)
	}
	return nil
}

// ListTeamMembers returns team members in display order.
func (s *PostgresStore) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	var members []TeamMember
	const query = `select ` + teamColumns + ` from team_members order by ordering, name`
	if err := s.db.SelectContext(ctx, &members, query); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// DeleteTeamMember removes a team member, returning it for cleanup.
func (s *PostgresStore) DeleteTeamMember(ctx context.Context, id uuid.UUID) (*TeamMember, error) {
	var m TeamMember
	const query = `select ` + teamColumns + ` from team_members where id = $1`
	if err := s.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get team member: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `delete from team_members where id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete team member: %w", err)
	}
	return &m, nil
}

// CreateContact stores a contact form submission.
func (s *PostgresStore) CreateContact(ctx context.Context, m *ContactMessage) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	const query = `
		insert into contact_messages (id, name, email, phone, message, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query, m.ID, m.Name, m.Email, m.Phone, m.Message, m.CreatedAt); err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// ListContacts returns contact messages, newest first.
func (s *PostgresStore) ListContacts(ctx context.Context) ([]ContactMessage, error) {
	var msgs []ContactMessage
	const query = `select id, name, email, phone, message, created_at from contact_messages order by created_at desc`
	if err := s.db.SelectContext(ctx, &msgs, query); err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return msgs, nil
}

// CreateFeedback stores a review, unapproved by default.
func (s *PostgresStore) CreateFeedback(ctx context.Context, f *Feedback) error {
	f.ID = uuid.New()
	f.CreatedAt = time.Now()
	const query = `
		insert into feedback (id, author, rating, text, approved, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query, f.ID, f.Author, f.Rating, f.Text, f.Approved, f.CreatedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListFeedback returns reviews, optionally only approved ones.
func (s *PostgresStore) ListFeedback(ctx context.Context, approvedOnly bool) ([]Feedback, error) {
	var fb []Feedback
	query := `select id, author, rating, text, approved, created_at from feedback order by created_at desc`
	if approvedOnly {
		query = `select id, author, rating, text, approved, created_at from feedback where approved order by created_at desc`
	}
	if err := s.db.SelectContext(ctx, &fb, query); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return fb, nil
}

// ApproveFeedback marks a review as approved.
func (s *PostgresStore) ApproveFeedback(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `update feedback set approved = true where id = $1`, id)
	if err != nil {
		return fmt.Errorf("approve feedback: %w", err)
	}
	return requireRow(res)
}

// DeleteFeedback removes a review.
func (s *PostgresStore) DeleteFeedback(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from feedback where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return requireRow(res)
}

// GetByEmail looks up an admin account by email.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	const query = `select id, email, password_hash, role, created_at from users where email = $1`
	if err := s.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// requireRow maps zero affected rows to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
