package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be found by ID.
var ErrNotFound = errors.New("content: record not found")

// HomepageRepository persists homepage elements.
type HomepageRepository interface {
	Create(ctx context.Context, el *HomepageElement) error
	List(ctx context.Context) ([]HomepageElement, error)
	Get(ctx context.Context, id uuid.UUID) (*HomepageElement, error)
	Update(ctx context.Context, el *HomepageElement) error
	// Reorder applies id→ordering pairs with upsert-by-id semantics.
	Reorder(ctx context.Context, updates []OrderUpdate) error
	// Delete removes the record and returns it so the caller can issue the
	// best-effort remote media delete.
	Delete(ctx context.Context, id uuid.UUID) (*HomepageElement, error)
}

// PortfolioRepository persists categories, projects and project videos.
type PortfolioRepository interface {
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProject(ctx context.Context, p *Project) error
	// ListProjects returns one page of projects, optionally filtered by
	// category, plus the total under the same filter for pagination.
	ListProjects(ctx context.Context, categoryID uuid.UUID, offset, limit int) ([]Project, int, error)
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	// DeleteProject removes the project and returns it with its videos so
	// the caller can clean up remote media.
	DeleteProject(ctx context.Context, id uuid.UUID) (*Project, []ProjectVideo, error)

	AddProjectVideo(ctx context.Context, v *ProjectVideo) error
	ListProjectVideos(ctx context.Context, projectID uuid.UUID) ([]ProjectVideo, error)
	DeleteProjectVideo(ctx context.Context, id uuid.UUID) (*ProjectVideo, error)
}

// TeamRepository persists team members.
type TeamRepository interface {
	CreateTeamMember(ctx context.Context, m *TeamMember) error
	ListTeamMembers(ctx context.Context) ([]TeamMember, error)
	DeleteTeamMember(ctx context.Context, id uuid.UUID) (*TeamMember, error)
}

// IntakeRepository persists contact messages and feedback.
type IntakeRepository interface {
	CreateContact(ctx context.Context, m *ContactMessage) error
	ListContacts(ctx context.Context) ([]ContactMessage, error)

	CreateFeedback(ctx context.Context, f *Feedback) error
	ListFeedback(ctx context.Context, approvedOnly bool) ([]Feedback, error)
	ApproveFeedback(ctx context.Context, id uuid.UUID) error
	DeleteFeedback(ctx context.Context, id uuid.UUID) error
}

// UserRepository looks up admin accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}
