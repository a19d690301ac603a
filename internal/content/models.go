// Package content persists the site's content records: homepage elements,
// portfolio categories and projects, team members, contact messages and
// feedback. Records embed media asset fields produced by the upload
// pipeline; the asset URL stays resolvable independently of any session.
package content

import (
	"time"

	"github.com/google/uuid"
)

// MediaRef is the embedded media asset reference shared by content records.
// PublicID alone is sufficient to delete the remote object later.
type MediaRef struct {
	PublicID        string  `db:"media_public_id" json:"media_public_id"`
	URL             string  `db:"media_url" json:"media_url"`
	ThumbnailURL    string  `db:"media_thumbnail_url" json:"media_thumbnail_url,omitempty"`
	MediaType       string  `db:"media_type" json:"media_type"`
	SizeBytes       int64   `db:"media_size_bytes" json:"media_size_bytes"`
	DurationSeconds float64 `db:"media_duration_seconds" json:"media_duration_seconds,omitempty"`
}

// HomepageElement is an ordered hero/banner block on the landing page.
type HomepageElement struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Ordering  int       `db:"ordering" json:"ordering"`
	Visible   bool      `db:"visible" json:"visible"`
	MediaRef  `json:"media"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Category groups portfolio projects.
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Ordering  int       `db:"ordering" json:"ordering"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Project is a portfolio entry with a cover photo and optional videos.
type Project struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CategoryID  uuid.UUID `db:"category_id" json:"category_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Ordering    int       `db:"ordering" json:"ordering"`
	MediaRef    `json:"cover"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectVideo is an additional video attached to a project.
type ProjectVideo struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`
	Title     string    `db:"title" json:"title,omitempty"`
	MediaRef  `json:"media"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeamMember is a studio staff profile with a portrait photo.
type TeamMember struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	Bio       string    `db:"bio" json:"bio,omitempty"`
	Ordering  int       `db:"ordering" json:"ordering"`
	MediaRef  `json:"photo"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Feedback is a client review, hidden until approved.
type Feedback struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Author    string    `db:"author" json:"author"`
	Rating    int       `db:"rating" json:"rating"`
	Text      string    `db:"text" json:"text"`
	Approved  bool      `db:"approved" json:"approved"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User is an admin account.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// OrderUpdate carries one id→ordering pair for reorder upserts.
type OrderUpdate struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Ordering int       `json:"ordering" validate:"min=0"`
}
