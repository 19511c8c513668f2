package apiclient

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Sort is the job-list ordering accepted by the backend.
type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
)

// Job is the backend's job record.
type Job struct {
	ID                 string    `json:"_id,omitempty"`
	Title              string    `json:"title"`
	Category           string    `json:"category"`
	Price              float64   `json:"price"`
	Summary            string    `json:"summary"`
	Description        string    `json:"description,omitempty"`
	CoverImage         string    `json:"coverImage"`
	Skills             []string  `json:"skills,omitempty"`
	ExperienceRequired string    `json:"experienceRequired,omitempty"`
	PostedBy           string    `json:"postedBy"`
	PostedByEmail      string    `json:"postedByEmail"`
	PostedByImage      string    `json:"postedByImage,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// JobDraft is the user-entered portion of a job posting. Authorship
// fields are filled from the current identity at submit time, never by
// the caller.
type JobDraft struct {
	Title              string   `json:"title"`
	Category           string   `json:"category"`
	Price              float64  `json:"price"`
	Summary            string   `json:"summary"`
	Description        string   `json:"description,omitempty"`
	CoverImage         string   `json:"coverImage"`
	Skills             []string `json:"skills,omitempty"`
	ExperienceRequired string   `json:"experienceRequired,omitempty"`
}

// Validate applies the form-level checks; a failing draft issues zero
// network calls.
func (d JobDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Category, validation.Required),
		validation.Field(&d.Price, validation.Required, validation.Min(0.01)),
		validation.Field(&d.Summary, validation.Required),
		validation.Field(&d.CoverImage, validation.Required, is.URL),
	)
}

// AcceptedTask is a job the current user accepted: the job record plus
// acceptance attribution.
type AcceptedTask struct {
	ID         string    `json:"_id,omitempty"`
	JobID      string    `json:"jobId"`
	UserEmail  string    `json:"userEmail"`
	AcceptedAt time.Time `json:"accepted_at"`

	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	Summary       string   `json:"summary"`
	CoverImage    string   `json:"coverImage"`
	Skills        []string `json:"skills,omitempty"`
	PostedBy      string   `json:"postedBy"`
	PostedByEmail string   `json:"postedByEmail"`
}
