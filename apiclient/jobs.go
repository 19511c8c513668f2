package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
	taskverse "github.com/taskverse/client-go"
)

const defaultAvatarURL = "https://www.w3schools.com/howto/img_avatar.png"

// ListJobs fetches every available job, ordered by creation time.
// A public endpoint: works anonymously.
func (c *Client) ListJobs(ctx context.Context, sort Sort) ([]Job, error) {
	query := url.Values{}
	if sort != "" {
		query.Set("sort", string(sort))
	}

	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/allJobs", query, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// LatestJobs fetches the most recent postings for the landing surface.
func (c *Client) LatestJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/latestJobs", nil, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob fetches a single job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/allJobs/"+url.PathEscape(id), nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJob validates the draft and posts it. Authorship is always
// attributed to the current identity; an anonymous session cannot
// post.
func (c *Client) CreateJob(ctx context.Context, draft JobDraft) (*Job, error) {
	if err := draft.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "please fill in all required fields")
	}

	identity, err := c.requireIdentity()
	if err != nil {
		return nil, err
	}

	job := draftToJob(draft, identity)
	job.CreatedAt = time.Now().UTC()

	var created Job
	if err := c.do(ctx, http.MethodPost, "/addJob", nil, job, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		created = *job
	}

	c.bumpRefetch()
	return &created, nil
}

// UpdateJob validates the draft and replaces the job record.
func (c *Client) UpdateJob(ctx context.Context, id string, draft JobDraft) error {
	if err := draft.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "please fill in all required fields")
	}

	identity, err := c.requireIdentity()
	if err != nil {
		return err
	}

	job := draftToJob(draft, identity)
	if err := c.do(ctx, http.MethodPut, "/updateJob/"+url.PathEscape(id), nil, job, nil); err != nil {
		return err
	}

	c.bumpRefetch()
	return nil
}

// DeleteJob removes a job posting.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/deleteJob/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return err
	}

	c.bumpRefetch()
	return nil
}

// MyAddedJobs lists the jobs posted by the current identity.
func (c *Client) MyAddedJobs(ctx context.Context) ([]Job, error) {
	identity, err := c.requireIdentity()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("email", identity.Email)

	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/myAddedJobs/", query, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) requireIdentity() (*taskverse.Identity, error) {
	if c.session == nil {
		return nil, taskverse.ErrNotAuthenticated
	}
	state, identity := c.session.Current()
	if state != taskverse.StateAuthenticated || identity == nil {
		return nil, taskverse.ErrNotAuthenticated
	}
	return identity, nil
}

func draftToJob(draft JobDraft, identity *taskverse.Identity) *Job {
	postedBy := identity.DisplayName
	if postedBy == "" {
		postedBy = "Anonymous"
	}
	postedByImage := identity.PhotoURL
	if postedByImage == "" {
		postedByImage = defaultAvatarURL
	}

	return &Job{
		Title:              draft.Title,
		Category:           draft.Category,
		Price:              draft.Price,
		Summary:            draft.Summary,
		Description:        draft.Description,
		CoverImage:         draft.CoverImage,
		Skills:             draft.Skills,
		ExperienceRequired: draft.ExperienceRequired,
		PostedBy:           postedBy,
		PostedByEmail:      identity.Email,
		PostedByImage:      postedByImage,
	}
}
