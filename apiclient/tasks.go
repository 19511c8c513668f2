package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ErrOwnJob rejects accepting a job the current identity posted.
// Caught client-side before any network call.
var ErrOwnJob = goerrors.New("you cannot accept your own job", goerrors.CategoryValidation).
	WithTextCode("task_own_job").
	WithCode(goerrors.CodeBadRequest)

// AcceptedTasks lists the tasks the current identity has accepted.
func (c *Client) AcceptedTasks(ctx context.Context) ([]AcceptedTask, error) {
	identity, err := c.requireIdentity()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("email", identity.Email)

	var tasks []AcceptedTask
	if err := c.do(ctx, http.MethodGet, "/my-accepted-tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// AcceptTask records the job as accepted by the current identity.
func (c *Client) AcceptTask(ctx context.Context, job Job) (*AcceptedTask, error) {
	identity, err := c.requireIdentity()
	if err != nil {
		return nil, err
	}

	if job.PostedByEmail != "" && job.PostedByEmail == identity.Email {
		return nil, ErrOwnJob
	}

	task := AcceptedTask{
		JobID:         job.ID,
		UserEmail:     identity.Email,
		AcceptedAt:    time.Now().UTC(),
		Title:         job.Title,
		Category:      job.Category,
		Price:         job.Price,
		Summary:       job.Summary,
		CoverImage:    job.CoverImage,
		Skills:        job.Skills,
		PostedBy:      job.PostedBy,
		PostedByEmail: job.PostedByEmail,
	}

	var created AcceptedTask
	if err := c.do(ctx, http.MethodPost, "/my-accepted-tasks", nil, task, &created); err != nil {
		return nil, err
	}
	if created.JobID == "" {
		created = task
	}

	c.bumpRefetch()
	return &created, nil
}

// RemoveAcceptedTask deletes an accepted task by its record ID.
func (c *Client) RemoveAcceptedTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/my-accepted-tasks/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return err
	}

	c.bumpRefetch()
	return nil
}
