package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	taskverse "github.com/taskverse/client-go"
	"github.com/taskverse/client-go/apiclient"
)

func validDraft() apiclient.JobDraft {
	return apiclient.JobDraft{
		Title:      "Fix the deck railing",
		Category:   "Handyman",
		Price:      120,
		Summary:    "Loose railing on the back deck needs re-anchoring.",
		CoverImage: "https://example.com/deck.jpg",
	}
}

func TestListJobsSendsSortParam(t *testing.T) {
	var gotSort string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSort = r.URL.Query().Get("sort")
		w.Write([]byte(`[{"_id":"j1","title":"one"},{"_id":"j2","title":"two"}]`))
	}))
	defer server.Close()

	client := apiclient.New(server.URL, &fakeSession{})

	jobs, err := client.ListJobs(context.Background(), apiclient.SortOldest)
	require.NoError(t, err)
	assert.Equal(t, "oldest", gotSort)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j1", jobs[0].ID)
}

func TestGetJobEscapesID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"_id":"abc123","title":"walk the dog"}`))
	}))
	defer server.Close()

	client := apiclient.New(server.URL, &fakeSession{})

	job, err := client.GetJob(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "/allJobs/abc123", gotPath)
	assert.Equal(t, "walk the dog", job.Title)
}

func TestCreateJobInvalidDraftIssuesNoNetworkCall(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	session := &fakeSession{}
	session.setIdentity("uid-a", "a@example.com", "tok-a")
	client := apiclient.New(server.URL, session)

	bad := validDraft()
	bad.Title = ""

	_, err := client.CreateJob(context.Background(), bad)
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestCreateJobRequiresSession(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := apiclient.New(server.URL, &fakeSession{})

	_, err := client.CreateJob(context.Background(), validDraft())
	require.Error(t, err)
	assert.True(t, taskverse.IsNotAuthenticated(err))
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestCreateJobAttributesAuthorship(t *testing.T) {
	var posted apiclient.Job
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		posted.ID = "new-id"
		json.NewEncoder(w).Encode(posted)
	}))
	defer server.Close()

	session := &fakeSession{}
	session.setIdentity("uid-a", "a@example.com", "tok-a")
	session.identity.DisplayName = "Ada"
	session.identity.PhotoURL = "https://example.com/ada.png"

	client := apiclient.New(server.URL, session)

	created, err := client.CreateJob(context.Background(), validDraft())
	require.NoError(t, err)

	assert.Equal(t, "Ada", posted.PostedBy)
	assert.Equal(t, "a@example.com", posted.PostedByEmail)
	assert.Equal(t, "https://example.com/ada.png", posted.PostedByImage)
	assert.False(t, posted.CreatedAt.IsZero())
	assert.Equal(t, "new-id", created.ID)
}

func TestCreateJobFallsBackToDefaultsForBareProfile(t *testing.T) {
	var posted apiclient.Job
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		json.NewEncoder(w).Encode(posted)
	}))
	defer server.Close()

	session := &fakeSession{}
	session.setIdentity("uid-a", "a@example.com", "tok-a")

	client := apiclient.New(server.URL, session)

	_, err := client.CreateJob(context.Background(), validDraft())
	require.NoError(t, err)

	assert.Equal(t, "Anonymous", posted.PostedBy)
	assert.Equal(t, "https://www.w3schools.com/howto/img_avatar.png", posted.PostedByImage)
}

func TestMyAddedJobsFiltersByEmail(t *testing.T) {
	var gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("email")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	session := &fakeSession{}
	session.setIdentity("uid-a", "a@example.com", "tok-a")

	client := apiclient.New(server.URL, session)

	_, err := client.MyAddedJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", gotEmail)
}

func TestAcceptOwnJobRejectedWithoutNetworkCall(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	session := &fakeSession{}
	session.setIdentity("uid-a", "a@example.com", "tok-a")

	client := apiclient.New(server.URL, session)

	_, err := client.AcceptTask(context.Background(), apiclient.Job{
		ID:            "j1",
		Title:         "mow the lawn",
		PostedByEmail: "a@example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrOwnJob)
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestAcceptTaskRecordsAcceptance(t *testing.T) {
	var posted apiclient.AcceptedTask
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		posted.ID = "acc-1"
		json.NewEncoder(w).Encode(posted)
	}))
	defer server.Close()

	session := &fakeSession{}
	session.setIdentity("uid-b", "b@example.com", "tok-b")

	client := apiclient.New(server.URL, session)

	task, err := client.AcceptTask(context.Background(), apiclient.Job{
		ID:            "j1",
		Title:         "mow the lawn",
		PostedBy:      "Ada",
		PostedByEmail: "a@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "j1", posted.JobID)
	assert.Equal(t, "b@example.com", posted.UserEmail)
	assert.False(t, posted.AcceptedAt.IsZero())
	assert.Equal(t, "acc-1", task.ID)
}

func TestMutationsBumpRefetchSignalOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	session := &fakeSession{}
	session.setIdentity("uid-a", "a@example.com", "tok-a")

	signal := taskverse.NewRefetchSignal()
	client := apiclient.New(server.URL, session, apiclient.WithRefetchSignal(signal))

	base := signal.Generation()

	_, err := client.CreateJob(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, base+1, signal.Generation())

	require.NoError(t, client.DeleteJob(context.Background(), "j1"))
	assert.Equal(t, base+2, signal.Generation())

	// A rejected draft never reaches the network and must not
	// invalidate anything.
	bad := validDraft()
	bad.Summary = ""
	_, err = client.CreateJob(context.Background(), bad)
	require.Error(t, err)
	assert.Equal(t, base+2, signal.Generation())
}

func TestJobDraftValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*apiclient.JobDraft)
		valid  bool
	}{
		{"complete draft", func(d *apiclient.JobDraft) {}, true},
		{"missing title", func(d *apiclient.JobDraft) { d.Title = "" }, false},
		{"missing category", func(d *apiclient.JobDraft) { d.Category = "" }, false},
		{"zero price", func(d *apiclient.JobDraft) { d.Price = 0 }, false},
		{"missing summary", func(d *apiclient.JobDraft) { d.Summary = "" }, false},
		{"cover image not a URL", func(d *apiclient.JobDraft) { d.CoverImage = "not a url" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			err := draft.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
