package sandbox

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ochronus/gorecruitee/internal/config"
	"github.com/ochronus/gorecruitee/recruitee"
	"github.com/ochronus/gorecruitee/recruitee/payload"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Loglevel = "error"
	cfg.Sandbox.CompanyID = testCompany
	cfg.Sandbox.APIToken = testToken
	return cfg
}

func setupTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel) // silence output in tests
	return logger
}

func newSandboxClient(t *testing.T) *recruitee.Client {
	t.Helper()
	server := NewServer(setupTestConfig(), setupTestLogger())
	ts := httptest.NewServer(server.GetRouter())
	t.Cleanup(ts.Close)

	client, err := recruitee.New(testCompany, testToken, recruitee.WithBaseURL(ts.URL))
	require.NoError(t, err)
	return client
}

func recordID(t *testing.T, rec recruitee.Record) int64 {
	t.Helper()
	require.NotNil(t, rec)
	n, ok := rec["id"].(json.Number)
	require.True(t, ok, "id should be a number, got %#v", rec["id"])
	id, err := n.Int64()
	require.NoError(t, err)
	return id
}

func TestNewServer(t *testing.T) {
	cfg := setupTestConfig()
	server := NewServer(cfg, setupTestLogger())

	require.NotNil(t, server)
	assert.Equal(t, cfg, server.config)
	assert.NotNil(t, server.handler)
	assert.NotNil(t, server.GetRouter())
	assert.Equal(t, "127.0.0.1:9292", server.Addr())
}

func TestServerGracefulShutdownWithContext(t *testing.T) {
	t.Parallel()

	cfg := setupTestConfig()
	cfg.Sandbox.Port = 0 // let the OS pick a free port

	s := NewServer(cfg, setupTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.StartWithContext(ctx)
	}()

	// Allow the server to start listening.
	time.Sleep(100 * time.Millisecond)

	// Trigger graceful shutdown.
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected graceful shutdown without error, got: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

func TestClientAgainstSandbox(t *testing.T) {
	ctx := context.Background()
	client := newSandboxClient(t)

	admins, err := client.Admins.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	offer, err := client.Offers.Create(ctx, recruitee.Params{"title": "Backend Engineer"})
	require.NoError(t, err)
	offerID := recordID(t, offer)

	candidate, err := client.Candidates.Create(ctx, recruitee.Params{
		"name":   "Ada Lovelace",
		"emails": []string{"ada@example.com"},
		"offers": []int64{offerID},
	})
	require.NoError(t, err)
	candidateID := recordID(t, candidate)
	assert.Equal(t, "Ada Lovelace", candidate["name"])

	found, err := client.Candidates.FetchByEmail(ctx, "ada@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, candidateID, recordID(t, found))

	missing, err := client.Candidates.FetchByEmail(ctx, "nobody@example.com", nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := client.Candidates.Update(ctx, candidateID, recruitee.Params{"phone": "+44 20 7946 0000"})
	require.NoError(t, err)
	assert.Equal(t, "+44 20 7946 0000", updated["phone"])

	field, err := client.Candidates.UpdateField(ctx, 5, recruitee.Params{"kind": "single_line"})
	require.NoError(t, err)
	assert.Equal(t, "single_line", field["kind"])

	placement, err := client.Placements.Create(ctx, recruitee.Params{
		"candidateId": candidateID,
		"offerId":     offerID,
	})
	require.NoError(t, err)
	placementID := recordID(t, placement)
	assert.Equal(t, candidate["id"], placement["candidate_id"])

	evaluation, err := client.Evaluations.Create(ctx, candidateID, recruitee.Params{"rating": "good"})
	require.NoError(t, err)
	assert.Equal(t, "good", evaluation["rating"])

	event, err := client.Events.Create(ctx, candidateID, recruitee.Params{"title": "Onsite"})
	require.NoError(t, err)
	scheduled, err := client.Events.Schedule(ctx, recordID(t, event), recruitee.Params{"starts_at": "2024-06-01T10:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", scheduled["status"])

	events, err := client.Events.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, err = client.Placements.Delete(ctx, placementID, nil)
	require.NoError(t, err)

	deleted, err := client.Candidates.Delete(ctx, candidateID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", deleted["name"])

	_, err = client.Candidates.Fetch(ctx, candidateID, nil)
	assert.True(t, recruitee.IsNotFound(err))
	assert.EqualError(t, err, "[HTTP 404] Not found")
}

func TestClientUploadsFilesToSandbox(t *testing.T) {
	client := newSandboxClient(t)

	candidate, err := client.Candidates.Create(context.Background(), recruitee.Params{
		"name": "Grace Hopper",
		"cv": payload.File{
			Name:        "cv.pdf",
			ContentType: "application/pdf",
			Reader:      strings.NewReader("%PDF-1.4"),
		},
	})
	require.NoError(t, err)

	cv, ok := candidate["cv"].(map[string]any)
	require.True(t, ok, "cv should describe the upload, got %#v", candidate["cv"])
	assert.Equal(t, "cv.pdf", cv["filename"])
	assert.Equal(t, "application/pdf", cv["content_type"])
	assert.Equal(t, json.Number("8"), cv["size"])
}

func TestClientSeesSandboxErrors(t *testing.T) {
	ctx := context.Background()
	client := newSandboxClient(t)

	_, err := client.Candidates.Create(ctx, recruitee.Params{"name": ""})
	assert.EqualError(t, err, "[HTTP 422] Name can't be blank")

	_, err = client.Placements.Create(ctx, recruitee.Params{"offerId": 1})
	assert.EqualError(t, err, "[HTTP 422] Candidate id can't be blank")

	bad, err := recruitee.New(testCompany, "wrong-token", recruitee.WithBaseURL(strings.TrimSuffix(client.URL(""), "/c/"+testCompany)))
	require.NoError(t, err)
	_, err = bad.Admins.List(ctx, nil)
	assert.EqualError(t, err, "[HTTP 401] Token not found.")
	assert.Equal(t, 401, recruitee.StatusCode(err))
}
