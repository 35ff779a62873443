package ats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skillgate/domain"
)

func TestAshbyListJobsCursorPagination(t *testing.T) {
	var sawCursor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// every Ashby endpoint is a POST
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/job.list", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ashby-key", user)
		assert.Equal(t, "", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sawCursor, _ = body["cursor"].(string)

		if sawCursor == "" {
			w.Write([]byte(`{"success":true,"results":[{"id":"j1","title":"Backend"}],"moreDataAvailable":true,"nextCursor":"c2"}`))
			return
		}
		w.Write([]byte(`{"success":true,"results":[{"id":"j2","title":"Frontend"}],"moreDataAvailable":false}`))
	}))
	defer srv.Close()

	a := NewAshby(domain.IntegrationConfig{Provider: domain.ProviderAshby, APIKey: "ashby-key"}, srv.Client(), zap.NewNop())
	a.BaseURL = srv.URL

	page, err := a.ListJobs(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, "Backend", page.Jobs[0].Title)
	assert.True(t, page.HasMore)
	assert.Equal(t, "c2", page.NextCursor)

	page, err = a.ListJobs(context.Background(), page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "c2", sawCursor)
	assert.False(t, page.HasMore)
}

func TestAshbyWriteNote(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidate.createNote", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	a := NewAshby(domain.IntegrationConfig{Provider: domain.ProviderAshby, APIKey: "k"}, srv.Client(), zap.NewNop())
	a.BaseURL = srv.URL

	require.NoError(t, a.WriteNote(context.Background(), "cand-1", "Overall Score: 82/100"))
	assert.Equal(t, "cand-1", got["candidateId"])
	note := got["note"].(map[string]any)
	assert.Equal(t, "Overall Score: 82/100", note["value"])
	assert.Equal(t, "text/plain", note["type"])
}

func TestGreenhouseGetCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidates/9001", r.URL.Path)
		w.Write([]byte(`{"id":9001,"first_name":"Grace","last_name":"Hopper","email_addresses":[{"value":"grace@example.com","type":"personal"}]}`))
	}))
	defer srv.Close()

	g := NewGreenhouse(domain.IntegrationConfig{Provider: domain.ProviderGreenhouse, APIKey: "k"}, srv.Client(), zap.NewNop())
	g.BaseURL = srv.URL

	c, err := g.GetCandidate(context.Background(), "9001")
	require.NoError(t, err)
	assert.Equal(t, "9001", c.ID)
	assert.Equal(t, "Grace Hopper", c.Name)
	assert.Equal(t, "grace@example.com", c.Email)
}

func TestAshbyGetCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidate.info", r.URL.Path)
		w.Write([]byte(`{"success":true,"results":{"id":"cand-1","name":"Ada Lovelace","primaryEmailAddress":{"value":"ada@example.com"}}}`))
	}))
	defer srv.Close()

	a := NewAshby(domain.IntegrationConfig{Provider: domain.ProviderAshby, APIKey: "k"}, srv.Client(), zap.NewNop())
	a.BaseURL = srv.URL

	c, err := a.GetCandidate(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "ada@example.com", c.Email)
}

func TestGreenhouseWriteNoteVisibility(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/candidates/9001/activity_feed/notes", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	g := NewGreenhouse(domain.IntegrationConfig{
		Provider:   domain.ProviderGreenhouse,
		APIKey:     "gh-key",
		OnBehalfOf: "555",
	}, srv.Client(), zap.NewNop())
	g.BaseURL = srv.URL

	require.NoError(t, g.WriteNote(context.Background(), "9001", "results"))
	assert.Equal(t, "555", got["user_id"])
	assert.Equal(t, "admin_only", got["visibility"])
	assert.Equal(t, "results", got["body"])
}

func TestGreenhouseWriteNoteRequiresOnBehalfOf(t *testing.T) {
	g := NewGreenhouse(domain.IntegrationConfig{Provider: domain.ProviderGreenhouse, APIKey: "k"}, http.DefaultClient, zap.NewNop())
	err := g.WriteNote(context.Background(), "1", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "On-Behalf-Of")
}

func TestLeverListJobsOffsetPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/postings", r.URL.Path)
		if r.URL.Query().Get("offset") == "" {
			w.Write([]byte(`{"data":[{"id":"p1","text":"Backend"}],"hasNext":true,"next":"off2"}`))
			return
		}
		assert.Equal(t, "off2", r.URL.Query().Get("offset"))
		w.Write([]byte(`{"data":[{"id":"p2","text":"Frontend"}],"hasNext":false}`))
	}))
	defer srv.Close()

	l := NewLever(domain.IntegrationConfig{Provider: domain.ProviderLever, APIKey: "k"}, srv.Client(), zap.NewNop())
	l.BaseURL = srv.URL

	page, err := l.ListJobs(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, page.HasMore)

	page, err = l.ListJobs(context.Background(), page.NextCursor)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Equal(t, "Frontend", page.Jobs[0].Title)
}

func TestLeverEnrichEventFetchesOpportunity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/opportunities/opp-2", r.URL.Path)
		w.Write([]byte(`{"data":{"id":"opp-2","name":"Alan Turing","emails":["alan@example.com"],"stage":{"text":"Technical Assessment"}}}`))
	}))
	defer srv.Close()

	l := NewLever(domain.IntegrationConfig{Provider: domain.ProviderLever, APIKey: "k"}, srv.Client(), zap.NewNop())
	l.BaseURL = srv.URL

	ev := &domain.StageChangeEvent{Provider: domain.ProviderLever, ApplicationID: "opp-2"}
	require.NoError(t, l.EnrichEvent(context.Background(), ev))

	assert.Equal(t, "alan@example.com", ev.CandidateEmail)
	assert.Equal(t, "Alan Turing", ev.CandidateName)
	assert.Equal(t, "technical assessment", ev.CurrentStageName)
}

func TestLeverEnrichEventSkippedWithoutKey(t *testing.T) {
	l := NewLever(domain.IntegrationConfig{Provider: domain.ProviderLever}, http.DefaultClient, zap.NewNop())
	ev := &domain.StageChangeEvent{Provider: domain.ProviderLever, ApplicationID: "opp-1"}
	require.NoError(t, l.EnrichEvent(context.Background(), ev))
	assert.Empty(t, ev.CandidateEmail)
}

func TestProviderErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	l := NewLever(domain.IntegrationConfig{Provider: domain.ProviderLever, APIKey: "bad"}, srv.Client(), zap.NewNop())
	l.BaseURL = srv.URL

	err := l.WriteNote(context.Background(), "opp-1", "text")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ProviderLever, pe.Provider)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Contains(t, pe.Body, "bad key")
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	l := NewLever(domain.IntegrationConfig{Provider: domain.ProviderLever, APIKey: "k"}, srv.Client(), zap.NewNop())
	l.BaseURL = srv.URL
	assert.True(t, l.TestConnection(context.Background()))

	down := NewLever(domain.IntegrationConfig{Provider: domain.ProviderLever, APIKey: "k"}, srv.Client(), zap.NewNop())
	down.BaseURL = "http://127.0.0.1:1"
	assert.False(t, down.TestConnection(context.Background()))
}

func TestFactoryResolvesProviders(t *testing.T) {
	f := NewFactory(zap.NewNop())

	for _, p := range []string{domain.ProviderAshby, domain.ProviderGreenhouse, domain.ProviderLever} {
		adapter, err := f.ForProvider(domain.IntegrationConfig{Provider: p})
		require.NoError(t, err)
		assert.Equal(t, p, adapter.Provider())
	}

	_, err := f.ForProvider(domain.IntegrationConfig{Provider: "workday"})
	assert.Error(t, err)
}
