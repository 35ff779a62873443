package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"skillgate/domain"
)

const greenhouseBaseURL = "https://harvest.greenhouse.io/v1"

type Greenhouse struct {
	cfg     domain.IntegrationConfig
	client  *http.Client
	logger  *zap.Logger
	BaseURL string
}

func NewGreenhouse(cfg domain.IntegrationConfig, client *http.Client, logger *zap.Logger) *Greenhouse {
	return &Greenhouse{cfg: cfg, client: client, logger: logger, BaseURL: greenhouseBaseURL}
}

func (g *Greenhouse) Provider() string { return domain.ProviderGreenhouse }

func (g *Greenhouse) VerifySignature(rawBody []byte, headers http.Header) bool {
	if g.cfg.SigningSecret == "" {
		return true // unconfigured integration accepts unsigned webhooks
	}
	return verifyHMAC(g.cfg.SigningSecret, rawBody, headers.Get("signature"))
}

func (g *Greenhouse) NormalizeEvent(rawBody []byte) (*domain.StageChangeEvent, error) {
	m, ok := decodeBody(rawBody)
	if !ok {
		return nil, &domain.NormalizationFailure{Provider: g.Provider(), Reason: "body is not valid JSON"}
	}

	switch firstString(m, "action") {
	case "application_updated", "candidate_stage_change", "candidate_hired":
	default:
		return nil, domain.ErrIgnoredEvent
	}

	root := any(m)
	if payload, ok := m["payload"].(map[string]any); ok {
		root = payload
	}

	stage := firstString(root,
		"application.current_stage.name",
		"application.stage.name",
		"application.stage_name",
		"current_stage.name",
	)
	if stage == "" {
		return nil, &domain.NormalizationFailure{Provider: g.Provider(), Reason: "no stage name in payload"}
	}

	email := g.candidateEmail(root)
	if email == "" {
		return nil, &domain.NormalizationFailure{Provider: g.Provider(), Reason: "no candidate email in payload"}
	}

	name := firstString(root, "candidate.name", "application.candidate.name")
	if name == "" {
		first := firstString(root, "candidate.first_name", "application.candidate.first_name")
		last := firstString(root, "candidate.last_name", "application.candidate.last_name")
		name = strings.TrimSpace(first + " " + last)
	}

	return &domain.StageChangeEvent{
		Provider:         g.Provider(),
		CandidateEmail:   email,
		CandidateName:    name,
		CandidateID:      firstString(root, "candidate.id", "application.candidate.id", "application.candidate_id"),
		JobID:            firstString(root, "application.jobs.0.id", "application.job.id", "job.id"),
		ApplicationID:    firstString(root, "application.id"),
		CurrentStageName: strings.ToLower(stage),
	}, nil
}

// candidateEmail prefers a typed personal/work address, then the first list
// entry, then a bare email field.
func (g *Greenhouse) candidateEmail(root any) string {
	for _, base := range []string{"candidate.email_addresses", "application.candidate.email_addresses"} {
		list, _ := lookupPath(root, base).([]any)
		for _, wanted := range []string{"personal", "work"} {
			for _, entry := range list {
				if firstString(entry, "type") == wanted {
					if v := firstString(entry, "value"); v != "" {
						return v
					}
				}
			}
		}
		if len(list) > 0 {
			if v := firstString(list[0], "value"); v != "" {
				return v
			}
		}
	}
	return firstString(root, "candidate.email_address", "candidate.email", "application.candidate.email")
}

func (g *Greenhouse) EnrichEvent(ctx context.Context, ev *domain.StageChangeEvent) error {
	return nil // Greenhouse webhooks carry candidate and application inline
}

type greenhouseJob struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// ListJobs returns the whole list at once; Harvest has no cursor here.
func (g *Greenhouse) ListJobs(ctx context.Context, cursor string) (*JobsPage, error) {
	var jobs []greenhouseJob
	if err := doJSON(ctx, g.client, g.cfg.APIKey, http.MethodGet, g.BaseURL+"/jobs?per_page=500", nil, &jobs); err != nil {
		return nil, tagProvider(err, g.Provider())
	}

	page := &JobsPage{}
	for _, j := range jobs {
		page.Jobs = append(page.Jobs, Job{ID: j.ID.String(), Title: j.Name})
	}
	return page, nil
}

type greenhouseCandidate struct {
	ID             json.Number `json:"id"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	EmailAddresses []struct {
		Value string `json:"value"`
		Type  string `json:"type"`
	} `json:"email_addresses"`
}

func (g *Greenhouse) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	var c greenhouseCandidate
	if err := doJSON(ctx, g.client, g.cfg.APIKey, http.MethodGet, g.BaseURL+"/candidates/"+id, nil, &c); err != nil {
		return nil, tagProvider(err, g.Provider())
	}

	email := ""
	if len(c.EmailAddresses) > 0 {
		email = c.EmailAddresses[0].Value
	}
	return &Candidate{
		ID:    c.ID.String(),
		Name:  strings.TrimSpace(c.FirstName + " " + c.LastName),
		Email: email,
	}, nil
}

// WriteNote posts to the candidate's activity feed. Harvest requires an
// On-Behalf-Of user for writes.
func (g *Greenhouse) WriteNote(ctx context.Context, targetID, text string) error {
	if g.cfg.OnBehalfOf == "" {
		return fmt.Errorf("greenhouse integration has no On-Behalf-Of user configured")
	}

	url := fmt.Sprintf("%s/candidates/%s/activity_feed/notes", g.BaseURL, targetID)
	body := map[string]any{
		"user_id":    g.cfg.OnBehalfOf,
		"body":       text,
		"visibility": "admin_only",
	}

	err := doJSON(ctx, g.client, g.cfg.APIKey, http.MethodPost, url, body, nil)
	return tagProvider(err, g.Provider())
}

func (g *Greenhouse) TestConnection(ctx context.Context) bool {
	err := doJSON(ctx, g.client, g.cfg.APIKey, http.MethodGet, g.BaseURL+"/candidates?per_page=1", nil, nil)
	if err != nil {
		g.logger.Debug("greenhouse connection test failed", zap.Error(err))
		return false
	}
	return true
}
