package ats

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"skillgate/domain"
)

const ashbyBaseURL = "https://api.ashbyhq.com"

// Ashby's API is RPC-shaped: every endpoint is a POST with a JSON body, and
// responses wrap payloads in {success, results}.
type Ashby struct {
	cfg     domain.IntegrationConfig
	client  *http.Client
	logger  *zap.Logger
	BaseURL string
}

func NewAshby(cfg domain.IntegrationConfig, client *http.Client, logger *zap.Logger) *Ashby {
	return &Ashby{cfg: cfg, client: client, logger: logger, BaseURL: ashbyBaseURL}
}

func (a *Ashby) Provider() string { return domain.ProviderAshby }

func (a *Ashby) VerifySignature(rawBody []byte, headers http.Header) bool {
	if a.cfg.SigningSecret == "" {
		return true // unconfigured integration accepts unsigned webhooks
	}
	sig := headers.Get("x-ashby-signature")
	if sig == "" {
		sig = headers.Get("signature")
	}
	return verifyHMAC(a.cfg.SigningSecret, rawBody, sig)
}

func (a *Ashby) NormalizeEvent(rawBody []byte) (*domain.StageChangeEvent, error) {
	m, ok := decodeBody(rawBody)
	if !ok {
		return nil, &domain.NormalizationFailure{Provider: a.Provider(), Reason: "body is not valid JSON"}
	}

	eventType := firstString(m, "eventType", "type", "action", "event")
	if eventType == "" {
		return nil, &domain.NormalizationFailure{Provider: a.Provider(), Reason: "missing event type"}
	}
	lower := strings.ToLower(eventType)
	if !strings.Contains(lower, "stagechange") && !strings.Contains(lower, "stage_change") {
		return nil, domain.ErrIgnoredEvent
	}

	// Newer webhook versions nest the payload under data.
	root := any(m)
	if data, ok := m["data"].(map[string]any); ok {
		root = data
	}

	stage := firstString(root,
		"application.currentInterviewStage.name",
		"application.interviewStage.name",
		"application.stage.title",
		"application.stageName",
	)
	if stage == "" {
		return nil, &domain.NormalizationFailure{Provider: a.Provider(), Reason: "no stage name in payload"}
	}

	email := firstString(root,
		"application.candidate.primaryEmailAddress.value",
		"candidate.primaryEmailAddress.value",
		"application.candidate.emailAddresses.0.value",
		"candidate.emailAddresses.0.value",
		"application.candidate.email",
		"candidate.email",
	)
	if email == "" {
		return nil, &domain.NormalizationFailure{Provider: a.Provider(), Reason: "no candidate email in payload"}
	}

	return &domain.StageChangeEvent{
		Provider:         a.Provider(),
		CandidateEmail:   email,
		CandidateName:    firstString(root, "application.candidate.name", "candidate.name"),
		CandidateID:      firstString(root, "application.candidate.id", "candidate.id"),
		JobID:            firstString(root, "application.job.id", "application.jobId", "job.id"),
		ApplicationID:    firstString(root, "application.id", "applicationId"),
		CurrentStageName: strings.ToLower(stage),
	}, nil
}

func (a *Ashby) EnrichEvent(ctx context.Context, ev *domain.StageChangeEvent) error {
	return nil // Ashby webhooks carry the full application payload
}

type ashbyJobsResponse struct {
	Success           bool   `json:"success"`
	MoreDataAvailable bool   `json:"moreDataAvailable"`
	NextCursor        string `json:"nextCursor"`
	Results           []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"results"`
}

func (a *Ashby) ListJobs(ctx context.Context, cursor string) (*JobsPage, error) {
	body := map[string]any{}
	if cursor != "" {
		body["cursor"] = cursor
	}

	var resp ashbyJobsResponse
	if err := doJSON(ctx, a.client, a.cfg.APIKey, http.MethodPost, a.BaseURL+"/job.list", body, &resp); err != nil {
		return nil, tagProvider(err, a.Provider())
	}

	page := &JobsPage{NextCursor: resp.NextCursor, HasMore: resp.MoreDataAvailable}
	for _, j := range resp.Results {
		page.Jobs = append(page.Jobs, Job{ID: j.ID, Title: j.Title})
	}
	return page, nil
}

type ashbyCandidateResponse struct {
	Success bool `json:"success"`
	Results struct {
		ID                  string `json:"id"`
		Name                string `json:"name"`
		PrimaryEmailAddress struct {
			Value string `json:"value"`
		} `json:"primaryEmailAddress"`
	} `json:"results"`
}

func (a *Ashby) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	var resp ashbyCandidateResponse
	err := doJSON(ctx, a.client, a.cfg.APIKey, http.MethodPost, a.BaseURL+"/candidate.info",
		map[string]any{"id": id}, &resp)
	if err != nil {
		return nil, tagProvider(err, a.Provider())
	}
	return &Candidate{
		ID:    resp.Results.ID,
		Name:  resp.Results.Name,
		Email: resp.Results.PrimaryEmailAddress.Value,
	}, nil
}

// WriteNote attaches the results block to the candidate record.
func (a *Ashby) WriteNote(ctx context.Context, targetID, text string) error {
	body := map[string]any{
		"candidateId": targetID,
		"note": map[string]any{
			"value": text,
			"type":  "text/plain",
		},
	}
	err := doJSON(ctx, a.client, a.cfg.APIKey, http.MethodPost, a.BaseURL+"/candidate.createNote", body, nil)
	return tagProvider(err, a.Provider())
}

func (a *Ashby) TestConnection(ctx context.Context) bool {
	err := doJSON(ctx, a.client, a.cfg.APIKey, http.MethodPost, a.BaseURL+"/apiKey.info", map[string]any{}, nil)
	if err != nil {
		a.logger.Debug("ashby connection test failed", zap.Error(err))
		return false
	}
	return true
}
