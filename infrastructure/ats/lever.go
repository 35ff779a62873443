package ats

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"skillgate/domain"
)

const leverBaseURL = "https://api.lever.co/v1"

type Lever struct {
	cfg     domain.IntegrationConfig
	client  *http.Client
	logger  *zap.Logger
	BaseURL string
}

func NewLever(cfg domain.IntegrationConfig, client *http.Client, logger *zap.Logger) *Lever {
	return &Lever{cfg: cfg, client: client, logger: logger, BaseURL: leverBaseURL}
}

func (l *Lever) Provider() string { return domain.ProviderLever }

// VerifySignature checks the signature Lever ships inside the body rather
// than a header: the MAC is computed over token + triggeredAt with the
// signing secret.
func (l *Lever) VerifySignature(rawBody []byte, headers http.Header) bool {
	if l.cfg.SigningSecret == "" {
		return true // unconfigured integration accepts unsigned webhooks
	}

	m, ok := decodeBody(rawBody)
	if !ok {
		return false
	}
	signature := firstString(m, "signature")
	token := firstString(m, "token")
	triggeredAt := firstString(m, "triggeredAt")
	if signature == "" || token == "" {
		return false
	}

	return verifyHMAC(l.cfg.SigningSecret, []byte(token+triggeredAt), signature)
}

func (l *Lever) NormalizeEvent(rawBody []byte) (*domain.StageChangeEvent, error) {
	m, ok := decodeBody(rawBody)
	if !ok {
		return nil, &domain.NormalizationFailure{Provider: l.Provider(), Reason: "body is not valid JSON"}
	}

	switch firstString(m, "event") {
	case "candidateStageChange":
	case "candidateHired", "candidateArchiveChange":
		return nil, domain.ErrIgnoredEvent
	default:
		return nil, domain.ErrIgnoredEvent
	}

	opportunityID := firstString(m, "data.opportunityId", "data.opportunity.id")

	// Lever stage-change webhooks are thin: often just IDs. Name and email
	// may need an EnrichEvent fetch against the opportunity.
	stage := firstString(m,
		"data.toStage.text",
		"data.toStageName",
		"data.stage.text",
	)
	email := firstString(m,
		"data.candidate.emails.0",
		"data.contact.emails.0",
		"data.candidate.email",
	)

	if email == "" && opportunityID == "" {
		return nil, &domain.NormalizationFailure{Provider: l.Provider(), Reason: "no candidate email and no opportunity id"}
	}

	return &domain.StageChangeEvent{
		Provider:         l.Provider(),
		CandidateEmail:   email,
		CandidateName:    firstString(m, "data.candidate.name", "data.contact.name"),
		CandidateID:      firstString(m, "data.candidateId", "data.candidate.id"),
		JobID:            firstString(m, "data.posting.id", "data.postingId"),
		ApplicationID:    opportunityID,
		CurrentStageName: strings.ToLower(stage),
	}, nil
}

type leverOpportunity struct {
	Data struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Emails []string `json:"emails"`
		Stage  struct {
			Text string `json:"text"`
		} `json:"stage"`
	} `json:"data"`
}

// EnrichEvent fetches the opportunity to fill in whatever the webhook left
// out. Requires an API key; without one the event stays as-is and the caller
// drops it if the email is still missing.
func (l *Lever) EnrichEvent(ctx context.Context, ev *domain.StageChangeEvent) error {
	if ev.CandidateEmail != "" && ev.CurrentStageName != "" {
		return nil
	}
	if ev.ApplicationID == "" || l.cfg.APIKey == "" {
		return nil
	}

	var opp leverOpportunity
	err := doJSON(ctx, l.client, l.cfg.APIKey, http.MethodGet, l.BaseURL+"/opportunities/"+ev.ApplicationID, nil, &opp)
	if err != nil {
		return tagProvider(err, l.Provider())
	}

	if ev.CandidateEmail == "" && len(opp.Data.Emails) > 0 {
		ev.CandidateEmail = opp.Data.Emails[0]
	}
	if ev.CandidateName == "" {
		ev.CandidateName = opp.Data.Name
	}
	if ev.CurrentStageName == "" {
		ev.CurrentStageName = strings.ToLower(opp.Data.Stage.Text)
	}
	return nil
}

type leverPostingsResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	HasNext bool   `json:"hasNext"`
	Next    string `json:"next"`
}

func (l *Lever) ListJobs(ctx context.Context, cursor string) (*JobsPage, error) {
	url := l.BaseURL + "/postings?limit=100"
	if cursor != "" {
		url += "&offset=" + cursor
	}

	var resp leverPostingsResponse
	if err := doJSON(ctx, l.client, l.cfg.APIKey, http.MethodGet, url, nil, &resp); err != nil {
		return nil, tagProvider(err, l.Provider())
	}

	page := &JobsPage{NextCursor: resp.Next, HasMore: resp.HasNext}
	for _, p := range resp.Data {
		page.Jobs = append(page.Jobs, Job{ID: p.ID, Title: p.Text})
	}
	return page, nil
}

func (l *Lever) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	var opp leverOpportunity
	if err := doJSON(ctx, l.client, l.cfg.APIKey, http.MethodGet, l.BaseURL+"/opportunities/"+id, nil, &opp); err != nil {
		return nil, tagProvider(err, l.Provider())
	}

	email := ""
	if len(opp.Data.Emails) > 0 {
		email = opp.Data.Emails[0]
	}
	return &Candidate{ID: opp.Data.ID, Name: opp.Data.Name, Email: email}, nil
}

// WriteNote attaches the results block to the opportunity.
func (l *Lever) WriteNote(ctx context.Context, targetID, text string) error {
	url := fmt.Sprintf("%s/opportunities/%s/notes", l.BaseURL, targetID)
	err := doJSON(ctx, l.client, l.cfg.APIKey, http.MethodPost, url, map[string]any{"value": text}, nil)
	return tagProvider(err, l.Provider())
}

func (l *Lever) TestConnection(ctx context.Context) bool {
	err := doJSON(ctx, l.client, l.cfg.APIKey, http.MethodGet, l.BaseURL+"/stages?limit=1", nil, nil)
	if err != nil {
		l.logger.Debug("lever connection test failed", zap.Error(err))
		return false
	}
	return true
}
