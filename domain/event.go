package domain

import (
	"errors"
	"fmt"
	"strings"
)

// StageChangeEvent is the canonical, provider-agnostic view of a webhook.
// It is produced by an adapter's normalizer, consumed immediately, never stored.
type StageChangeEvent struct {
	Provider         string
	CandidateEmail   string
	CandidateName    string
	CandidateID      string
	JobID            string
	ApplicationID    string
	CurrentStageName string // lower-cased for matching
}

// ErrIgnoredEvent marks webhook types we deliberately do not handle
// (hires, archives, comment events). The handler logs and answers 200.
var ErrIgnoredEvent = errors.New("event type not handled")

// NormalizationFailure means the payload could not be mapped to a canonical
// event. It is a value to log and drop, never a reason to fail the webhook.
type NormalizationFailure struct {
	Provider string
	Reason   string
}

func (f *NormalizationFailure) Error() string {
	return fmt.Sprintf("%s payload not normalizable: %s", f.Provider, f.Reason)
}

// StageMatches reports whether a stage name should trigger an invitation.
// Matching is case-insensitive substring containment: companies name stages
// inconsistently ("Assessment", "AI Assessment Round", "Technical
// Assessment, Part 1"), so exact matching would miss legitimate variants. The flip side
// is that "Post-Assessment Debrief" also matches; that is accepted behavior.
func StageMatches(stageName, triggerStage string) bool {
	if triggerStage == "" {
		triggerStage = DefaultTriggerStage
	}
	return strings.Contains(strings.ToLower(stageName), strings.ToLower(triggerStage))
}
