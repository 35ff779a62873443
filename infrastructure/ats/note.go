package ats

import (
	"fmt"
	"strings"

	"skillgate/domain"
)

// FormatResultNote renders the fixed summary block that Result Sync pushes
// into the ATS. Same text for every provider; only the write target differs.
func FormatResultNote(a *domain.Assessment, resultsURL string) string {
	var b strings.Builder

	b.WriteString("AI Assessment Results\n")
	if a.CandidateName != "" || a.CandidateEmail != "" {
		b.WriteString(fmt.Sprintf("Candidate: %s (%s)\n", a.CandidateName, a.CandidateEmail))
	}
	b.WriteString(fmt.Sprintf("Overall Score: %.0f/100\n", a.OverallScore))
	b.WriteString(fmt.Sprintf("  Technical: %.0f/100\n", a.TechnicalScore))
	b.WriteString(fmt.Sprintf("  Problem Solving: %.0f/100\n", a.ProblemSolvingScore))
	b.WriteString(fmt.Sprintf("  Communication: %.0f/100\n", a.CommunicationScore))
	b.WriteString(fmt.Sprintf("  Completion: %.0f/100\n", a.CompletionScore))
	if a.DurationSeconds > 0 {
		b.WriteString(fmt.Sprintf("Duration: %dm %ds\n", a.DurationSeconds/60, a.DurationSeconds%60))
	}
	if a.Summary != "" {
		b.WriteString("Summary: " + a.Summary + "\n")
	}
	if resultsURL != "" {
		b.WriteString("Full results: " + resultsURL + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
