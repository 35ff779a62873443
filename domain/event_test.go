package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageMatches(t *testing.T) {
	cases := []struct {
		stage   string
		trigger string
		want    bool
	}{
		{"assessment", "assessment", true},
		{"Assessment", "assessment", true},
		{"ai assessment round", "assessment", true},
		{"technical assessment - part 1", "assessment", true},
		// substring matching is deliberate, so this one matches too
		{"post-assessment debrief", "assessment", true},
		{"screening", "assessment", false},
		{"offer", "assessment", false},
		{"take-home", "Take-Home", true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StageMatches(tc.stage, tc.trigger), "stage %q trigger %q", tc.stage, tc.trigger)
	}
}

func TestStageMatchesDefaultTrigger(t *testing.T) {
	assert.True(t, StageMatches("final assessment", ""))
	assert.False(t, StageMatches("screening", ""))
}

func TestNormalizationFailureError(t *testing.T) {
	f := &NormalizationFailure{Provider: ProviderLever, Reason: "no candidate email"}
	assert.Contains(t, f.Error(), "lever")
	assert.Contains(t, f.Error(), "no candidate email")
}
