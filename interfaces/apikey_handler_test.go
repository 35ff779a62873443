package interfaces

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgate/domain"
)

func TestAPIKeyLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	company := env.createCompany(t, nil)

	// create via dashboard mode
	w := env.do(http.MethodPost, "/v1/apikeys", map[string]any{
		"name":       "ci",
		"company_id": company.ID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	created := decodeBody(t, w)["api_key"].(map[string]any)
	plaintext := created["key"].(string)
	assert.NotEmpty(t, plaintext)

	// the plaintext key authenticates
	headers := map[string]string{"Authorization": "Bearer " + plaintext}
	w = env.do(http.MethodGet, "/v1/apikeys", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	keys := decodeBody(t, w)["api_keys"].([]any)
	require.Len(t, keys, 1)
	listed := keys[0].(map[string]any)
	// plaintext never comes back, only the display prefix
	assert.NotContains(t, listed, "key")
	assert.NotEmpty(t, listed["key_prefix"])

	// only the hash is stored
	var stored domain.ApiKey
	require.NoError(t, env.db.First(&stored).Error)
	assert.NotEqual(t, plaintext, stored.KeyHash)
	assert.Equal(t, domain.HashAPIKey(plaintext), stored.KeyHash)

	// revoke by delete; the key stops working
	w = env.do(http.MethodDelete, fmt.Sprintf("/v1/apikeys/%v", listed["id"]), nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/v1/apikeys", nil, headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyAuthUniformFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	company := env.createCompany(t, nil)
	env.createAPIKey(t, company.ID)

	// every failure mode yields the same response shape
	for name, headers := range map[string]map[string]string{
		"no header":        nil,
		"not bearer":       {"Authorization": "Basic abc"},
		"empty bearer":     {"Authorization": "Bearer "},
		"unknown key":      {"Authorization": "Bearer sk_does_not_exist"},
		"garbage encoding": {"Authorization": "Bearer \x7f\x7f"},
	} {
		w := env.do(http.MethodGet, "/v1/invitations", nil, headers)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Equal(t, "unauthorized", decodeBody(t, w)["error"], name)
	}
}

func TestDeleteAPIKeyScopedToCompany(t *testing.T) {
	env := newTestEnv(t, nil)
	company := env.createCompany(t, nil)
	other := env.createCompany(t, nil)
	key := env.createAPIKey(t, company.ID)
	env.createAPIKey(t, other.ID)

	var otherKey domain.ApiKey
	require.NoError(t, env.db.Where("company_id = ?", other.ID).First(&otherKey).Error)

	w := env.do(http.MethodDelete, fmt.Sprintf("/v1/apikeys/%d", otherKey.ID), nil,
		map[string]string{"Authorization": "Bearer " + key})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
