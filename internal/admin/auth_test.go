package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizer_Can(t *testing.T) {
	auth := NewAuthorizer(map[string][]string{
		"alpha": {CapabilityManageRules},
		"beta":  {"read-only"},
	})

	assert.True(t, auth.Can("alpha", CapabilityManageRules))
	assert.False(t, auth.Can("beta", CapabilityManageRules))
	assert.False(t, auth.Can("unknown", CapabilityManageRules))
	assert.False(t, auth.Can("", CapabilityManageRules))
}

func TestAuthorizer_NonceLifecycle(t *testing.T) {
	auth := NewAuthorizer(map[string][]string{"alpha": {CapabilityManageRules}})

	nonce, expires := auth.IssueNonce("alpha")
	assert.NotEmpty(t, nonce)
	assert.True(t, expires.After(time.Now()))

	assert.True(t, auth.CheckNonce("alpha", nonce))
	assert.True(t, auth.CheckNonce("alpha", nonce), "nonces stay valid for their window")
	assert.False(t, auth.CheckNonce("other", nonce), "nonces are bound to the issuing token")
	assert.False(t, auth.CheckNonce("alpha", "fabricated"))
}

func TestAuthorizer_NonceExpiry(t *testing.T) {
	auth := NewAuthorizer(map[string][]string{"alpha": {CapabilityManageRules}})

	current := time.Now()
	auth.now = func() time.Time { return current }

	nonce, _ := auth.IssueNonce("alpha")
	require.True(t, auth.CheckNonce("alpha", nonce))

	current = current.Add(nonceTTL + time.Second)
	assert.False(t, auth.CheckNonce("alpha", nonce), "expired nonces are rejected")
}

func TestAdmin_RejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/rules", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAdmin_RejectsTokenWithoutCapability(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/rules", nil)
	req.Header.Set("Authorization", "Bearer some-other-token")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_MutationRequiresNonce(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/rules/add", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "nonce")
}

func TestAdmin_NonceEndpointIssuesUsableNonce(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/admin/nonce", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Nonce     string `json:"nonce"`
			ExpiresAt string `json:"expires_at"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Data.Nonce)

	req := httptest.NewRequest(http.MethodPost, "/admin/rules/add", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set(nonceHeader, body.Data.Nonce)
	add := httptest.NewRecorder()
	ts.handler.ServeHTTP(add, req)
	assert.Equal(t, http.StatusOK, add.Code)
}
