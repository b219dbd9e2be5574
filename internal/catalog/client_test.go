package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/httputil"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		BaseURL: server.URL,
		Tokens:  httputil.StaticToken("bearer-token"),
		Logger:  logger.NewNop(),
	})
	require.NoError(t, err)
	return client, server
}

func TestGetPropertyDecodesPermissions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mw/properties/prop1", r.URL.Path)
		assert.Equal(t, "Bearer bearer-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "prop1",
			"name": "Demo Property",
			"tenant_id": "iten1",
			"permissions": {"behavior": "show_purchase", "authorized": true}
		}`))
	})

	prop, err := client.GetProperty(context.Background(), "prop1")
	require.NoError(t, err)
	assert.Equal(t, "Demo Property", prop.Name)
	require.NotNil(t, prop.Permissions)
	require.NotNil(t, prop.Permissions.Behavior)
	assert.Equal(t, BehaviorShowPurchase, *prop.Permissions.Behavior)
	require.NotNil(t, prop.Permissions.Authorized)
	assert.True(t, *prop.Permissions.Authorized)
}

func TestBehaviorRejectsUnknownString(t *testing.T) {
	var settings PermissionSettings
	err := json.Unmarshal([]byte(`{"behavior":"mystery"}`), &settings)
	require.Error(t, err)
}

func TestErrorsArrayOnSuccessStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// HTTP 200 with a populated errors array is still a failure.
		w.Write([]byte(`{"errors":[{"reason":"property not visible"}]}`))
	})

	_, err := client.GetProperty(context.Background(), "prop1")
	apiErr, ok := errs.AsAPIError(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Contains(t, apiErr.Reasons, "property not visible")
}

func TestUnauthorizedCarriesStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"reason":"token expired"}]}`))
	})

	_, err := client.GetProperty(context.Background(), "prop1")
	apiErr, ok := errs.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.True(t, apiErr.RequiresSignOut())
}

func TestGetSectionsBatchedRequest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mw/properties/prop1/sections", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("resolve_subsections"))

		var body struct {
			SectionIDs []string `json:"section_ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"sec1", "sec2"}, body.SectionIDs)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"contents":[{"id":"sec1","type":"manual"},{"id":"sec2","type":"automatic"}]}`))
	})

	sections, err := client.GetSections(context.Background(), "prop1", []string{"sec1", "sec2"}, true)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "sec1", sections[0].ID)
}

func TestBadInputValidation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request should be issued for bad input")
	})

	var badInput *errs.BadInputError
	_, err := client.GetProperty(context.Background(), "")
	require.ErrorAs(t, err, &badInput)
	_, err = client.GetSections(context.Background(), "prop1", nil, false)
	require.ErrorAs(t, err, &badInput)
	_, err = client.GetMediaItems(context.Background(), "", []string{"m1"})
	require.ErrorAs(t, err, &badInput)
}

func TestParseNFTListDropsInvalidEntries(t *testing.T) {
	raw := json.RawMessage(`[
		{"contract_addr":"0xabc","token_id":"1","name":"ok"},
		{"token_id":"2","name":"missing contract"},
		{"contract_addr":"0xdef","name":"no token id"}
	]`)
	models := ParseNFTList(raw, logger.NewNop())
	require.Len(t, models, 2)
	assert.Equal(t, "0xabc:1", models[0].Key())
	assert.Equal(t, "0xdef", models[1].Key())
}
