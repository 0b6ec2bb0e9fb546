package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appevents "conceptgraph-backend/application/events"
	"conceptgraph-backend/application/ports"
	"conceptgraph-backend/application/services"
	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/infrastructure/acl"
	"conceptgraph-backend/infrastructure/config"
	"conceptgraph-backend/infrastructure/expansion"
	"conceptgraph-backend/interfaces/http/rest"
	"conceptgraph-backend/pkg/common"
	"conceptgraph-backend/pkg/observability"
)

// newTestAPI stands up the full REST stack against a stub oracle
func newTestAPI(t *testing.T, oracle http.HandlerFunc) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	oracleServer := httptest.NewServer(oracle)
	t.Cleanup(oracleServer.Close)

	watcher, err := config.NewWatcher("", logger)
	require.NoError(t, err)
	t.Cleanup(watcher.Stop)

	expander := expansion.NewHTTPClient(oracleServer.URL, 5*time.Second, logger)
	service := services.NewExplorationService(
		expander,
		acl.NewExpansionTranslator(logger),
		appevents.NewDispatcher(logger),
		watcher,
		observability.NewMetrics(prometheus.NewRegistry()),
		logger,
	)

	cfg := &config.Config{
		Environment:    "test",
		OracleProvider: config.ProviderHTTP,
		EnableMetrics:  false,
		EnableCORS:     false,
	}
	router := rest.NewRouter(cfg, service, nil, prometheus.NewRegistry(), logger)

	api := httptest.NewServer(router.Setup())
	t.Cleanup(api.Close)
	return api
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, common.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope common.APIResponse
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	}
	return resp, envelope
}

func decodeData(t *testing.T, envelope common.APIResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func bootstrapPayload() map[string]interface{} {
	return map[string]interface{}{
		"anchorContext": "bioelectric signaling drives planarian regeneration",
		"depth":         -1,
		"nodes": []map[string]interface{}{
			{"id": "bioelectric_signaling", "label": "Bioelectric Signaling", "type": "concept", "isDirectMatch": true},
			{"id": "gap_junction", "label": "Gap Junction", "type": "molecule"},
		},
		"edges": []map[string]interface{}{
			{"from": "bioelectric_signaling", "to": "gap_junction", "relationship": "interacts_with"},
		},
		"matchedEntities": []string{"bioelectric_signaling"},
	}
}

type sessionData struct {
	SessionID  string                `json:"sessionId"`
	Projection aggregates.Projection `json:"projection"`
}

func TestSessionFlow(t *testing.T) {
	oracle := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ports.ExpansionResponse{
			RelatedConcepts: []ports.RelatedConcept{{
				Name: "Innexin", Type: "gene", Relationship: "required_for",
			}},
			SupportingEvidence: []ports.SupportingEvidence{{
				Finding: "Innexin knockdown blocks regeneration", PaperID: "p7",
			}},
		})
	}
	api := newTestAPI(t, oracle)

	// Bootstrap
	resp, envelope := doJSON(t, http.MethodPost, api.URL+"/api/v1/sessions", bootstrapPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created sessionData
	decodeData(t, envelope, &created)
	require.NotEmpty(t, created.SessionID)
	assert.Len(t, created.Projection.VisibleNodes, 2)
	assert.Equal(t, []string{"bioelectric_signaling"}, created.Projection.SeedIDs)

	base := fmt.Sprintf("%s/api/v1/sessions/%s", api.URL, created.SessionID)

	// Expand a node through the stub oracle
	resp, envelope = doJSON(t, http.MethodPost, base+"/nodes/gap_junction/expand", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var projection aggregates.Projection
	decodeData(t, envelope, &projection)
	assert.Len(t, projection.VisibleNodes, 4)
	assert.Len(t, projection.VisibleEdges, 3)

	// Re-expanding the same node is a no-op acknowledgement
	resp, envelope = doJSON(t, http.MethodPost, base+"/nodes/gap_junction/expand", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, envelope, &projection)
	assert.Len(t, projection.VisibleNodes, 4)

	// Tighten the depth threshold
	resp, envelope = doJSON(t, http.MethodPut, base+"/depth", map[string]int{"depth": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, envelope, &projection)
	assert.Equal(t, 2, projection.HiddenCount)

	// Inspect a node
	resp, envelope = doJSON(t, http.MethodPut, base+"/selection", map[string]string{"nodeId": "gap_junction"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view services.SelectionView
	decodeData(t, envelope, &view)
	require.NotNil(t, view.Node)
	assert.Equal(t, "Gap Junction", view.Node.Label)
	assert.False(t, view.Node.CanExpand)

	// Fetch the current graph
	resp, envelope = doJSON(t, http.MethodGet, base+"/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Teardown
	resp, _ = doJSON(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, base+"/graph", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionFlow_OracleFailureKeepsNodeRetryable(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oracle down", http.StatusInternalServerError)
	})

	resp, envelope := doJSON(t, http.MethodPost, api.URL+"/api/v1/sessions", bootstrapPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created sessionData
	decodeData(t, envelope, &created)

	base := fmt.Sprintf("%s/api/v1/sessions/%s", api.URL, created.SessionID)

	resp, envelope = doJSON(t, http.MethodPost, base+"/nodes/gap_junction/expand", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.NotNil(t, envelope.Error)

	// The failed node rolled back to collapsed and can be retried.
	resp, envelope = doJSON(t, http.MethodPut, base+"/selection", map[string]string{"nodeId": "gap_junction"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view services.SelectionView
	decodeData(t, envelope, &view)
	require.NotNil(t, view.Node)
	assert.True(t, view.Node.CanExpand)
	assert.NotEmpty(t, view.Node.LastError)
}

func TestSessionFlow_ValidationErrors(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ports.ExpansionResponse{})
	})

	// Missing nodes
	resp, _ := doJSON(t, http.MethodPost, api.URL+"/api/v1/sessions", map[string]interface{}{
		"anchorContext": "a claim",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unsupported depth
	payload := bootstrapPayload()
	payload["depth"] = 9
	resp, _ = doJSON(t, http.MethodPost, api.URL+"/api/v1/sessions", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed session id
	resp, _ = doJSON(t, http.MethodGet, api.URL+"/api/v1/sessions/not-a-uuid/graph", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
