package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalboard/signalboard-backend/store"
)

// newTestRouter builds the real router backed by a fresh store and a stub
// allow-list service returning the given addresses.
func newTestRouter(t *testing.T, allowed ...string) http.Handler {
	t.Helper()

	body, err := json.Marshal(allowed)
	require.NoError(t, err)

	allowlistServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(allowlistServer.Close)

	cfg := map[string]string{"ALLOWLIST_URL": allowlistServer.URL}
	return newRouter(store.New(), withConfig(cfg), withStartupTime(time.Now()))
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func createProject(t *testing.T, router http.Handler, name, owner string) string {
	t.Helper()

	rec, body := doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"name":  name,
		"owner": owner,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "create project: %v", body)
	return body["id"].(string)
}

func TestCreateSignalAccumulateFlow(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xa")

	rec, body := doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"name":  "Foo",
		"owner": "0xValidAddr",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(0), body["supportCount"])
	assert.Equal(t, float64(0), body["totalSignal"])
	projectID := body["id"].(string)

	rec, body = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xA",
		"amount":  5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := body["project"].(map[string]any)
	assert.Equal(t, float64(1), project["supportCount"])
	assert.Equal(t, float64(5), project["totalSignal"])

	rec, body = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xA",
		"amount":  3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	signal := body["signal"].(map[string]any)
	project = body["project"].(map[string]any)
	assert.Equal(t, float64(8), signal["amount"])
	assert.Equal(t, float64(1), project["supportCount"])
	assert.Equal(t, float64(8), project["totalSignal"])

	// Still exactly one signal record.
	rec, body = doJSON(t, router, http.MethodGet, "/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["recentSupporters"].([]any), 1)
}

func TestSignalAmountClamped(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xb")
	projectID := createProject(t, router, "Foo", "0xValidAddr")

	rec, body := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xB",
		"amount":  200,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	signal := body["signal"].(map[string]any)
	assert.Equal(t, float64(100), signal["amount"])
}

func TestSignalAmountStringAndAbsent(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xa", "0xb")
	projectID := createProject(t, router, "Foo", "0xValidAddr")

	// Numeric string amounts are tolerated.
	rec, body := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xA",
		"amount":  "7",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(7), body["signal"].(map[string]any)["amount"])

	// Absent amount defaults to 1.
	rec, body = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xB",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), body["signal"].(map[string]any)["amount"])
}

func TestDeleteOwnership(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr")
	projectID := createProject(t, router, "Foo", "0xValidAddr")

	rec, _ := doJSON(t, router, http.MethodDelete, "/projects/"+projectID, map[string]any{
		"owner": "0xWrongOwner",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := doJSON(t, router, http.MethodDelete, "/projects/"+projectID, map[string]any{
		"owner": "0xValidAddr",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, projectID, body["deleted"])

	rec, _ = doJSON(t, router, http.MethodGet, "/projects/"+projectID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSortBySupportWithLimit(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xa", "0xb", "0xc", "0xd", "0xe")

	low := createProject(t, router, "Low", "0xValidAddr")
	high := createProject(t, router, "High", "0xValidAddr")
	mid := createProject(t, router, "Mid", "0xValidAddr")

	signal := func(projectID string, addresses ...string) {
		for _, addr := range addresses {
			rec, _ := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
				"address": addr,
			})
			require.Equal(t, http.StatusCreated, rec.Code)
		}
	}
	signal(low, "0xa")
	signal(high, "0xa", "0xb", "0xc", "0xd", "0xe")
	signal(mid, "0xa", "0xb")

	rec, body := doJSON(t, router, http.MethodGet, "/projects?sort=support&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	projects := body["projects"].([]any)
	require.Len(t, projects, 1)
	assert.Equal(t, "High", projects[0].(map[string]any)["name"])
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(1), body["limit"])
}

func TestListPaginationContract(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr")
	for i := 0; i < 5; i++ {
		createProject(t, router, fmt.Sprintf("p%d", i), "0xValidAddr")
	}

	rec, body := doJSON(t, router, http.MethodGet, "/projects?offset=3&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	total := int(body["total"].(float64))
	offset := int(body["offset"].(float64))
	returned := len(body["projects"].([]any))
	assert.LessOrEqual(t, offset+returned, total)
	assert.LessOrEqual(t, returned, 10)
}

func TestCreateRejectedWhenNotAllowListed(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr")

	rec, _ := doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"name":  "Foo",
		"owner": "0xNotOnTheList",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateValidation(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xa")

	// Missing name.
	rec, _ := doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"owner": "0xValidAddr",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Owner without the 0x prefix fails address validation. The gate passes
	// (the candidate is on the allow-list by the fallback fields) before the
	// handler rejects the syntax, so seed it on the list.
	router = newTestRouter(t, "notanaddress")
	rec, _ = doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"name":  "Foo",
		"owner": "notanaddress",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGateRequiresAddress(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr")

	rec, body := doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"name": "Foo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "address required", body["error"])
}

func TestGateFallbackFields(t *testing.T) {
	router := newTestRouter(t, "0xCreator")

	// No owner field, but "creator" is checked as a fallback; the gate
	// passes and the handler then rejects the incomplete payload.
	rec, _ := doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"name":    "Foo",
		"creator": "0xCreator",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProject(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xb")
	projectID := createProject(t, router, "Foo", "0xValidAddr")

	rec, body := doJSON(t, router, http.MethodPut, "/projects/"+projectID, map[string]any{
		"owner":       "0xValidAddr",
		"description": "now with docs",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "now with docs", body["description"])
	assert.Equal(t, "Foo", body["name"])

	// Allow-listed but wrong owner: the store rejects the mismatch.
	rec, _ = doJSON(t, router, http.MethodPut, "/projects/"+projectID, map[string]any{
		"owner": "0xb",
		"name":  "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPut, "/projects/no-such-id", map[string]any{
		"owner": "0xValidAddr",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveSignalEndpoint(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xa")
	projectID := createProject(t, router, "Foo", "0xValidAddr")

	rec, _ := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xA",
		"amount":  5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, router, http.MethodDelete, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xA",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["removed"])

	// No live signal left for that pair.
	rec, _ = doJSON(t, router, http.MethodDelete, "/projects/"+projectID+"/signal", map[string]any{
		"address": "0xA",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = doJSON(t, router, http.MethodGet, "/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["supportCount"])
	assert.Equal(t, float64(0), body["totalSignal"])
}

func TestSupporterEndpoint(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr", "0xa")
	alpha := createProject(t, router, "Alpha", "0xValidAddr")
	beta := createProject(t, router, "Beta", "0xValidAddr")

	for _, projectID := range []string{alpha, beta} {
		rec, _ := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/signal", map[string]any{
			"address": "0xA",
			"amount":  4,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, body := doJSON(t, router, http.MethodGet, "/supporters/0xA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xa", body["address"])
	assert.Equal(t, float64(2), body["projects"])
	assert.Equal(t, float64(8), body["totalAmount"])
	assert.Len(t, body["signals"].([]any), 2)

	rec, _ = doJSON(t, router, http.MethodGet, "/supporters/notanaddress", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr")
	createProject(t, router, "Lending Pool", "0xValidAddr")
	createProject(t, router, "Art Drop", "0xValidAddr")

	// One-character queries always fail validation.
	rec, _ := doJSON(t, router, http.MethodGet, "/search?q=l", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := doJSON(t, router, http.MethodGet, "/search?q=lending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	projects := body["projects"].([]any)
	require.Len(t, projects, 1)
	assert.Equal(t, "Lending Pool", projects[0].(map[string]any)["name"])
}

func TestDiscoveryAndMetaEndpoints(t *testing.T) {
	router := newTestRouter(t, "0xValidAddr")
	createProject(t, router, "Foo", "0xValidAddr")

	rec, body := doJSON(t, router, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["categories"].([]any), 7)

	rec, body = doJSON(t, router, http.MethodGet, "/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body["tags"])

	rec, body = doJSON(t, router, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["projects"])

	rec, body = doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = doJSON(t, router, http.MethodGet, "/agent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["endpoints"])

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	landing := httptest.NewRecorder()
	router.ServeHTTP(landing, req)
	require.Equal(t, http.StatusOK, landing.Code)
	assert.Contains(t, landing.Header().Get("Content-Type"), "text/html")
}
