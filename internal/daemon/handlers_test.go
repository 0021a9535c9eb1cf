package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegate/minegate/internal/descriptor"
	"github.com/minegate/minegate/internal/propagate"
	"github.com/minegate/minegate/internal/registry"
	"github.com/minegate/minegate/internal/service"
)

func newTestServer(t *testing.T, downstreamURL string) *httptest.Server {
	t.Helper()

	store, err := registry.NewStore(filepath.Join(t.TempDir(), "projects.json"))
	require.NoError(t, err)
	client := propagate.New(downstreamURL, time.Second)
	svc := service.New(store, client, descriptor.Defaults{ESURL: "http://elasticsearch:9200"})

	d := &Daemon{svc: svc, startTime: time.Now().UTC()}
	mux := http.NewServeMux()
	d.setupRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func acceptingDownstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/update-projects":
			w.Write([]byte(`{"message":"Projects updated successfully"}`))
		case "/health":
			w.Write([]byte(`{"status":"healthy"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterRepository_OK(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository",
		`{"kind":"repository","repository":{"title":"Demo Project","url":"https://example.com/repo.git"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[service.Result](t, resp)
	assert.Equal(t, "Repository added successfully", out.Message)
	assert.Contains(t, out.After, "demo-project")
	assert.Empty(t, out.Before)
}

func TestRegisterRegistryBatch_OK(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository",
		`{"kind":"registry","registry":{
			"alpha":{"backends":["git"],"repo_url":"https://example.com/alpha.git",
				"es_collection":{"url":"http://es:9200","raw_index":"alpha_raw","bulk_size":100,"scroll_size":100,"debug":false},
				"es_enrichment":{"enriched_index":"alpha_enriched"},
				"general":{"update_index_patterns":true}},
			"beta":{"backends":["git"],"repo_url":"https://example.com/beta.git",
				"es_collection":{"url":"http://es:9200","raw_index":"beta_raw","bulk_size":100,"scroll_size":100,"debug":false},
				"es_enrichment":{"enriched_index":"beta_enriched"},
				"general":{"update_index_patterns":true}}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[service.Result](t, resp)
	assert.Contains(t, out.After, "alpha")
	assert.Contains(t, out.After, "beta")
}

func TestRegisterRegistryBatch_AllOrNothing(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository",
		`{"kind":"registry","registry":{
			"good":{"backends":["git"],"repo_url":"https://example.com/good.git",
				"es_collection":{"url":"http://es:9200","raw_index":"good_raw","bulk_size":100,"scroll_size":100,"debug":false},
				"es_enrichment":{"enriched_index":"good_enriched"},
				"general":{"update_index_patterns":true}},
			"bad":{"backends":["git"],"repo_url":"",
				"es_collection":{"url":"http://es:9200","raw_index":"bad_raw","bulk_size":100,"scroll_size":100,"debug":false},
				"es_enrichment":{"enriched_index":"bad_enriched"},
				"general":{"update_index_patterns":true}}}}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The good entry must not have been admitted either
	listResp, err := http.Get(srv.URL + "/api/projects")
	require.NoError(t, err)
	defer listResp.Body.Close()
	out := decode[ListProjectsResponse](t, listResp)
	assert.Empty(t, out.Projects)
}

func TestRegisterRepository_InvalidJSON(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	// A bare string is not a descriptor
	resp := postJSON(t, srv.URL+"/api/repository", `"just a string"`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := decode[ErrorResponse](t, resp)
	assert.Equal(t, "invalid JSON body", out.Error)
}

func TestRegisterRepository_UnknownFieldRejected(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository",
		`{"kind":"repository","repository":{"title":"x","url":"https://example.com/x.git"},"surprise":true}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterRepository_ValidationError(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository", `{"kind":"repository"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := decode[ErrorResponse](t, resp)
	assert.Contains(t, out.Error, "invalid repository descriptor")
	assert.Nil(t, out.Before)
	assert.Nil(t, out.After)
}

func TestRegisterRepository_DownstreamUnreachable(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository",
		`{"kind":"repository","repository":{"title":"Demo Project","url":"https://example.com/repo.git"}}`)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	out := decode[ErrorResponse](t, resp)
	assert.Contains(t, out.Error, "cannot connect")
	assert.Contains(t, out.After, "demo-project", "snapshots accompany a committed merge")
}

func TestRegisterRepository_DownstreamRejected(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Invalid data format"}`))
	}))
	t.Cleanup(down.Close)
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository",
		`{"kind":"repository","repository":{"title":"Demo Project","url":"https://example.com/repo.git"}}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	out := decode[ErrorResponse](t, resp)
	assert.JSONEq(t, `{"error":"Invalid data format"}`, string(out.Details))
}

func TestRegisterRepository_MethodNotAllowed(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp, err := http.Get(srv.URL + "/api/repository")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestTestConnection(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp, err := http.Get(srv.URL + "/api/repository/test")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[service.CheckResult](t, resp)
	assert.Equal(t, down.URL, out.DownstreamURL)
	assert.Equal(t, "success", out.ConnectionStatus)
}

func TestListProjects(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp := postJSON(t, srv.URL+"/api/repository",
		`{"kind":"repository","repository":{"title":"Demo Project","url":"https://example.com/repo.git"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/api/projects")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	out := decode[ListProjectsResponse](t, listResp)
	assert.Contains(t, out.Projects, "demo-project")
}

func TestListRegistrations_NoJournal(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp, err := http.Get(srv.URL + "/api/registrations")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Registrations []json.RawMessage `json:"registrations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Registrations)
}

func TestHealth(t *testing.T) {
	down := acceptingDownstream(t)
	srv := newTestServer(t, down.URL)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Status string  `json:"status"`
		Uptime float64 `json:"uptime"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
}
