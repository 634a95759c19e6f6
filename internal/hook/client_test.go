package hook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestRunClientPostsExpectedBody(t *testing.T) {
	var gotReq UpdateRequest
	var gotPort string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	gotPort = strings.TrimPrefix(srv.URL, "http://127.0.0.1:")

	env := envMap(map[string]string{
		"JOSH_USERNAME": "alice",
		"JOSH_PASSWORD": "secret",
		"JOSH_REMOTE":   "https://upstream.example/repo.git",
		"JOSH_BASE_NS":  "refs/namespaces/base",
		"JOSH_VIEWSTR":  ":/a",
		"GIT_NAMESPACE": "refs/namespaces/req",
		"GIT_DIR":       "/var/josh/repo.git",
		"JOSH_PORT":     gotPort,
	})

	var stdout, stderr bytes.Buffer
	code := RunClient([]string{"refs/heads/master", "old", "new"}, env, &stdout, &stderr)
	require.Equal(t, 0, code)
	require.Equal(t, "refs/heads/master", gotReq.Refname)
	require.Equal(t, "alice", gotReq.Username)
	require.Equal(t, ":/a", gotReq.FilterSpec)
	require.Equal(t, "ok", stdout.String())
}

func TestRunClientNonSuccessStatusExitsNonZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	port := strings.TrimPrefix(srv.URL, "http://127.0.0.1:")

	env := envMap(map[string]string{"JOSH_PORT": port})
	var stdout, stderr bytes.Buffer
	code := RunClient([]string{"refs/heads/master", "old", "new"}, env, &stdout, &stderr)
	require.Equal(t, 1, code)
}

func TestRunClientRejectsMissingArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunClient([]string{"only-one"}, envMap(nil), &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "expected")
}
