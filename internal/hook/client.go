package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RunClient implements the hook-binary side of §4.8: it is invoked as
// "update" (a symlink to the josh-proxy binary) by git's post-receive
// hook, with refname/old/new as positional arguments and the JOSH_*/
// GIT_* context in the environment. It bundles that context as JSON and
// POSTs it to the running proxy's /repo_update endpoint, returning the
// process exit code the hook should use.
func RunClient(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	if len(args) < 3 {
		fmt.Fprintln(stderr, "update hook: expected refname old new arguments")
		return 1
	}

	req := UpdateRequest{
		Refname:      args[0],
		Old:          args[1],
		New:          args[2],
		Username:     getenv("JOSH_USERNAME"),
		Password:     getenv("JOSH_PASSWORD"),
		RemoteURL:    getenv("JOSH_REMOTE"),
		BaseNS:       getenv("JOSH_BASE_NS"),
		FilterSpec:   getenv("JOSH_VIEWSTR"),
		GitNamespace: getenv("GIT_NAMESPACE"),
		GitDir:       getenv("GIT_DIR"),
	}

	port := getenv("JOSH_PORT")
	if port == "" {
		port = "8000"
	}

	body, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintln(stderr, "update hook: encode request:", err)
		return 1
	}

	url := fmt.Sprintf("http://localhost:%s/repo_update", port)
	// the hook-to-server POST has no timeout: the server-side push may
	// block on a slow upstream for as long as that upstream takes.
	client := &http.Client{Timeout: 0}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(stderr, "update hook: request:", err)
		return 1
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	_, _ = stdout.Write(respBody)

	if resp.StatusCode/100 != 2 {
		return 1
	}
	return 0
}
