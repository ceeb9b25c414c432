package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghminer/internal/logger"
)

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
		configPath = ""
		verbose = false
		statusProject = ""
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestKindsCmd_ListsEveryVertexKind(t *testing.T) {
	out, err := runCLI(t, "kinds")

	require.NoError(t, err)
	for _, kind := range []string{"REPOSITORY", "ISSUE", "PULLREQUEST", "USER", "ORGANIZATION", "GIST", "EMAIL"} {
		assert.Contains(t, out, kind+"\n")
	}
}

func TestHarvestCmd_MissingDatabaseFails(t *testing.T) {
	path := writeConfig(t, "[harvest]\nprojects = \"octo/repo\"\n")

	_, err := runCLI(t, "harvest", "--config", path)

	assert.Error(t, err)
}

func TestHarvestCmd_Organization(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	handle := func(pattern, body string) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
			requests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		})
	}
	handle("/orgs/acme", `{"login": "acme", "id": 9, "name": "Acme"}`)
	handle("/orgs/acme/public_members", `[{"login": "alice"}, {"login": "bob"}]`)
	handle("/orgs/acme/repos", `[{"name": "rocket", "owner": {"login": "acme"}}]`)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	path := writeConfig(t, fmt.Sprintf(`
[database]
engine = "memory"

[github]
token = "test"
base_url = %q

[throttle.v2]
maxCalls = 100
maxCallsInterval = 1000

[harvest]
projects = []
users = []
organizations = "acme"
`, srv.URL+"/"))

	out, err := runCLI(t, "harvest", "--config", path)

	require.NoError(t, err)
	assert.Equal(t, int32(3), requests.Load())
	assert.Contains(t, out, "organization_members")
	assert.Contains(t, out, "Channel v2: 3 requests")
	assert.NotContains(t, out, "Channel v3")
}

func TestHarvestCmd_UnreachableOrganizationIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	path := writeConfig(t, fmt.Sprintf(`
[database]
engine = "memory"
[github]
base_url = %q
[harvest]
projects = []
users = []
organizations = ["ghost"]
`, srv.URL+"/"))

	out, err := runCLI(t, "harvest", "--config", path)

	require.NoError(t, err, "absent resources do not fail the pass")
	assert.Contains(t, out, "organization")
}

func TestStatusCmd_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(`
[database]
engine = "sqlite"
url = %q
[harvest]
refresh_days = 1
projects = "octo/repo"
users = []
organizations = []
`, filepath.Join(dir, "graph.db")))

	out, err := runCLI(t, "status", "--config", path)

	require.NoError(t, err)
	assert.Contains(t, out, "REPOSITORY")
	assert.Contains(t, out, "octo/repo")
}

func TestStatusCmd_RejectsBadProject(t *testing.T) {
	path := writeConfig(t, "[database]\nengine = \"memory\"\n")

	_, err := runCLI(t, "status", "--config", path, "--project", "nope")

	assert.Error(t, err)
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghminer", "config.toml")

	out, err := runCLI(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	out, err = runCLI(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "database:      sqlite ghminer.db"), out)

	_, err = runCLI(t, "config", "init", "--config", path)
	assert.Error(t, err, "an existing file is not overwritten")
}

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}
