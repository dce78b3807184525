package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	Operation string
	Page      int
	Name      any
}

// apiServer serves two character pages and one location page.
func apiServer(t *testing.T) (*httptest.Server, func() []seenRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []seenRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OperationName string         `json:"operationName"`
			Variables     map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		page := int(body.Variables["page"].(float64))
		mu.Lock()
		seen = append(seen, seenRequest{body.OperationName, page, body.Variables["name"]})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case body.Variables["name"] == "nobody":
			fmt.Fprint(w, `{"data":{"characters":null},"errors":[{"message":"There is nothing here"}]}`)
		case body.OperationName == "SearchLocations":
			fmt.Fprint(w, `{"data":{"locations":{"info":{"count":1,"pages":1,"next":null},"results":[
			  {"id":"3","name":"Citadel of Ricks","type":"Space station","dimension":"unknown","residents":[{"id":"1"},{"id":"2"}]}]}}}`)
		case page == 1:
			fmt.Fprint(w, `{"data":{"characters":{"info":{"count":3,"pages":2,"next":2},"results":[
			  {"id":"1","name":"Rick Sanchez","status":"Alive","species":"Human","location":{"name":"Citadel of Ricks"},"episode":[{"id":"1"}]},
			  {"id":"2","name":"Morty Smith","status":"Alive","species":"Human","location":{"name":"Earth"},"episode":[]}]}}}`)
		default:
			fmt.Fprint(w, `{"data":{"characters":{"info":{"count":3,"pages":2,"next":null},"results":[
			  {"id":"3","name":"Summer Smith","status":"Alive","species":"Human","location":{"name":"Earth"}}]}}}`)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, func() []seenRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]seenRequest(nil), seen...)
	}
}

func writeConfig(t *testing.T, endpoint string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[api]
endpoint = %q
allow_insecure = true
rate_limit = 0

[database]
path = %q
search_index = ""

[log]
level = "off"
`, endpoint, filepath.Join(dir, "test.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func execList(t *testing.T, kind listKind, args ...string) (string, error) {
	t.Helper()
	cmd := newListCmd(kind)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "rmql dev")
	assert.Contains(t, out.String(), "github.com/pders01/rmql")
}

func TestGenerateConfigCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "rmql", "config.toml")
	var out bytes.Buffer
	configGenCmd.SetOut(&out)
	defer configGenCmd.SetOut(nil)

	require.NoError(t, configGenCmd.RunE(configGenCmd, []string{target}))

	_, err := os.Stat(target)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Generated default configuration at:")
}

func TestCharactersCommand_SinglePage(t *testing.T) {
	srv, seen := apiServer(t)
	writeConfig(t, srv.URL+"/graphql")

	out, err := execList(t, charactersKind, "--name", "rick", "--plain")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1\tRick Sanchez\tAlive\tHuman\tCitadel of Ricks\t1", lines[0])

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, seenRequest{"GetCharacters", 1, "rick"}, reqs[0])
}

func TestCharactersCommand_All(t *testing.T) {
	srv, seen := apiServer(t)
	writeConfig(t, srv.URL+"/graphql")

	out, err := execList(t, charactersKind, "--all")
	require.NoError(t, err)

	assert.Contains(t, out, "Summer Smith")
	assert.Contains(t, out, "3 of 3 characters")
	assert.NotContains(t, out, "next page")

	reqs := seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, 2, reqs[1].Page)
	assert.Nil(t, reqs[1].Name, "an empty filter is sent as null")
}

func TestCharactersCommand_StartPage(t *testing.T) {
	srv, seen := apiServer(t)
	writeConfig(t, srv.URL+"/graphql")

	out, err := execList(t, charactersKind, "--page", "2", "--plain")
	require.NoError(t, err)
	assert.Equal(t, "3\tSummer Smith\tAlive\tHuman\tEarth\t0\n", out)
	assert.Equal(t, 2, seen()[0].Page)
}

func TestCharactersCommand_StartPageFooter(t *testing.T) {
	srv, seen := apiServer(t)
	writeConfig(t, srv.URL+"/graphql")

	out, err := execList(t, charactersKind, "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Summer Smith")
	assert.NotContains(t, out, "Rick Sanchez")
	assert.Contains(t, out, "1 of 3 characters from page 2")
	assert.NotContains(t, out, "next page")

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, 2, reqs[0].Page)
}

func TestCharactersCommand_StartPageError(t *testing.T) {
	srv, _ := apiServer(t)
	writeConfig(t, srv.URL+"/graphql")

	_, err := execList(t, charactersKind, "--page", "2", "--name", "nobody")
	require.Error(t, err)
	assert.Equal(t, "There is nothing here", err.Error())
}

func TestLocationsCommand(t *testing.T) {
	srv, _ := apiServer(t)
	writeConfig(t, srv.URL+"/graphql")

	out, err := execList(t, locationsKind)
	require.NoError(t, err)
	assert.Contains(t, out, "Citadel of Ricks")
	assert.Contains(t, out, "DIMENSION")
	assert.Contains(t, out, "1 of 1 locations")
}

func TestListCommand_Errors(t *testing.T) {
	srv, seen := apiServer(t)
	writeConfig(t, srv.URL+"/graphql")

	_, err := execList(t, charactersKind, "--name", "nobody")
	require.Error(t, err)
	assert.Equal(t, "There is nothing here", err.Error())

	_, err = execList(t, charactersKind, "--page", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--page")
	assert.Len(t, seen(), 1, "invalid flags never reach the API")
}
