package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pders01/rmql/internal/config"
	"github.com/pders01/rmql/internal/fetch"
	"github.com/pders01/rmql/internal/graphql"
	"github.com/pders01/rmql/internal/rickmorty"
	"github.com/pders01/rmql/internal/search"
	"github.com/pders01/rmql/internal/storage"
)

var apiURL string

func TestMain(m *testing.M) {
	srv := httptest.NewServer(http.HandlerFunc(serveFixture))
	apiURL = srv.URL + "/graphql"

	code := m.Run()

	srv.Close()
	os.Exit(code)
}

var characterPages = map[int]string{
	1: `{"data":{"characters":{"info":{"count":3,"pages":2,"next":2},"results":[
		{"id":"1","name":"Rick Sanchez","status":"Alive","species":"Human","image":"https://example.test/1.jpeg",
		 "origin":{"name":"Earth (C-137)"},"location":{"name":"Citadel of Ricks"},"episode":[{"id":"1"},{"id":"2"}]},
		{"id":"2","name":"Morty Smith","status":"Alive","species":"Human","location":{"name":"Earth"},"episode":[{"id":"1"}]}]}}}`,
	2: `{"data":{"characters":{"info":{"count":3,"pages":2,"next":null},"results":[
		{"id":"3","name":"Summer Smith","status":"Alive","species":"Human","location":{"name":"Earth"}}]}}}`,
}

// serveFixture answers GetCharacters and SearchLocations from canned pages.
// A name of "nobody" yields a GraphQL error and "slow down" a 429.
func serveFixture(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name, _ := body.Variables["name"].(string)
	page := 1
	if p, ok := body.Variables["page"].(float64); ok {
		page = int(p)
	}

	if name == "slow down" {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case name == "nobody":
		fmt.Fprint(w, `{"data":{"characters":null},"errors":[{"message":"There is nothing here"}]}`)
	case body.OperationName == "SearchLocations":
		fmt.Fprint(w, `{"data":{"locations":{"info":{"count":1,"pages":1,"next":null},"results":[
			{"id":"3","name":"Citadel of Ricks","type":"Space station","dimension":"unknown","residents":[{"id":"1"},{"id":"2"}]}]}}}`)
	case name != "":
		// Filtered searches return the matching subset of page one.
		fmt.Fprint(w, `{"data":{"characters":{"info":{"count":1,"pages":1,"next":null},"results":[
			{"id":"1","name":"Rick Sanchez","status":"Alive","species":"Human","location":{"name":"Citadel of Ricks"}}]}}}`)
	default:
		out, ok := characterPages[page]
		if !ok {
			fmt.Fprint(w, `{"data":{"characters":{"info":{"count":3,"pages":2,"next":null},"results":[]}}}`)
			return
		}
		fmt.Fprint(w, out)
	}
}

func setupTestEnvironment(t *testing.T) (*storage.Store, *graphql.Client, func()) {
	tmpDir, err := os.MkdirTemp("", "integration-test-*")
	if err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewStore(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatal(err)
	}

	cfg := config.TestConfig()
	client := graphql.NewClient(graphql.Options{
		Endpoint:  apiURL,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.HTTPTimeout,
	})

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}
	return store, client, cleanup
}

// waitSettled blocks until the list is no longer loading.
func waitSettled[T any](t *testing.T, snapshot func() fetch.State[T]) fetch.State[T] {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := snapshot(); !s.IsLoading && (s.IsLoaded || s.Err != nil) {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("list did not settle: %+v", snapshot())
	return fetch.State[T]{}
}

func TestIntegration_FetchAllCharacters(t *testing.T) {
	_, client, cleanup := setupTestEnvironment(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chars, err := rickmorty.Characters(client).FetchAll(ctx, "", 0)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(chars) != 3 {
		t.Fatalf("Expected 3 characters, got %d", len(chars))
	}
	if chars[0].Name != "Rick Sanchez" || chars[0].Episodes != 2 || chars[0].Origin != "Earth (C-137)" {
		t.Errorf("Unexpected first character: %+v", chars[0])
	}
	if chars[2].Key() != "character:3" {
		t.Errorf("Expected character:3, got %s", chars[2].Key())
	}
}

func TestIntegration_PaginateList(t *testing.T) {
	_, client, cleanup := setupTestEnvironment(t)
	defer cleanup()

	l := fetch.NewList("characters", rickmorty.Characters(client))
	defer l.Close()

	l.LoadPage(1, "")
	s := waitSettled(t, l.Snapshot)
	if len(s.Items) != 2 || s.TotalCount != 3 || s.NextPage != 2 {
		t.Fatalf("Unexpected first page state: items=%d total=%d next=%d", len(s.Items), s.TotalCount, s.NextPage)
	}

	l.LoadNextPage()
	s = waitSettled(t, l.Snapshot)
	if len(s.Items) != 3 {
		t.Fatalf("Expected 3 items after the second page, got %d", len(s.Items))
	}
	if s.HasMore() {
		t.Errorf("Expected no further pages, next=%d", s.NextPage)
	}
}

func TestIntegration_DebouncedSearch(t *testing.T) {
	_, client, cleanup := setupTestEnvironment(t)
	defer cleanup()

	s := rickmorty.NewCharacterSearch(client, config.TestConfig().Search.Debounce)
	defer s.Close()

	for _, text := range []string{"r", "ri", "ric", "rick"} {
		s.OnInputChanged(text)
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Pending() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	state := waitSettled(t, s.Snapshot)
	if state.FilterText != "rick" {
		t.Errorf("Expected filter %q, got %q", "rick", state.FilterText)
	}
	if len(state.Items) != 1 || state.Items[0].Name != "Rick Sanchez" {
		t.Errorf("Unexpected search results: %+v", state.Items)
	}
}

func TestIntegration_GraphQLErrors(t *testing.T) {
	_, client, cleanup := setupTestEnvironment(t)
	defer cleanup()

	l := fetch.NewList("characters", rickmorty.Characters(client))
	defer l.Close()

	l.LoadPage(1, "nobody")
	s := waitSettled(t, l.Snapshot)
	if s.Err == nil {
		t.Fatal("Expected an error for an unknown name")
	}
	if s.Err.Kind != fetch.KindTransport || !strings.Contains(s.Err.Message, "There is nothing here") {
		t.Errorf("Unexpected error: %+v", s.Err)
	}
	if len(s.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(s.Items))
	}
}

func TestIntegration_RateLimited(t *testing.T) {
	_, client, cleanup := setupTestEnvironment(t)
	defer cleanup()

	l := fetch.NewList("characters", rickmorty.Characters(client))
	defer l.Close()

	l.LoadPage(1, "slow down")
	s := waitSettled(t, l.Snapshot)
	if s.Err == nil {
		t.Fatal("Expected error for rate limited endpoint, got nil")
	}
	if s.Err.Kind != fetch.KindTransport {
		t.Errorf("Expected a transport error, got %s", s.Err.Kind)
	}
}

func TestIntegration_LocationHistory(t *testing.T) {
	store, client, cleanup := setupTestEnvironment(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := rickmorty.Locations(client).Fetch(ctx, fetch.PageRequest{Page: 1, Filter: "citadel"})
	if err != nil {
		t.Fatalf("Fetch locations: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("Expected 1 location, got %d", len(resp.Items))
	}
	loc := resp.Items[0]
	if loc.Residents != 2 {
		t.Errorf("Expected 2 residents, got %d", loc.Residents)
	}

	if err := store.SaveRecent(&storage.Recent{
		Key:      loc.Key(),
		Kind:     storage.KindLocation,
		ID:       loc.ID,
		Title:    loc.Name,
		Subtitle: loc.Description(),
		Details:  "# " + loc.Name,
	}); err != nil {
		t.Fatalf("SaveRecent: %v", err)
	}

	results, err := search.NewEngine(store).Search("citadel", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Recent.Key != "location:3" {
		t.Fatalf("Expected location:3 in history results, got %+v", results)
	}
}
