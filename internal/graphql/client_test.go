package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{Endpoint: srv.URL, Timeout: 5 * time.Second})
}

func TestClientDo(t *testing.T) {
	var got Request
	var headers http.Header
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"characters":{"info":{"next":2}}}}`))
	})

	resp, err := c.Do(context.Background(), Request{
		OperationName: "GetCharacters",
		Query:         "query GetCharacters { characters { info { next } } }",
		Variables:     map[string]any{"page": 1},
	})
	require.NoError(t, err)

	assert.True(t, resp.HasData())
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"characters":{"info":{"next":2}}}`, string(resp.Data))

	assert.Equal(t, "GetCharacters", got.OperationName)
	assert.EqualValues(t, 1, got.Variables["page"])
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
	assert.NotEmpty(t, headers.Get("X-Request-ID"))
}

func TestClientDoGraphQLErrors(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"bad name","path":["characters"]},{"message":"try again"}]}`))
	})

	resp, err := c.Do(context.Background(), Request{Query: "{ a }"})
	require.NoError(t, err)
	assert.False(t, resp.HasData())
	assert.Equal(t, []string{"bad name", "try again"}, resp.Messages())
}

func TestClientDoHTTPError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.Do(context.Background(), Request{Query: "{ a }"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "upstream down")
	assert.Equal(t, "HTTP error: 502", err.Error())
}

func TestClientDoDecodeError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.Do(context.Background(), Request{Query: "{ a }"})
	assert.ErrorContains(t, err, "decoding response")
}

func TestClientRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{Endpoint: srv.URL, RateLimit: 0.001, RateBurst: 1})

	_, err := c.Do(context.Background(), Request{Query: "{ a }"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Do(ctx, Request{Query: "{ a }"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second call never reaches the server")
}

func TestClientStartCall(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	})

	done := make(chan *Response, 1)
	c.StartCall(Request{Query: "{ ok }"}, func(resp *Response, err error) {
		assert.NoError(t, err)
		done <- resp
	})

	select {
	case resp := <-done:
		assert.True(t, resp.HasData())
	case <-time.After(5 * time.Second):
		t.Fatal("call never completed")
	}
}

func TestClientStartCallCancel(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	done := make(chan error, 1)
	h := c.StartCall(Request{Query: "{ slow }"}, func(_ *Response, err error) {
		done <- err
	})
	h.Cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled call never reported")
	}
}
