package httpclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	url   string
	token string
}

func (c *testConfig) GetServerURL() string { return c.url }
func (c *testConfig) GetAPIToken() string  { return c.token }

func TestDoRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/things", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(&testConfig{url: srv.URL, token: "tok"})
	body, err := c.DoRequest(RequestOptions{
		Method:      http.MethodGet,
		Path:        "/things",
		QueryParams: map[string]string{"page": "1"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestDoRequestNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	c := NewClient(&testConfig{url: srv.URL})
	_, err := c.DoRequest(RequestOptions{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)
}

func TestDoRequestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(&ServerError{Result: 0, Error: "session not open"})
	}))
	defer srv.Close()

	c := NewClient(&testConfig{url: srv.URL})
	_, err := c.DoRequest(RequestOptions{Method: http.MethodPost, Path: "/send"})
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, httpErr.StatusCode)
	assert.Equal(t, "session not open", httpErr.Message)
}

func TestDoRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(&testConfig{url: srv.URL})
	_, err := c.DoRequest(RequestOptions{
		Method:  http.MethodGet,
		Path:    "/",
		Timeout: 20 * time.Millisecond,
	})
	assert.Error(t, err)
}
