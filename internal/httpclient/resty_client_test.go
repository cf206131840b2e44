package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClientGetEncodesQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "graph neural nets & more", r.URL.Query().Get("q"))
		assert.Equal(t, "abc", r.Header.Get("X-Trace"))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	client := NewRestyClient(time.Second)
	resp, err := client.Get(context.Background(), ts.URL, map[string]string{"q": "graph neural nets & more"}, map[string]string{"X-Trace": "abc"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode())
	assert.Equal(t, "[]", string(resp.Body()))
}

func TestRestyClientPostJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "star", body["interaction_type"])
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewRestyClient(time.Second)
	resp, err := client.PostJSON(context.Background(), ts.URL, map[string]string{"interaction_type": "star"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestRestyClientTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client := NewRestyClient(time.Second)
	_, err := client.Get(context.Background(), url, nil, nil)
	require.Error(t, err)
}
