package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/resurch/internal/tuitest"
)

type fakeAPI struct {
	mu           sync.Mutex
	queries      []string
	interactions []map[string]string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"p-attn","title":"Attention Is All You Need","abstract":"The dominant sequence transduction models.","url":"https://arxiv.org/abs/1706.03762","similarity":0.916},
			{"id":"p-bert","title":"BERT: Pre-training of Deep Bidirectional Transformers","abstract":"We introduce BERT.","similarity":0.71}
		]`))
	})
	mux.HandleFunc("/api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/api/v1/interactions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.interactions = append(f.interactions, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func TestSearchAndStarEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	api := &fakeAPI{}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	cmdDir := packageDir(t)
	binary := buildBinary(t, cmdDir)

	rec, err := tuitest.Run(context.Background(), tuitest.Session{
		Binary: binary,
		Args:   []string{"--no-alt-screen"},
		Dir:    t.TempDir(),
		Env: []string{
			"RESURCH_API_URL=" + server.URL,
			"RESURCH_USER_ID=user-42",
			"RESURCH_LOG_FILE=" + filepath.Join(t.TempDir(), "resurch.log"),
		},
		Script: []tuitest.Input{
			tuitest.Type(time.Second, "transformers"),
			tuitest.Press(200*time.Millisecond, tuitest.KeyEnter),
			tuitest.Type(time.Second, "s"),
			tuitest.Press(time.Second, tuitest.KeyCtrlC),
		},
		Timeout: 15 * time.Second,
	})
	require.NoError(t, err)

	assert.True(t, rec.Saw("Attention Is All You Need"))
	assert.True(t, rec.Saw("92% Match"))
	assert.True(t, rec.Saw("71% Match"))
	assert.True(t, rec.Saw("Starred"))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"transformers"}, api.queries)
	require.Len(t, api.interactions, 1)
	assert.Equal(t, map[string]string{
		"user_id":          "user-42",
		"paper_id":         "p-attn",
		"interaction_type": "star",
	}, api.interactions[0])
}

func packageDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime caller unavailable")
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, dir string) string {
	t.Helper()
	name := "resurch-e2e"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	out := filepath.Join(t.TempDir(), name)
	build := exec.Command("go", "build", "-o", out, ".")
	build.Dir = dir
	output, err := build.CombinedOutput()
	require.NoError(t, err, "build resurch:\n%s", output)
	return out
}
