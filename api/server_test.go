package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/database"
	"github.com/killallgit/subclip/internal/services/cache"
	"github.com/killallgit/subclip/internal/services/clips"
	"github.com/killallgit/subclip/internal/services/corpus"
	"github.com/killallgit/subclip/internal/services/media"
	"github.com/killallgit/subclip/internal/services/search"
	"github.com/killallgit/subclip/internal/services/workers"
	"github.com/killallgit/subclip/pkg/config"
)

const testSRT = `1
00:00:01,000 --> 00:00:03,000
Hello there, my friend!

2
00:00:04,000 --> 00:00:06,000
How are you doing today?

3
00:00:07,000 --> 00:00:09,500
Hello again.
`

// fileExtractor writes a small placeholder instead of running ffmpeg
type fileExtractor struct{}

func (fileExtractor) Extract(ctx context.Context, p clips.ExtractParams) (*clips.ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p.Output), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(p.Output, []byte("clip"), 0644); err != nil {
		return nil, err
	}
	return &clips.ExtractResult{OutputFile: p.Output, SizeBytes: 4, DurationSeconds: p.End - p.Start}, nil
}

type testServer struct {
	server *Server
	engine *gin.Engine
	root   string
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		RateLimiting: config.RateLimitConfig{
			Enabled:   true,
			Endpoints: map[string]int{"default": 6000},
		},
		Security: config.SecurityConfig{EnableCORS: true, CORSOrigins: []string{"*"}},
	}
}

func setupServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	root := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Show"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Show", "ep1.mkv"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Show", "ep1.srt"), []byte(testSRT), 0644))

	db, err := database.Initialize(filepath.Join(dir, "api.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	searchCache := cache.NewMemoryCache(1, time.Minute)
	t.Cleanup(searchCache.Stop)
	store := search.NewStore(db, searchCache, search.Options{})
	require.NoError(t, store.Init(context.Background()))

	layout, err := clips.NewOutputLayout(filepath.Join(dir, "clips"))
	require.NoError(t, err)
	manager := clips.NewManager(
		clips.NewRepository(db.DB),
		media.NewResolver([]string{root}),
		fileExtractor{},
		layout,
		clips.Config{DefaultPadding: 1.0, DefaultPriority: 5},
	)

	deps := &types.Dependencies{
		DB:         db,
		Search:     store,
		Indexer:    corpus.NewIndexer(db, store, corpus.Options{Workers: 2}),
		Clips:      manager,
		WorkerPool: workers.NewWorkerPool(manager, 1, time.Minute),
		Roots:      []string{root},
		Version:    "test",
	}

	t.Cleanup(deps.WorkerPool.Stop)

	server := NewServer(cfg, deps)
	require.NoError(t, server.Initialize())
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	return &testServer{server: server, engine: server.Engine(), root: root}
}

func (ts *testServer) createClip(t *testing.T, sentence, start, end string) string {
	t.Helper()
	w, body := ts.do(t, http.MethodPost, "/api/v1/clips", map[string]interface{}{
		"sentence":   sentence,
		"media_file": "ep1.mkv",
		"start_time": start,
		"end_time":   end,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return body["clip"].(map[string]interface{})["id"].(string)
}

func (ts *testServer) awaitStatus(t *testing.T, id, status string) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, body := ts.do(t, http.MethodGet, "/api/v1/clips/"+id, nil)
		clip, ok := body["clip"].(map[string]interface{})
		return ok && clip["status"] == status
	}, 5*time.Second, 20*time.Millisecond)
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func (ts *testServer) rebuild(t *testing.T) {
	t.Helper()
	w, body := ts.do(t, http.MethodPost, "/api/v1/index/rebuild", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := body["run"].(map[string]interface{})
	require.Equal(t, "completed", run["status"])
}

func TestServer_Initialize_RequiresDependencies(t *testing.T) {
	server := NewServer(testConfig(), nil)
	defer server.Shutdown(context.Background())
	assert.Error(t, server.Initialize())
}

func TestServer_HealthAndVersion(t *testing.T) {
	ts := setupServer(t, testConfig())

	w, body := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["workers"])

	w, body = ts.do(t, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", body["version"])

	w, body = ts.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/api/v1/nope", body["path"])
}

func TestServer_SwaggerDocs(t *testing.T) {
	ts := setupServer(t, testConfig())

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/docs")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/docs/index.html", w.Header().Get("Location"))

	w = get("/docs/index.html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger")

	w = get("/docs/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	paths := doc["paths"].(map[string]interface{})
	for _, path := range []string{"/api/v1/search", "/api/v1/clips", "/api/v1/clips/{id}/fulfil", "/api/v1/index/rebuild", "/health"} {
		assert.Contains(t, paths, path)
	}
}

func TestServer_IndexAndSearch(t *testing.T) {
	ts := setupServer(t, testConfig())

	w, body := ts.do(t, http.MethodPost, "/api/v1/index/rebuild", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := body["run"].(map[string]interface{})
	assert.Equal(t, "completed", run["status"])
	assert.Equal(t, float64(3), run["entries_indexed"])

	t.Run("stats are cached", func(t *testing.T) {
		w, body := ts.do(t, http.MethodGet, "/api/v1/index/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)
		stats := body["stats"].(map[string]interface{})
		assert.Equal(t, float64(3), stats["total_entries"])
		assert.Equal(t, float64(1), stats["media_files"])

		w, _ = ts.do(t, http.MethodGet, "/api/v1/index/stats", nil)
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	})

	t.Run("search", func(t *testing.T) {
		w, body := ts.do(t, http.MethodGet, "/api/v1/search?q=hello&lang=en&limit=10", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, float64(2), body["count"])

		results := body["results"].([]interface{})
		first := results[0].(map[string]interface{})
		assert.Equal(t, "en", first["language"])
		assert.Equal(t, "ep1", first["title"])
		assert.Greater(t, first["confidence"].(float64), 0.0)
	})

	t.Run("search rejects bad input", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodGet, "/api/v1/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, body := ts.do(t, http.MethodGet, "/api/v1/search?q=hello&lang=fr", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION", body["error"])

		w, _ = ts.do(t, http.MethodGet, "/api/v1/search?q=%20%20", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("batch search", func(t *testing.T) {
		w, body := ts.do(t, http.MethodPost, "/api/v1/search/batch", map[string]interface{}{
			"text":         "Hello again my friend. How are you doing today?",
			"per_sentence": 5,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, float64(2), body["total_sentences"])
		assert.GreaterOrEqual(t, body["total_results"].(float64), float64(1))
	})

	t.Run("rebuild of a missing root", func(t *testing.T) {
		w, body := ts.do(t, http.MethodPost, "/api/v1/index/rebuild", map[string]interface{}{
			"roots": []string{filepath.Join(ts.root, "does-not-exist")},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", body["error"])
	})
}

func TestServer_ClipLifecycle(t *testing.T) {
	ts := setupServer(t, testConfig())
	ts.rebuild(t)

	// Create a clip from a search hit
	_, found := ts.do(t, http.MethodGet, "/api/v1/search?q=hello%20there", nil)
	hit := found["results"].([]interface{})[0].(map[string]interface{})

	w, body := ts.do(t, http.MethodPost, "/api/v1/clips", map[string]interface{}{
		"sentence":   hit["text"],
		"media_file": hit["media_file"],
		"start_time": hit["start_time"],
		"end_time":   hit["end_time"],
		"tags":       []string{"Greeting"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clip := body["clip"].(map[string]interface{})
	id := clip["id"].(string)
	assert.Equal(t, "pending", clip["status"])

	t.Run("invalid create", func(t *testing.T) {
		w, body := ts.do(t, http.MethodPost, "/api/v1/clips", map[string]interface{}{
			"sentence":   "x",
			"media_file": "ep1.mkv",
			"start_time": "garbage",
			"end_time":   "00:00:01,000",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION", body["error"])
	})

	t.Run("get and list", func(t *testing.T) {
		w, body := ts.do(t, http.MethodGet, "/api/v1/clips/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, body["clip"].(map[string]interface{})["id"])

		w, _ = ts.do(t, http.MethodGet, "/api/v1/clips/missing-id", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, body = ts.do(t, http.MethodGet, "/api/v1/clips/pending", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), body["count"])

		w, body = ts.do(t, http.MethodGet, "/api/v1/clips?tag=greeting", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), body["total"])

		w, _ = ts.do(t, http.MethodGet, "/api/v1/clips?status=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = ts.do(t, http.MethodGet, "/api/v1/clips?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fulfil and wait", func(t *testing.T) {
		w, body := ts.do(t, http.MethodPost, "/api/v1/clips/"+id+"/fulfil?wait=true", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := body["result"].(map[string]interface{})
		assert.Equal(t, true, result["success"])
		assert.FileExists(t, result["output_file"].(string))

		w, body = ts.do(t, http.MethodPost, "/api/v1/clips/"+id+"/fulfil?wait=true", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_STATE", body["error"])

		w, _ = ts.do(t, http.MethodPost, "/api/v1/clips/"+id+"/fulfil", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("fulfil runs in the background", func(t *testing.T) {
		queuedID := ts.createClip(t, "Hello again.", "00:00:07,000", "00:00:09,500")

		w, body := ts.do(t, http.MethodPost, "/api/v1/clips/"+queuedID+"/fulfil", nil)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "queued", body["status"])

		ts.awaitStatus(t, queuedID, "completed")
	})

	t.Run("disconnected client does not abort the transcode", func(t *testing.T) {
		clipID := ts.createClip(t, "How are you doing today?", "00:00:04,000", "00:00:06,000")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clips/"+clipID+"/fulfil?wait=true", nil).WithContext(ctx)
		ts.engine.ServeHTTP(httptest.NewRecorder(), req)

		ts.awaitStatus(t, clipID, "completed")
	})

	t.Run("status override and purge", func(t *testing.T) {
		w, body := ts.do(t, http.MethodPut, "/api/v1/clips/"+id+"/status", map[string]interface{}{
			"status": "failed",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "failed", body["clip"].(map[string]interface{})["status"])

		w, _ = ts.do(t, http.MethodPut, "/api/v1/clips/"+id+"/status", map[string]interface{}{
			"status": "exploded",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = ts.do(t, http.MethodDelete, "/api/v1/clips/failed?older_than=nonsense", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, body = ts.do(t, http.MethodDelete, "/api/v1/clips/failed", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), body["deleted"])
	})

	t.Run("preview", func(t *testing.T) {
		w, body := ts.do(t, http.MethodPost, "/api/v1/clips/preview", map[string]interface{}{
			"sentence":   "Hello there, my friend!",
			"media_file": "ep1.mkv",
			"start_time": "00:00:01,000",
			"end_time":   "00:00:03,000",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		output := body["result"].(map[string]interface{})["output_file"].(string)
		assert.Contains(t, output, string(filepath.Separator)+"temp"+string(filepath.Separator))
		assert.FileExists(t, output)

		w, body = ts.do(t, http.MethodPost, "/api/v1/clips/preview", map[string]interface{}{
			"sentence":   "Nope",
			"media_file": "unknown.mkv",
			"start_time": "00:00:01,000",
			"end_time":   "00:00:03,000",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "MEDIA_NOT_FOUND", body["error"])
	})

	t.Run("stats", func(t *testing.T) {
		w, body := ts.do(t, http.MethodGet, "/api/v1/clips/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)
		stats := body["stats"].(map[string]interface{})
		assert.Equal(t, float64(2), stats["total"])
	})
}

func TestServer_BatchAndProjects(t *testing.T) {
	ts := setupServer(t, testConfig())

	w, body := ts.do(t, http.MethodPost, "/api/v1/clips/batch", map[string]interface{}{
		"project": "Greetings",
		"requests": []map[string]interface{}{
			{"sentence": "Hello there, my friend!", "media_file": "ep1.mkv", "start_time": "00:00:01,000", "end_time": "00:00:03,000"},
			{"sentence": "Hello again.", "media_file": "ep1.mkv", "start_time": "00:00:07,000", "end_time": "00:00:09,500", "priority": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(2), body["count"])
	projectID := body["project"].(map[string]interface{})["id"].(string)

	w, body = ts.do(t, http.MethodPost, "/api/v1/clips/process", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, float64(2), body["pending"])

	require.Eventually(t, func() bool {
		_, body := ts.do(t, http.MethodGet, "/api/v1/clips?status=completed", nil)
		return body["total"] == float64(2)
	}, 5*time.Second, 20*time.Millisecond)

	w, body = ts.do(t, http.MethodPost, "/api/v1/clips/process?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(0), summary["processed"])

	w, body = ts.do(t, http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projects := body["projects"].([]interface{})
	require.Len(t, projects, 1)
	project := projects[0].(map[string]interface{})
	assert.Equal(t, "Greetings", project["name"])
	assert.Equal(t, float64(2), project["completed"])

	w, _ = ts.do(t, http.MethodPut, "/api/v1/projects/"+projectID+"/status", map[string]interface{}{"status": "archived"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodPut, "/api/v1/projects/unknown/status", map[string]interface{}{"status": "archived"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/clips/batch", map[string]interface{}{"project": "Empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiting.Endpoints = map[string]int{"search": 6, "default": 6000}
	ts := setupServer(t, cfg)

	w, _ := ts.do(t, http.MethodGet, "/api/v1/search?q=hello", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := ts.do(t, http.MethodGet, "/api/v1/search?q=hello", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT", body["error"])

	w, _ = ts.do(t, http.MethodGet, "/api/v1/clips", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
