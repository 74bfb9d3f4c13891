package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/SeriesMoodRecap/internal/config"
	"github.com/Corphon/SeriesMoodRecap/internal/di"
)

// 测试创建模拟服务器
type mockServer struct {
	mu             sync.Mutex
	shutdownCalled bool
	stopped        chan struct{}
}

func newMockServer() *mockServer {
	return &mockServer{stopped: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	<-m.stopped
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.shutdownCalled {
		m.shutdownCalled = true
		close(m.stopped)
	}
	return nil
}

func fakeOMDb(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "omdb-key", q.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case q.Get("s") == "Breaking Bad":
			w.Write([]byte(`{"Search":[{"Title":"Breaking Bad","Year":"2008–2013","imdbID":"tt0903747","Type":"series","Poster":"N/A"}],"totalResults":"1","Response":"True"}`))
		case q.Get("s") != "":
			w.Write([]byte(`{"Response":"False","Error":"Series not found!"}`))
		case q.Get("i") == "tt0903747":
			w.Write([]byte(`{"Title":"Breaking Bad","Year":"2008–2013","Genre":"Crime, Drama, Thriller","Plot":"A chemistry instructor diagnosed with cancer turns to crime.","Poster":"N/A","imdbID":"tt0903747","Response":"True"}`))
		default:
			w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fakeGemini(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "gemini-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Walt breaks bad. Jesse tags along. Everyone suffers."}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(omdbURL, geminiURL string) *config.Config {
	return &config.Config{
		Port:           "0",
		LogLevel:       "error",
		OMDbAPIKey:     "omdb-key",
		OMDbBaseURL:    omdbURL,
		LLMProvider:    "google",
		GeminiAPIKey:   "gemini-key",
		GeminiBaseURL:  geminiURL,
		GeminiModel:    "gemini-test",
		SessionTTL:     time.Minute,
		HTTPTimeout:    5 * time.Second,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
}

type envelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID    string `json:"id"`
		State struct {
			Query      string `json:"query"`
			Panel      string `json:"panel"`
			Error      string `json:"error"`
			Recap      string `json:"recap"`
			Loading    bool   `json:"loading"`
			Candidates []struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"candidates"`
			Selected *struct {
				Title string `json:"title"`
				Plot  string `json:"plot"`
			} `json:"selected"`
		} `json:"state"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestEndToEndFlow(t *testing.T) {
	a, err := New(testConfig(fakeOMDb(t).URL, fakeGemini(t).URL), di.NewContainer())
	require.NoError(t, err)
	handler := a.server.(*http.Server).Handler

	code, env := do(t, handler, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	id := env.Data.ID
	require.NotEmpty(t, id)
	assert.Equal(t, "empty", env.Data.State.Panel)

	code, env = do(t, handler, http.MethodPost, "/api/sessions/"+id+"/search", map[string]string{"query": "Breaking Bad"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "results", env.Data.State.Panel)
	require.Len(t, env.Data.State.Candidates, 1)
	assert.Equal(t, "tt0903747", env.Data.State.Candidates[0].ID)

	code, env = do(t, handler, http.MethodPost, "/api/sessions/"+id+"/select", map[string]string{"id": "tt0903747"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "detail", env.Data.State.Panel)
	require.NotNil(t, env.Data.State.Selected)
	assert.Equal(t, "Breaking Bad", env.Data.State.Selected.Title)
	assert.Equal(t, "Walt breaks bad. Jesse tags along. Everyone suffers.", env.Data.State.Recap)
	assert.False(t, env.Data.State.Loading)

	code, env = do(t, handler, http.MethodPost, "/api/sessions/"+id+"/search", map[string]string{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EMPTY_QUERY", env.Error.Code)
	assert.Equal(t, "Please enter a TV series name.", env.Data.State.Error)
	assert.Equal(t, "empty", env.Data.State.Panel)

	code, env = do(t, handler, http.MethodPost, "/api/sessions/"+id+"/search", map[string]string{"query": "zzzz"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "SEARCH_FAILED", env.Error.Code)
	assert.Equal(t, "Series not found!", env.Data.State.Error)

	code, _ = do(t, handler, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = do(t, handler, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}

func TestInitServicesRegistersEverything(t *testing.T) {
	container := di.NewContainer()
	require.NoError(t, InitServices(testConfig("http://127.0.0.1:1", "http://127.0.0.1:1"), container))

	for _, name := range []string{"metrics", "omdb", "llm", "search", "detail", "recap", "sessions", "hub", "rate_limiter"} {
		assert.True(t, container.Has(name), name)
	}
}

func TestInitServicesUnknownProvider(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.LLMProvider = "nope"
	assert.Error(t, InitServices(cfg, di.NewContainer()))
}

func TestRunStopsOnSignal(t *testing.T) {
	a, err := New(testConfig("http://127.0.0.1:1", "http://127.0.0.1:1"), di.NewContainer())
	require.NoError(t, err)
	mockSrv := newMockServer()
	a.server = mockSrv

	go func() {
		time.Sleep(50 * time.Millisecond)
		a.stopChan <- syscall.SIGTERM
	}()

	require.NoError(t, a.Run())
	assert.True(t, mockSrv.shutdownCalled)
}

func TestGetters(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	container := di.NewContainer()
	a, err := New(cfg, container)
	require.NoError(t, err)

	assert.Same(t, cfg, a.GetConfig())
	assert.Same(t, container, a.GetDIContainer())
}
