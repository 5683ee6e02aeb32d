package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
	"github.com/Aman-CERP/personalvault/internal/vault"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fixedEmbedder returns a vector per text, [0,0,1] otherwise.
type fixedEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fixedEmbedder) ModelName() string { return "fixed" }

func (f *fixedEmbedder) Available(_ context.Context) bool { return true }

func (f *fixedEmbedder) Close() error { return nil }

func setupServer(t *testing.T, emb *fixedEmbedder) *Server {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc, err := vault.NewService(st, emb, search.DefaultConfig())
	require.NoError(t, err)
	return New(svc, Config{})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestServer_NotesLifecycle(t *testing.T) {
	s := setupServer(t, &fixedEmbedder{})

	w, body := doJSON(t, s, http.MethodPost, "/api/add-note", map[string]string{"title": "First", "content": "one"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	note := body["note"].(map[string]any)
	assert.Equal(t, "First", note["title"])
	assert.NotContains(t, note, "embedding")

	w, _ = doJSON(t, s, http.MethodPost, "/api/add-note", map[string]string{"title": "Second", "content": "two"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, s, http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := body["notes"].([]any)
	require.Len(t, notes, 2)
	assert.Equal(t, "Second", notes[0].(map[string]any)["title"], "newest first")

	id := notes[0].(map[string]any)["id"].(float64)
	w, _ = doJSON(t, s, http.MethodDelete, "/api/notes?id="+formatID(id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, s, http.MethodDelete, "/api/notes?id="+formatID(id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["error"], "not found")
}

func TestServer_AddNote_MissingFields(t *testing.T) {
	s := setupServer(t, &fixedEmbedder{})

	w, body := doJSON(t, s, http.MethodPost, "/api/add-note", map[string]string{"title": "only"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing fields", body["error"])
}

func TestServer_VaultItems(t *testing.T) {
	s := setupServer(t, &fixedEmbedder{})

	w, body := doJSON(t, s, http.MethodPost, "/api/vault", map[string]any{"title": "Passport"})
	require.Equal(t, http.StatusOK, w.Code)
	item := body["item"].(map[string]any)
	assert.Equal(t, "document", item["type"])
	assert.Equal(t, "Recent files", item["category"])
	assert.Equal(t, []any{}, item["tags"])

	w, body = doJSON(t, s, http.MethodPost, "/api/vault", map[string]any{"content": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title is required", body["error"])

	w, body = doJSON(t, s, http.MethodGet, "/api/vault", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].(map[string]any)["lastAccessed"])

	w, body = doJSON(t, s, http.MethodDelete, "/api/vault", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID is required", body["error"])

	w, _ = doJSON(t, s, http.MethodDelete, "/api/vault?id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, s, http.MethodDelete, "/api/vault?id=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Search(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"Trip Budget Saved for Japan trip, total $3000": {1, 0},
		"Grocery List milk eggs bread":                  {0, 1},
		"japan trip savings":                            {0.9, 0.1},
	}}
	s := setupServer(t, emb)

	doJSON(t, s, http.MethodPost, "/api/add-note", map[string]string{"title": "Trip Budget", "content": "Saved for Japan trip, total $3000"})
	doJSON(t, s, http.MethodPost, "/api/add-note", map[string]string{"title": "Grocery List", "content": "milk eggs bread"})

	w, body := doJSON(t, s, http.MethodPost, "/api/search", map[string]string{"query": "japan trip savings"})
	require.Equal(t, http.StatusOK, w.Code)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	top := results[0].(map[string]any)
	assert.Equal(t, "Trip Budget", top["title"])
	assert.Equal(t, "note", top["type"])
	assert.InDelta(t, 0.829, top["similarity"].(float64), 1e-3)

	w, body = doJSON(t, s, http.MethodPost, "/api/search", map[string]string{"query": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Query required", body["error"])
}

func TestServer_ProviderFailureIsGenericServerError(t *testing.T) {
	emb := &fixedEmbedder{}
	s := setupServer(t, emb)
	doJSON(t, s, http.MethodPost, "/api/add-note", map[string]string{"title": "t", "content": "c"})

	emb.err = errors.New("upstream 500: token invalid")
	w, body := doJSON(t, s, http.MethodPost, "/api/search", map[string]string{"query": "anything"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"error": "Server error"}, body)
}

func TestServer_Chat(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"Visa Expires 2030 travel": {1, 0},
		"visa":                     {1, 0},
	}}
	s := setupServer(t, emb)
	doJSON(t, s, http.MethodPost, "/api/vault", map[string]any{"title": "Visa", "content": "Expires 2030", "tags": []string{"travel"}})

	w, body := doJSON(t, s, http.MethodPost, "/api/chat", map[string]string{"message": "visa"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `Based on your notes about "Visa": Expires 2030`, body["response"])
	sources := body["sources"].([]any)
	require.Len(t, sources, 1)
	assert.Equal(t, float64(100), sources[0].(map[string]any)["similarity"])

	w, body = doJSON(t, s, http.MethodPost, "/api/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Message is required", body["error"])
}

func TestServer_GenerateTags(t *testing.T) {
	s := setupServer(t, &fixedEmbedder{})

	w, body := doJSON(t, s, http.MethodPost, "/api/generate-tags",
		map[string]string{"title": "My Trip", "content": "Saved money for the trip to Japan"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"trip", "saved", "money", "japan"}, body["tags"])

	w, body = doJSON(t, s, http.MethodPost, "/api/generate-tags", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title or content required", body["error"])
}

func TestServer_MalformedBody(t *testing.T) {
	s := setupServer(t, &fixedEmbedder{})

	w, body := doJSON(t, s, http.MethodPost, "/api/search", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestServer_Health(t *testing.T) {
	s := setupServer(t, &fixedEmbedder{})

	w, body := doJSON(t, s, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	v := body["vault"].(map[string]any)
	assert.Equal(t, "fixed", v["model"])
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	s := setupServer(t, &fixedEmbedder{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func formatID(id float64) string {
	b, _ := json.Marshal(int64(id))
	return string(b)
}
