package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"

	"huffpack/huffman"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := &Config{}
	if err := config.InitDir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	config.SetDefaults()

	s := NewServer(config)
	r, err := s.Engine()
	if err != nil {
		t.Fatal(err)
	}
	return s, r
}

func uploadRequest(t *testing.T, path, filename string, data []byte, password string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if filename != "" {
		w, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		w.Write(data)
	}
	if password != "" {
		mw.WriteField("password", password)
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var reply struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("cannot decode error reply %q: %s", w.Body.String(), err)
	}
	return reply.Error
}

func TestHealthz(t *testing.T) {
	_, r := newTestServer(t)
	w := serve(r, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestCompressDecompressHTTP(t *testing.T) {
	s, r := newTestServer(t)
	data := bytes.Repeat([]byte("to be or not to be, that is the question\n"), 50)

	w := serve(r, uploadRequest(t, "/compress", "hamlet.txt", data, "ophelia"))
	if w.Code != http.StatusOK {
		t.Fatalf("compress: %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename=hamlet.txt.huf` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Header().Get("X-Original-Size") != "2050" {
		t.Errorf("X-Original-Size = %q", w.Header().Get("X-Original-Size"))
	}
	run_id := w.Header().Get("X-Run-Id")
	if _, err := s.Runs.FindByID(run_id); err != nil {
		t.Fatalf("run %q was not recorded: %s", run_id, err)
	}

	artifact := w.Body.Bytes()
	if len(artifact) >= len(data) {
		t.Fatalf("artifact of %d bytes did not shrink %d bytes of text", len(artifact), len(data))
	}
	if h, err := huffman.Inspect(artifact); err != nil || !h.Encrypted {
		t.Fatalf("artifact header: %+v, %v", h, err)
	}

	w = serve(r, uploadRequest(t, "/decompress", "hamlet.txt.huf", artifact, "ophelia"))
	if w.Code != http.StatusOK {
		t.Fatalf("decompress: %d %s", w.Code, w.Body.String())
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Fatal("roundtrip mismatch")
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename=hamlet.txt` {
		t.Errorf("Content-Disposition = %q", got)
	}

	runs, _ := s.Runs.List()
	if len(runs) != 2 || runs[0].Op != OP_DECOMPRESS || runs[1].Op != OP_COMPRESS {
		t.Fatalf("unexpected run history %+v", runs)
	}
}

func TestDecompressErrorsHTTP(t *testing.T) {
	_, r := newTestServer(t)
	artifact, _, err := huffman.Compress([]byte("classified"), "secret")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"no password", uploadRequest(t, "/decompress", "a.huf", artifact, ""), http.StatusForbidden, "password_required"},
		{"wrong password", uploadRequest(t, "/decompress", "a.huf", artifact, "guess"), http.StatusForbidden, "auth_failed"},
		{"garbage", uploadRequest(t, "/decompress", "a.huf", []byte("not an artifact"), ""), http.StatusUnprocessableEntity, "malformed_container"},
		{"truncated", uploadRequest(t, "/decompress", "a.huf", artifact[:len(artifact)-1], "secret"), http.StatusUnprocessableEntity, "malformed_container"},
		{"no file", uploadRequest(t, "/decompress", "", nil, "secret"), http.StatusBadRequest, "no_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.req)
			if w.Code != tt.status {
				t.Fatalf("status %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if code := errorCode(t, w); code != tt.code {
				t.Fatalf("error %q, want %q", code, tt.code)
			}
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	s, r := newTestServer(t)
	s.Config.MaxUploadBytes = 1024

	for _, declared := range []bool{true, false} {
		req := uploadRequest(t, "/compress", "big.bin", make([]byte, 4096), "")
		if !declared {
			// chunked upload
			req.ContentLength = -1
		}

		w := serve(r, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("declared length %v: status %d: %s", declared, w.Code, w.Body.String())
		}
		if code := errorCode(t, w); code != "too_large" {
			t.Fatalf("declared length %v: error %q", declared, code)
		}
	}

	if runs, _ := s.Runs.List(); len(runs) != 0 {
		t.Fatalf("rejected uploads were recorded: %+v", runs)
	}
}

func TestRunsAndReport(t *testing.T) {
	_, r := newTestServer(t)

	w := serve(r, uploadRequest(t, "/compress", "notes.md", []byte("aaaaaaaaab"), ""))
	if w.Code != http.StatusOK {
		t.Fatalf("compress: %d", w.Code)
	}
	run_id := w.Header().Get("X-Run-Id")

	w = serve(r, httptest.NewRequest("GET", "/runs", nil))
	var runs []*Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run_id || runs[0].Filename != "notes.md" {
		t.Fatalf("unexpected runs %s", w.Body.String())
	}
	if runs[0].Metrics.OriginalSize != 10 || runs[0].Metrics.PayloadBits != 10 {
		t.Fatalf("unexpected metrics %+v", runs[0].Metrics)
	}

	w = serve(r, httptest.NewRequest("GET", "/runs/"+run_id, nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), run_id) {
		t.Fatalf("GET /runs/%s: %d %s", run_id, w.Code, w.Body.String())
	}

	w = serve(r, httptest.NewRequest("GET", "/runs/"+run_id+"/report", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("report: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, s := range []string{"notes.md", "| Original size | 10 bytes", "Negative savings"} {
		if !strings.Contains(w.Body.String(), s) {
			t.Errorf("report is missing %q:\n%s", s, w.Body.String())
		}
	}

	w = serve(r, httptest.NewRequest("GET", "/runs/nope", nil))
	if w.Code != http.StatusNotFound || errorCode(t, w) != "run_not_found" {
		t.Fatalf("GET /runs/nope: %d %s", w.Code, w.Body.String())
	}
	w = serve(r, httptest.NewRequest("GET", "/runs/nope/report", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /runs/nope/report: %d", w.Code)
	}
}

type brokenRunStore struct {
	RunStore
}

func (brokenRunStore) List() ([]*Run, error) {
	return nil, errors.New("history is gone")
}

func TestIndexStoreError(t *testing.T) {
	s, r := newTestServer(t)
	s.Runs = brokenRunStore{s.Runs}

	w := serve(r, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "history is gone") {
		t.Fatalf("error page does not show the cause:\n%s", w.Body.String())
	}
}

func TestIndex(t *testing.T) {
	_, r := newTestServer(t)

	w := serve(r, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "No runs yet.") {
		t.Fatalf("index: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "<title>huffpack</title>") {
		t.Fatal("index does not include the head partial")
	}
	if !strings.Contains(w.Body.String(), "64.00 MiB") {
		t.Fatal("index does not show the upload limit")
	}

	serve(r, uploadRequest(t, "/compress", "photo.bmp", []byte{1, 2, 3}, ""))
	w = serve(r, httptest.NewRequest("GET", "/", nil))
	if !strings.Contains(w.Body.String(), "photo.bmp") || !strings.Contains(w.Body.String(), `class="neg"`) {
		t.Fatalf("index does not list the run:\n%s", w.Body.String())
	}
}

func TestRunFeedWebsocket(t *testing.T) {
	s, r := newTestServer(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ws, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", "", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(10 * time.Second))

	var event RunEvent
	if err := websocket.JSON.Receive(ws, &event); err != nil {
		t.Fatal(err)
	}
	if event.Type != "hello" {
		t.Fatalf("first event is %q, want hello", event.Type)
	}
	if n := s.Feed.Subscribers(); n != 1 {
		t.Fatalf("%d subscribers, want 1", n)
	}

	_, run_id, err := NewClient(srv.URL).Compress(context.Background(), "feed.txt", []byte("hello, feed"), "")
	if err != nil {
		t.Fatal(err)
	}

	if err := websocket.JSON.Receive(ws, &event); err != nil {
		t.Fatal(err)
	}
	if event.Type != "run" || event.Run == nil || event.Run.ID != run_id {
		t.Fatalf("unexpected event %+v, want run %s", event, run_id)
	}
	if event.Run.Op != OP_COMPRESS || event.Run.Filename != "feed.txt" {
		t.Fatalf("unexpected run %+v", event.Run)
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
