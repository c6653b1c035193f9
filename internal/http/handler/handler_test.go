package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cspnonce/internal/core"
	"cspnonce/internal/csp"
	"cspnonce/internal/storage"
	"cspnonce/internal/view"
)

const page = `<!doctype html><html><head>
<meta name="csp-nonce" content="__NONCE__">
<style nonce="__NONCE__">body{margin:0}</style>
</head><body><script nonce="__NONCE__" src="/assets/app.js"></script></body></html>`

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log('__NONCE__')"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func withNonce(r *http.Request, nonce string) *http.Request {
	return r.WithContext(core.WithNonce(r.Context(), nonce))
}

func TestDocumentStampsAndSetsPolicy(t *testing.T) {
	h := Document(view.NewIndex(writeSite(t), "index.html"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withNonce(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "n0nce=="))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got, want := rec.Header().Get(csp.HeaderName), csp.Header("n0nce=="); got != want {
		t.Fatalf("CSP header = %q, want %q", got, want)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("document must not be cached")
	}
	body := rec.Body.Bytes()
	if csp.Count(body, "n0nce==") != 3 || csp.Count(body, csp.Placeholder) != 0 {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestDocumentHead(t *testing.T) {
	h := Document(view.NewIndex(writeSite(t), "index.html"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withNonce(httptest.NewRequest(http.MethodHead, "/", nil), "n"))

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("HEAD: code=%d body=%d bytes", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get(csp.HeaderName) == "" {
		t.Fatal("HEAD must still carry the policy")
	}
}

func TestDocumentMissingTemplate(t *testing.T) {
	h := Document(view.NewIndex(t.TempDir(), "index.html"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withNonce(httptest.NewRequest(http.MethodGet, "/", nil), "secret-nonce"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get(csp.HeaderName) != "" {
		t.Fatal("CSP header must not be sent when the template is unreadable")
	}
	if strings.Contains(rec.Body.String(), "secret-nonce") || strings.Contains(rec.Body.String(), "<html") {
		t.Fatalf("failure response leaked markup or nonce: %s", rec.Body.String())
	}
}

func TestDocumentWithoutNonce(t *testing.T) {
	h := Document(view.NewIndex(writeSite(t), "index.html"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestDocumentRejectsPost(t *testing.T) {
	h := Document(view.NewIndex(writeSite(t), "index.html"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withNonce(httptest.NewRequest(http.MethodPost, "/", nil), "n"))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET, HEAD" {
		t.Fatalf("expected 405 with Allow, got %d %q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestStaticServesFilesAndFallsBack(t *testing.T) {
	dir := writeSite(t)
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Static(dir, "index.html", fallback)

	cases := []struct {
		path string
		code int
	}{
		{"/assets/app.js", http.StatusOK},
		{"/assets", http.StatusTeapot},
		{"/index.html", http.StatusTeapot},
		{"/missing.css", http.StatusTeapot},
		{"/../../etc/passwd", http.StatusTeapot},
		{"/", http.StatusTeapot},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.code, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	if rec.Body.String() != "console.log('__NONCE__')" {
		t.Fatalf("static file must be served unmodified, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assets/app.js", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("POST must not be served from disk, got %d", rec.Code)
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, storage.Contact) error { return errors.New("db down") }
func (failingStore) Count(context.Context) (int, error) { return 0, errors.New("db down") }

func TestContactSubmit(t *testing.T) {
	store := storage.NewMemoryContacts()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := &Contact{Store: store, Now: func() time.Time { return fixed }}

	body := `{"first_name":"  <b>jorge</b> ","last_name":"perez"}`
	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	saved := store.All()
	if len(saved) != 1 {
		t.Fatalf("expected one saved contact, got %d", len(saved))
	}
	if saved[0].FirstName != "jorge" || saved[0].LastName != "perez" {
		t.Fatalf("unexpected contact %+v", saved[0])
	}
	if saved[0].ID == "" || !saved[0].CreatedAt.Equal(fixed) {
		t.Fatalf("missing id or timestamp: %+v", saved[0])
	}
}

func TestContactSubmitValidation(t *testing.T) {
	h := &Contact{Store: storage.NewMemoryContacts()}

	cases := []struct {
		name string
		body string
		code int
	}{
		{"empty first name", `{"first_name":"","last_name":"perez"}`, http.StatusUnprocessableEntity},
		{"markup only", `{"first_name":"<script></script>","last_name":"perez"}`, http.StatusUnprocessableEntity},
		{"too long", `{"first_name":"` + strings.Repeat("a", 101) + `","last_name":"perez"}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"first_name":"a","last_name":"b","admin":true}`, http.StatusBadRequest},
		{"not json", `first_name=a`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(tc.body)))
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.code, rec.Code)
		}
	}
}

func TestContactSubmitStoresPlainText(t *testing.T) {
	store := storage.NewMemoryContacts()
	h := &Contact{Store: store}

	// 100 символов с амперсандом: лимит считается по тексту, не по сущностям.
	first := strings.Repeat("a", 98) + "&b"
	body := `{"first_name":"` + first + `","last_name":"O'Neil <i>Jr</i>"}`
	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	saved := store.All()
	if len(saved) != 1 {
		t.Fatalf("expected one saved contact, got %d", len(saved))
	}
	if saved[0].FirstName != first {
		t.Fatalf("first name altered: %q", saved[0].FirstName)
	}
	if saved[0].LastName != "O'Neil Jr" {
		t.Fatalf("last name not stored as plain text: %q", saved[0].LastName)
	}
	if strings.Contains(rec.Body.String(), "&amp;") || strings.Contains(rec.Body.String(), "&#39;") {
		t.Fatalf("response carries HTML entities: %s", rec.Body.String())
	}
}

func TestContactStoreFailure(t *testing.T) {
	h := &Contact{Store: failingStore{}}
	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"first_name":"a","last_name":"b"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Fatal("internal error must not reach the client")
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}
