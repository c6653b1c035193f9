package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cspnonce/internal/core"
	"cspnonce/internal/csp"
	httpx "cspnonce/internal/http"
	"cspnonce/internal/storage"
	"cspnonce/internal/style"
	"cspnonce/internal/view"

	"github.com/rs/zerolog"
)

const page = `<!doctype html><html><head>
<meta name="csp-nonce" content="__NONCE__">
<style nonce="__NONCE__">body{margin:0}</style>
</head><body><script nonce="__NONCE__">boot()</script></body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := core.Config{Env: "test", StaticDir: dir, IndexFile: "index.html", CSRFKey: "0123456789abcdef0123456789abcdef"}
	srv := httptest.NewServer(httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		Index:    view.NewIndex(dir, "index.html"),
		Contacts: storage.NewMemoryContacts(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyServedDocument(t *testing.T) {
	srv := newServer(t)

	rep, doc, err := verify(context.Background(), srv.Client(), srv.URL+"/", zerolog.Nop())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !rep.ok() {
		t.Fatalf("expected consistent nonce, got %+v", rep)
	}
	if rep.Attributes != 2 || len(rep.HeaderNonce) != csp.NonceLength {
		t.Fatalf("unexpected report %+v", rep)
	}

	if len(rep.Containers) != 2 {
		t.Fatalf("expected 2 runtime containers, got %d", len(rep.Containers))
	}
	for _, c := range rep.Containers {
		if !c.HasNonce || c.Nonce != rep.HeaderNonce {
			t.Fatalf("container %s missing request nonce", c.ID)
		}
	}
	if c := rep.Containers[0]; c.ID != "dynamic-style-service" || c.Mode != style.ModeRules || c.RuleCount() != 1 {
		t.Fatalf("unexpected rule container %+v", c)
	}
	if c := rep.Containers[1]; c.Mode != style.ModeText || c.Text != demoHoverRules {
		t.Fatalf("unexpected text container %+v", c)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `<style id="dynamic-style-service" nonce="`+rep.HeaderNonce+`">`) {
		t.Fatalf("rendered document lacks tagged container: %s", buf.String())
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(csp.HeaderName, csp.Header("aaaa"))
		_, _ = w.Write([]byte(`<html><head><meta name="csp-nonce" content="aaaa"></head><body><script nonce="bbbb"></script></body></html>`))
	}))
	defer srv.Close()

	rep, _, err := verify(context.Background(), srv.Client(), srv.URL, zerolog.Nop())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.ok() || len(rep.Mismatched) != 1 {
		t.Fatalf("expected mismatch to be reported, got %+v", rep)
	}

	var out bytes.Buffer
	printReport(&out, rep)
	if !strings.HasPrefix(out.String(), "FAIL") {
		t.Fatalf("unexpected report output %q", out.String())
	}
}

func TestVerifyRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, _, err := verify(context.Background(), srv.Client(), srv.URL, zerolog.Nop()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestVerifyRejectsOversizedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(csp.HeaderName, csp.Header("aaaa"))
		_, _ = w.Write([]byte(`<html><head><meta name="csp-nonce" content="aaaa"></head><body>`))
		_, _ = w.Write(bytes.Repeat([]byte("x"), maxBody))
	}))
	defer srv.Close()

	if _, _, err := verify(context.Background(), srv.Client(), srv.URL, zerolog.Nop()); err == nil {
		t.Fatal("expected error for a document over the size limit")
	}
}

func TestVerifyAcceptsDocumentAtLimit(t *testing.T) {
	head := `<html><head><meta name="csp-nonce" content="aaaa"></head><body>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(csp.HeaderName, csp.Header("aaaa"))
		_, _ = w.Write([]byte(head))
		_, _ = w.Write(bytes.Repeat([]byte("x"), maxBody-len(head)))
	}))
	defer srv.Close()

	rep, _, err := verify(context.Background(), srv.Client(), srv.URL, zerolog.Nop())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !rep.ok() {
		t.Fatalf("expected consistent report, got %+v", rep)
	}
}
