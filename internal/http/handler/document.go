package handler

// document.go
import (
	"errors"
	"net/http"

	"cspnonce/internal/core"
	"cspnonce/internal/csp"
	"cspnonce/internal/view"
)

var errNoNonce = errors.New("nonce не найден в контексте")

// Document отдаёт шаблон SPA со свежим nonce.
// Порядок важен: сначала чтение и штамповка, потом заголовок CSP.
// Если шаблон не прочитан, клиент получает 500 без CSP и без разметки (OWASP A05).
func Document(idx *view.Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			core.Fail(w, r, core.MethodNotAllowed())
			return
		}

		nonce := core.Nonce(r.Context())
		if nonce == "" {
			core.Fail(w, r, core.Internal("внутренняя ошибка", errNoNonce))
			return
		}

		body, err := idx.Render(nonce)
		if err != nil {
			core.Fail(w, r, core.Internal("внутренняя ошибка", err))
			return
		}

		h := w.Header()
		h.Set(csp.HeaderName, csp.Header(nonce))
		h.Set("Content-Type", "text/html; charset=utf-8")
		h.Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(body)
	}
}
