// security.go
package middleware

import (
	"crypto/sha256"
	"net/http"

	"cspnonce/internal/core"
	"cspnonce/internal/csp"

	"github.com/gorilla/csrf"
	"github.com/unrolled/secure"
)

// Nonce выдаёт свежий CSP nonce на каждый запрос и кладёт его в контекст.
// Заголовок CSP здесь не ставится: его выставляет обработчик документа
// после успешной штамповки, чтобы nonce не ушёл с ответом об ошибке.
func Nonce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce, err := csp.GenerateNonce()
		if err != nil {
			core.Fail(w, r, core.Internal("не удалось сгенерировать nonce", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(core.WithNonce(r.Context(), nonce)))
	})
}

// SecureHeaders — остальные заголовки безопасности через unrolled/secure (OWASP A05).
// CSP не задаётся: политика зависит от nonce и собирается в пакете csp.
func SecureHeaders(cfg core.Config) func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		FrameDeny:               true,
		ContentTypeNosniff:      true,
		ReferrerPolicy:          "strict-origin-when-cross-origin",
		PermissionsPolicy:       "camera=(), microphone=(), geolocation=(), payment=()",
		CrossOriginOpenerPolicy: "same-origin",
		STSSeconds:              31536000,
		STSIncludeSubdomains:    true,
		STSPreload:              true,
		SSLProxyHeaders:         map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:           !cfg.IsProd(),
	})
	return s.Handler
}

// CSRF защищает небезопасные методы токеном gorilla/csrf (OWASP A01).
// Без SECURE запросы помечаются как plaintext HTTP, иначе проверка Referer
// отклонит локальную разработку.
func CSRF(cfg core.Config) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		derive32(cfg.CSRFKey),
		csrf.Secure(cfg.Secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// derive32 — 32-байтовый ключ CSRF из секрета произвольной длины (OWASP A02).
func derive32(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	ae := core.Forbidden("CSRF-токен отсутствует или неверен")
	ae.Err = csrf.FailureReason(r)
	core.Fail(w, r, ae)
}
