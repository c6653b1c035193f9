// common.go
package middleware

import (
	"net/http"
	"time"

	"cspnonce/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
)

// UseCommon подключает общие middleware: request id, реальный IP,
// access-лог, восстановление после паник, таймаут и заголовки безопасности.
func UseCommon(r chi.Router, cfg core.Config) {
	r.Use(middleware.RequestID)
	if len(cfg.TrustedProxies) > 0 {
		r.Use(core.TrustedProxy(cfg.TrustedProxies))
	}
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(core.Logger()))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(SecureHeaders(cfg))
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("ip", r.RemoteAddr).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("HTTP запрос")
}
