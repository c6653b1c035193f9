package core

import (
	"net/http"
)

// Server собирает http.Server с таймаутами из конфигурации,
// чтобы медленные клиенты не держали соединения (OWASP A05).
func Server(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,

		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}
