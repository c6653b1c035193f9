package httpx

import (
	"net/http"

	"cspnonce/internal/core"
	"cspnonce/internal/http/handler"
	"cspnonce/internal/http/middleware"
	"cspnonce/internal/storage"
	"cspnonce/internal/view"

	"github.com/go-chi/chi/v5"
)

// Deps — зависимости HTTP-слоя.
type Deps struct {
	Config   core.Config
	Index    *view.Index
	Contacts storage.ContactStore
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	middleware.UseCommon(r, d.Config) // request id, access log, recover, timeout, secure headers

	// health
	r.Get("/healthz", handler.Health)

	// API формы контакта под CSRF
	contact := &handler.Contact{Store: d.Contacts}
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.CSRF(d.Config))
		api.Get("/contact", contact.Form)
		api.Post("/contact", contact.Submit)
		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			core.Fail(w, r, core.NotFound("ресурс не найден"))
		})
		api.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			core.Fail(w, r, core.MethodNotAllowed())
		})
	})

	// статика сборки, иначе документ SPA с nonce
	doc := middleware.Nonce(handler.Document(d.Index))
	r.Handle("/*", handler.Static(d.Config.StaticDir, d.Config.IndexFile, doc))
	return r
}
