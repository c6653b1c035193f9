package app

// internal/app/app.go
import (
	"context"
	"fmt"
	"net/http"
	"os"

	"cspnonce/internal/core"
	httpx "cspnonce/internal/http"
	"cspnonce/internal/storage"
	"cspnonce/internal/view"

	"github.com/jmoiron/sqlx"
)

// App — собранное приложение: HTTP-обработчик и ресурсы, которые надо закрыть.
type App struct {
	Handler http.Handler
	db      *sqlx.DB
}

// New собирает приложение. С DB_DSN заявки пишутся в MySQL, иначе в память.
func New(ctx context.Context, cfg core.Config) (*App, error) {
	a := &App{}

	var contacts storage.ContactStore
	if cfg.DBDSN != "" {
		db, err := storage.NewDB(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("app: база данных: %w", err)
		}
		a.db = db
		contacts = storage.NewMySQLContacts(db)
	} else {
		core.LogWarn("DB_DSN не задан, заявки хранятся в памяти", nil)
		contacts = storage.NewMemoryContacts()
	}

	idx := view.NewIndex(cfg.StaticDir, cfg.IndexFile)
	if !fileExists(idx.Path()) {
		// Не фатально: шаблон может появиться после сборки фронтенда,
		// до тех пор документ отвечает 500.
		core.LogWarn("Шаблон документа не найден", map[string]interface{}{"template": idx.Path()})
	}

	a.Handler = httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		Index:    idx,
		Contacts: contacts,
	})
	return a, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() error {
	return storage.Close(a.db)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
