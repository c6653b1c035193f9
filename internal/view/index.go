package view

// index.go
import (
	"fmt"
	"os"
	"path/filepath"

	"cspnonce/internal/core"
	"cspnonce/internal/csp"
)

// Index — шаблон SPA-документа (index.html сборки фронтенда).
// Файл читается на каждый запрос: после деплоя сразу отдаётся свежая сборка.
type Index struct {
	path string
}

// NewIndex создаёт шаблон staticDir/file.
func NewIndex(staticDir, file string) *Index {
	return &Index{path: filepath.Join(staticDir, file)}
}

// Path — путь к файлу шаблона.
func (i *Index) Path() string {
	return i.path
}

// Render читает шаблон и штампует nonce во все плейсхолдеры.
// При ошибке чтения разметка не возвращается вовсе (OWASP A05).
func (i *Index) Render(nonce string) ([]byte, error) {
	if nonce == "" {
		return nil, fmt.Errorf("view: пустой nonce")
	}
	raw, err := os.ReadFile(i.path)
	if err != nil {
		return nil, fmt.Errorf("view: чтение шаблона %s: %w", i.path, err)
	}
	if csp.Count(raw, csp.Placeholder) == 0 {
		core.LogWarn("В шаблоне нет плейсхолдера nonce", map[string]interface{}{
			"template":    i.path,
			"placeholder": csp.Placeholder,
		})
	}
	return csp.Stamp(raw, nonce), nil
}
