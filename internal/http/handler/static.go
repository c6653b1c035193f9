package handler

// static.go
import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// Static отдаёт существующие файлы из root как есть. Всё остальное,
// а также сам шаблон (с неподставленным плейсхолдером), уходит в fallback.
func Static(root, indexFile string, fallback http.Handler) http.HandlerFunc {
	files := http.FileServer(http.Dir(root))
	index := "/" + indexFile

	return func(w http.ResponseWriter, r *http.Request) {
		readOnly := r.Method == http.MethodGet || r.Method == http.MethodHead
		name := path.Clean("/" + r.URL.Path)
		if readOnly && name != index && isRegularFile(filepath.Join(root, filepath.FromSlash(name))) {
			files.ServeHTTP(w, r)
			return
		}
		fallback.ServeHTTP(w, r)
	}
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
