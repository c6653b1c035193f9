package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"cspnonce/internal/core"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate применяет SQL-миграции по порядку имён (001_, 002_, ...).
// Применённые записываются в таблицу migrations и повторно не выполняются.
// Файл выполняется по одному выражению: DSN запрещает multiStatements.
// MySQL фиксирует DDL сразу, откатить частично применённый файл нельзя,
// поэтому выражения в миграциях должны быть повторяемыми (IF NOT EXISTS).
func Migrate(ctx context.Context, db *sqlx.DB) error {
	const createTable = `
		CREATE TABLE IF NOT EXISTS migrations (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("storage: таблица миграций: %w", err)
	}

	names, err := migrationNames(migrationFiles)
	if err != nil {
		return err
	}

	applied := 0
	for _, name := range names {
		var n int
		if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM migrations WHERE name = ?`, name); err != nil {
			return fmt.Errorf("storage: проверка миграции %s: %w", name, err)
		}
		if n > 0 {
			continue
		}

		body, err := fs.ReadFile(migrationFiles, path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("storage: чтение миграции %s: %w", name, err)
		}

		for i, stmt := range splitStatements(string(body)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("storage: миграция %s, выражение %d: %w", name, i+1, err)
			}
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO migrations (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("storage: запись миграции %s: %w", name, err)
		}
		applied++
	}

	core.LogInfo("Миграции завершены успешно", map[string]interface{}{
		"files":   len(names),
		"applied": applied,
	})
	return nil
}

// migrationNames — имена *.sql в каталоге migrations, отсортированные.
func migrationNames(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("storage: список миграций: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// splitStatements делит SQL на выражения по ';' вне строк, идентификаторов
// в обратных кавычках и комментариев. Пустые выражения отбрасываются.
func splitStatements(src string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote byte
	)
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			out = append(out, stmt)
		}
		cur.Reset()
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == '\\' && quote != '`' && i+1 < len(src) {
				i++
				cur.WriteByte(src[i])
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
			cur.WriteByte(c)
		case c == '-' && strings.HasPrefix(src[i:], "-- "), c == '#':
			// однострочный комментарий до конца строки
			for i < len(src) && src[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case c == '/' && strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = len(src)
			} else {
				i += end + 3
			}
			cur.WriteByte(' ')
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}
