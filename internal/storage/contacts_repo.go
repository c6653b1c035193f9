package storage

// internal/storage/contacts_repo.go
import (
	"context"
	"fmt"

	"cspnonce/internal/core"

	"github.com/jmoiron/sqlx"
)

// MySQLContacts — хранилище заявок в таблице contacts.
type MySQLContacts struct {
	db *sqlx.DB
}

func NewMySQLContacts(db *sqlx.DB) *MySQLContacts {
	return &MySQLContacts{db: db}
}

func (s *MySQLContacts) Save(ctx context.Context, c Contact) error {
	const q = `
		INSERT INTO contacts (id, first_name, last_name, created_at)
		VALUES (:id, :first_name, :last_name, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, c); err != nil {
		core.LogError("save contact", map[string]interface{}{
			"id":    c.ID,
			"error": err.Error(),
		})
		return fmt.Errorf("storage: сохранение заявки: %w", err)
	}
	return nil
}

func (s *MySQLContacts) Count(ctx context.Context) (int, error) {
	var n int
	// db.GetContext — одна строка в одно значение
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM contacts`); err != nil {
		return 0, fmt.Errorf("storage: подсчёт заявок: %w", err)
	}
	return n, nil
}
