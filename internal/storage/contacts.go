package storage

// internal/storage/contacts.go
import (
	"context"
	"time"
)

// Contact — заявка из формы контакта.
type Contact struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContactStore хранит заявки. Реализации: память и MySQL.
type ContactStore interface {
	Save(ctx context.Context, c Contact) error
	Count(ctx context.Context) (int, error)
}
