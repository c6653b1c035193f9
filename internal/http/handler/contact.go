package handler

// contact.go
import (
	"encoding/json"
	"html"
	"net/http"
	"strings"
	"time"

	"cspnonce/internal/core"
	"cspnonce/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/microcosm-cc/bluemonday"
)

// Значения формы контакта по умолчанию.
const (
	DefaultFirstName = "jorge"
	DefaultLastName  = "perez"
)

// ContactInput — тело POST /api/contact.
type ContactInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

type contactForm struct {
	CSRFToken   string       `json:"csrf_token"`
	Defaults    ContactInput `json:"defaults"`
	Submissions int          `json:"submissions"`
}

// Глобальные валидатор и санитайзер (OWASP A03).
var (
	validate  = validator.New()
	sanitizer = bluemonday.StrictPolicy()
)

// Contact обслуживает форму контакта.
type Contact struct {
	Store storage.ContactStore
	Now   func() time.Time
}

// Form (GET) — CSRF-токен и значения по умолчанию.
func (h *Contact) Form(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.Count(r.Context())
	if err != nil {
		core.Fail(w, r, core.Internal("хранилище недоступно", err))
		return
	}
	token := csrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	w.Header().Set("Cache-Control", "no-store")
	core.JSON(w, http.StatusOK, contactForm{
		CSRFToken:   token,
		Defaults:    ContactInput{FirstName: DefaultFirstName, LastName: DefaultLastName},
		Submissions: n,
	})
}

// Submit (POST) — проверка, очистка и сохранение заявки.
func (h *Contact) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16) // 64KB (OWASP A05).

	var in ContactInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		core.Fail(w, r, core.BadRequest("неверный JSON", err))
		return
	}

	in.FirstName = plainText(in.FirstName)
	in.LastName = plainText(in.LastName)

	if errs := contactErrors(in); len(errs) > 0 {
		core.Fail(w, r, core.Validation(errs))
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	c := storage.Contact{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now().UTC(),
	}
	if err := h.Store.Save(r.Context(), c); err != nil {
		core.Fail(w, r, core.Internal("не удалось сохранить заявку", err))
		return
	}

	core.LogInfo("Заявка сохранена", map[string]interface{}{"id": c.ID})
	core.JSON(w, http.StatusCreated, c)
}

// plainText убирает разметку и возвращает обычный текст: bluemonday экранирует
// &, < и ', а хранить и проверять длину надо по символам, а не по сущностям.
// Экранирует тот, кто выводит значение в HTML.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(strings.TrimSpace(s))))
}

func contactErrors(in ContactInput) map[string]string {
	errs := map[string]string{}
	err := validate.Struct(in)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = "Некорректные данные"
		return errs
	}
	for _, e := range verrs {
		field := "first_name"
		if e.Field() == "LastName" {
			field = "last_name"
		}
		switch e.Tag() {
		case "required":
			errs[field] = "Поле обязательно"
		case "max":
			errs[field] = "Слишком длинное значение (макс. 100)"
		default:
			errs[field] = "Некорректное значение"
		}
	}
	return errs
}
