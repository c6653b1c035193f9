package style

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// IDPrefix — пространство имён для id контейнеров.
	IDPrefix = "dynamic-style"

	// NonceAttr — атрибут, которым контейнер помечается при создании.
	NonceAttr = "nonce"

	styleTag = "style"
)

// Mode — режим содержимого контейнера.
type Mode int

const (
	// ModeRules — упорядоченный список правил (SetRule).
	ModeRules Mode = iota + 1
	// ModeText — один непрозрачный CSS-текст (SetRules).
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModeRules:
		return "rule-list"
	case ModeText:
		return "raw-text"
	default:
		return "unknown"
	}
}

// Outcome — чем закончилась запись в контейнер.
type Outcome int

const (
	// OutcomeRule — правило прошло проверку и добавлено как правило.
	OutcomeRule Outcome = iota + 1
	// OutcomeRaw — правило отклонено и добавлено сырым текстом.
	OutcomeRaw
	// OutcomeReplaced — содержимое контейнера заменено целиком.
	OutcomeReplaced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRule:
		return "rule"
	case OutcomeRaw:
		return "raw"
	case OutcomeReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Result описывает одну операцию реестра.
type Result struct {
	ID      string
	Outcome Outcome
	Created bool
	// Err — причина отказа при OutcomeRaw. Вызывающему не возвращается как ошибка.
	Err error
}

// Entry — запись в режиме ModeRules.
type Entry struct {
	Text      string
	Validated bool
}

// Snapshot — копия состояния контейнера.
type Snapshot struct {
	ID       string
	Nonce    string
	HasNonce bool
	// Adopted — элемент создан не этим реестром.
	Adopted bool
	Mode    Mode
	Entries []Entry
	Text    string
}

// RuleCount — число записей в режиме ModeRules.
func (s Snapshot) RuleCount() int {
	return len(s.Entries)
}

type container struct {
	id       string
	el       Element
	nonce    string
	hasNonce bool
	adopted  bool
	mode     Mode
	entries  []Entry
	text     string
}

func (c *container) render() string {
	if c.mode == ModeText {
		return c.text
	}
	parts := make([]string, len(c.entries))
	for i, e := range c.entries {
		parts[i] = e.Text
	}
	return strings.Join(parts, "\n")
}

func (c *container) snapshot() Snapshot {
	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)
	return Snapshot{
		ID:       c.id,
		Nonce:    c.nonce,
		HasNonce: c.hasNonce,
		Adopted:  c.adopted,
		Mode:     c.mode,
		Entries:  entries,
		Text:     c.render(),
	}
}

// Registry создаёт и переиспользует <style>-контейнеры, помеченные nonce.
// Все операции синхронны и атомарны относительно друг друга.
type Registry struct {
	mu       sync.Mutex
	doc      Document
	nonces   NonceProvider
	validate func(rule string) error
	log      zerolog.Logger

	seq   uint64
	byID  map[string]*container
	order []string
}

// Option настраивает Registry.
type Option func(*Registry)

// WithLogger задаёт канал диагностики.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithValidator подменяет проверку правил. Ошибка или паника валидатора
// считается отказом вставки.
func WithValidator(fn func(rule string) error) Option {
	return func(r *Registry) {
		if fn != nil {
			r.validate = fn
		}
	}
}

// New создаёт реестр поверх doc. nonces может быть nil — тогда контейнеры
// создаются без nonce.
func New(doc Document, nonces NonceProvider, opts ...Option) *Registry {
	r := &Registry{
		doc:      doc,
		nonces:   nonces,
		validate: ValidateRule,
		log:      zerolog.Nop(),
		byID:     make(map[string]*container),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BootDocument — документ, из которого при загрузке читается nonce.
type BootDocument interface {
	Document
	MetaReader
}

// Boot читает nonce из документа один раз и создаёт реестр с этим nonce.
// Отсутствие nonce не ошибка: пишем предупреждение, и динамические стили
// будут заблокированы строгой CSP.
func Boot(doc BootDocument, opts ...Option) (*Registry, bool) {
	r := New(doc, nil, opts...)
	nonce, ok := MetaNonce{Source: doc}.ReadNonce()
	if !ok {
		r.log.Warn().Str("meta", NonceMetaName).Msg("CSP nonce не найден в meta; проверьте штамповку на сервере")
	}
	r.nonces = FixedNonce(nonce)
	return r, ok
}

// NormalizeID добавляет IDPrefix, если его ещё нет. Пустой id остаётся пустым.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, IDPrefix+"-") {
		return id
	}
	return IDPrefix + "-" + id
}

// SetRule добавляет selector{declarations} в контейнер id. Пустой id — всегда
// новый контейнер. Если правило отклонено, его текст добавляется как есть,
// а Result.Outcome == OutcomeRaw.
func (r *Registry) SetRule(selector, declarations, id string) Result {
	rule := selector + "{" + declarations + "}"

	r.mu.Lock()
	defer r.mu.Unlock()

	c, created := r.resolveLocked(id)
	if c.mode == ModeText {
		c.entries = nil
		if c.text != "" {
			c.entries = append(c.entries, Entry{Text: c.text})
		}
		c.text = ""
		c.mode = ModeRules
	}

	res := Result{ID: c.id, Created: created}
	if err := r.check(rule); err != nil {
		c.entries = append(c.entries, Entry{Text: rule})
		res.Outcome = OutcomeRaw
		res.Err = err
		r.log.Warn().Err(err).Str("id", c.id).Str("rule", rule).Msg("правило отклонено, добавлено как текст")
	} else {
		c.entries = append(c.entries, Entry{Text: rule, Validated: true})
		res.Outcome = OutcomeRule
		r.log.Debug().Str("id", c.id).Str("rule", rule).Msg("правило добавлено")
	}
	c.el.SetTextContent(c.render())
	return res
}

// SetRules заменяет всё содержимое контейнера id на rulesText без проверки.
func (r *Registry) SetRules(rulesText, id string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, created := r.resolveLocked(id)
	c.mode = ModeText
	c.entries = nil
	c.text = rulesText
	c.el.SetTextContent(rulesText)

	r.log.Debug().Str("id", c.id).Int("bytes", len(rulesText)).Msg("содержимое контейнера заменено")
	return Result{ID: c.id, Outcome: OutcomeReplaced, Created: created}
}

// Container возвращает снимок контейнера по id (с нормализацией).
func (r *Registry) Container(id string) (Snapshot, bool) {
	id = NormalizeID(id)
	if id == "" {
		return Snapshot{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return Snapshot{}, false
	}
	return c.snapshot(), true
}

// Containers возвращает снимки в порядке регистрации.
func (r *Registry) Containers() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].snapshot())
	}
	return out
}

// Len — число контейнеров в реестре.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *Registry) resolveLocked(id string) (*container, bool) {
	id = NormalizeID(id)
	if id == "" {
		return r.createLocked(r.nextIDLocked()), true
	}
	if c, ok := r.byID[id]; ok {
		return c, false
	}
	if el := r.doc.GetElementByID(id); el != nil {
		return r.adoptLocked(id, el), false
	}
	return r.createLocked(id), true
}

// nextIDLocked выдаёт следующий свободный id. Счётчик только растёт.
func (r *Registry) nextIDLocked() string {
	for {
		r.seq++
		id := IDPrefix + "-" + strconv.FormatUint(r.seq, 10)
		if _, taken := r.byID[id]; taken {
			continue
		}
		if r.doc.GetElementByID(id) != nil {
			continue
		}
		return id
	}
}

func (r *Registry) createLocked(id string) *container {
	el := r.doc.CreateElement(styleTag)
	el.SetID(id)
	c := &container{id: id, el: el, mode: ModeRules}

	// nonce ставится только здесь, до вставки в документ.
	if nonce, ok := r.readNonce(); ok {
		el.SetAttribute(NonceAttr, nonce)
		c.nonce, c.hasNonce = nonce, true
	} else {
		r.log.Warn().Str("id", id).Msg("CSP nonce недоступен; динамический <style> будет заблокирован строгой CSP")
	}

	r.doc.AppendChild(el)
	r.registerLocked(c)
	return c
}

// adoptLocked берёт под управление элемент, созданный не реестром.
// Существующий текст становится содержимым в режиме ModeText; nonce не добавляется.
func (r *Registry) adoptLocked(id string, el Element) *container {
	nonce, hasNonce := el.Attribute(NonceAttr)
	c := &container{
		id:       id,
		el:       el,
		nonce:    nonce,
		hasNonce: hasNonce,
		adopted:  true,
		mode:     ModeText,
		text:     el.TextContent(),
	}
	r.log.Warn().Str("id", id).Bool("nonce", hasNonce).Msg("id занят элементом вне реестра; элемент переиспользуется")
	r.registerLocked(c)
	return c
}

func (r *Registry) registerLocked(c *container) {
	r.byID[c.id] = c
	r.order = append(r.order, c.id)
}

func (r *Registry) readNonce() (string, bool) {
	if r.nonces == nil {
		return "", false
	}
	return r.nonces.ReadNonce()
}

// check прогоняет валидатор; паника валидатора тоже считается отказом.
func (r *Registry) check(rule string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: вставка прервана: %v", ErrInvalidRule, p)
		}
	}()
	return r.validate(rule)
}
