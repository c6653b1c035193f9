package style

import (
	"strings"

	"cspnonce/internal/csp"
)

// NonceMetaName — имя meta-тега, в который сервер штампует nonce.
const NonceMetaName = "csp-nonce"

// NonceProvider отдаёт nonce страницы. ok == false — nonce нет, это штатная ситуация.
type NonceProvider interface {
	ReadNonce() (nonce string, ok bool)
}

// MetaNonce читает nonce из <meta name="csp-nonce">. Только чтение, без побочных эффектов.
type MetaNonce struct {
	Source MetaReader
}

func (m MetaNonce) ReadNonce() (string, bool) {
	if m.Source == nil {
		return "", false
	}
	v, ok := m.Source.MetaContent(NonceMetaName)
	v = strings.TrimSpace(v)
	// Неотштампованный плейсхолдер — не nonce.
	if !ok || v == "" || v == csp.Placeholder {
		return "", false
	}
	return v, true
}

// FixedNonce — nonce, уже известный вызывающему. Пустая строка означает «нет nonce».
type FixedNonce string

func (f FixedNonce) ReadNonce() (string, bool) {
	return string(f), f != ""
}
