package csp

import (
	"strings"

	"github.com/unrolled/secure/cspbuilder"
)

// HeaderName — заголовок, в котором уходит политика.
const HeaderName = "Content-Security-Policy"

const (
	sourceSelf = "'self'"
	sourceNone = "'none'"
	schemeData = "data:"
)

type directive struct {
	name      string
	sources   []string
	withNonce bool
}

// policySkeleton — фиксированный порядок директив. Nonce добавляется только
// в script-src и style-src.
var policySkeleton = []directive{
	{name: cspbuilder.DefaultSrc, sources: []string{sourceSelf}},
	{name: cspbuilder.ScriptSrc, sources: []string{sourceSelf}, withNonce: true},
	{name: cspbuilder.StyleSrc, sources: []string{sourceSelf}, withNonce: true},
	{name: cspbuilder.ImgSrc, sources: []string{sourceSelf, schemeData}},
	{name: cspbuilder.FontSrc, sources: []string{sourceSelf}},
	{name: cspbuilder.ObjectSrc, sources: []string{sourceNone}},
	{name: cspbuilder.BaseURI, sources: []string{sourceSelf}},
	{name: cspbuilder.FrameAncestors, sources: []string{sourceNone}},
}

// NonceSource форматирует источник вида 'nonce-<n>'.
func NonceSource(nonce string) string {
	return "'nonce-" + nonce + "'"
}

// Compose возвращает упорядоченный список директив для данного nonce.
// Результат собирается заново на каждый вызов и нигде не кешируется.
func Compose(nonce string) []string {
	out := make([]string, 0, len(policySkeleton))
	for _, d := range policySkeleton {
		parts := make([]string, 0, len(d.sources)+2)
		parts = append(parts, d.name)
		parts = append(parts, d.sources...)
		if d.withNonce {
			parts = append(parts, NonceSource(nonce))
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out
}

// Header возвращает значение заголовка Content-Security-Policy.
func Header(nonce string) string {
	return strings.Join(Compose(nonce), "; ")
}

// NonceFromHeader достаёт nonce из значения заголовка: сначала из style-src,
// затем из script-src.
func NonceFromHeader(value string) (string, bool) {
	byName := make(map[string][]string)
	for _, raw := range strings.Split(value, ";") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		byName[strings.ToLower(fields[0])] = fields[1:]
	}

	for _, name := range []string{cspbuilder.StyleSrc, cspbuilder.ScriptSrc} {
		for _, src := range byName[name] {
			if strings.HasPrefix(src, "'nonce-") && strings.HasSuffix(src, "'") && len(src) > len("'nonce-'") {
				return src[len("'nonce-") : len(src)-1], true
			}
		}
	}
	return "", false
}
