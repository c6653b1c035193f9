package csp

import "bytes"

// Placeholder — маркер в шаблоне, который заменяется nonce при отдаче.
const Placeholder = "__NONCE__"

// Stamp заменяет все вхождения Placeholder на nonce и возвращает новую разметку.
// Исходный срез не изменяется.
func Stamp(template []byte, nonce string) []byte {
	return bytes.ReplaceAll(template, []byte(Placeholder), []byte(nonce))
}

// Count считает непересекающиеся вхождения token в markup.
func Count(markup []byte, token string) int {
	if token == "" {
		return 0
	}
	return bytes.Count(markup, []byte(token))
}
