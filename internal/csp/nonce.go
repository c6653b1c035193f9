// Package csp собирает серверную часть жизненного цикла nonce:
// генерацию, заголовок Content-Security-Policy и штамповку разметки.
package csp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// nonceBytes — размер случайной части nonce.
	nonceBytes = 16

	// NonceLength — длина nonce после base64 (с паддингом).
	NonceLength = 24
)

// GenerateNonce возвращает новый nonce из crypto/rand.
// Один nonce живёт ровно один ответ (OWASP A02).
func GenerateNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csp: генерация nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
