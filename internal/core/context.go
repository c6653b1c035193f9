package core

// context.go
import (
	"context"

	"github.com/unrolled/secure"
)

// WithNonce кладёт CSP nonce в контекст запроса. Ключ общий с unrolled/secure,
// поэтому secure.CSPNonce(ctx) видит тот же nonce.
func WithNonce(ctx context.Context, nonce string) context.Context {
	return secure.WithCSPNonce(ctx, nonce)
}

// Nonce возвращает nonce текущего запроса или "" если middleware его не выставил.
func Nonce(ctx context.Context) string {
	return secure.CSPNonce(ctx)
}
