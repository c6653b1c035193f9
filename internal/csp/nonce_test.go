package csp

import (
	"encoding/base64"
	"testing"
)

func TestGenerateNonceUnique(t *testing.T) {
	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		nonce, err := GenerateNonce()
		if err != nil {
			t.Fatalf("GenerateNonce: %v", err)
		}
		if len(nonce) != NonceLength {
			t.Fatalf("expected length %d, got %d (%q)", NonceLength, len(nonce), nonce)
		}
		if _, dup := seen[nonce]; dup {
			t.Fatalf("duplicate nonce after %d calls: %q", i, nonce)
		}
		seen[nonce] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct nonces, got %d", n, len(seen))
	}
}

func TestGenerateNonceDecodesTo16Bytes(t *testing.T) {
	nonce, err := GenerateNonce()
	if err != nil {
		t.Fatalf("GenerateNonce: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		t.Fatalf("nonce is not std base64: %v", err)
	}
	if len(raw) != 16 {
		t.Fatalf("expected 16 random bytes, got %d", len(raw))
	}
}
