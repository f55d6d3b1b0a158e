package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"edge_trading/internal/models"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func rsaTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		testKey = key
	})
	return testKey
}

func pkcs8PEM(t *testing.T) string {
	der, err := x509.MarshalPKCS8PrivateKey(rsaTestKey(t))
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func pkcs1PEM(t *testing.T) string {
	der := x509.MarshalPKCS1PrivateKey(rsaTestKey(t))
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

func verify(t *testing.T, message, signature string) {
	t.Helper()
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		t.Fatalf("signature is not base64: %v", err)
	}
	digest := sha256.Sum256([]byte(message))
	err = rsa.VerifyPSS(&rsaTestKey(t).PublicKey, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{SaltLength: 32})
	if err != nil {
		t.Fatalf("signature does not verify for %q: %v", message, err)
	}
}

func TestParsePrivateKeyFormats(t *testing.T) {
	bare := func(p string) string {
		block, _ := pem.Decode([]byte(p))
		return base64.StdEncoding.EncodeToString(block.Bytes)
	}
	inputs := map[string]string{
		"pem pkcs8":         pkcs8PEM(t),
		"pem pkcs1":         pkcs1PEM(t),
		"bare pkcs8":        bare(pkcs8PEM(t)),
		"bare pkcs1":        bare(pkcs1PEM(t)),
		"bare with newline": bare(pkcs1PEM(t))[:40] + "\n" + bare(pkcs1PEM(t))[40:],
		"pem on one line":   strings.Join(strings.Fields(pkcs8PEM(t)), " "),
		"pem escaped":       strings.ReplaceAll(pkcs1PEM(t), "\n", `\n`),
	}
	for name, input := range inputs {
		key, err := ParsePrivateKey(input)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !key.Equal(rsaTestKey(t)) {
			t.Fatalf("%s: parsed a different key", name)
		}
	}
}

func TestParsePrivateKeyFailure(t *testing.T) {
	for _, input := range []string{"", "not a key!", base64.StdEncoding.EncodeToString([]byte("garbage"))} {
		_, err := ParsePrivateKey(input)
		var kpe *KeyParseError
		if !errors.As(err, &kpe) {
			t.Fatalf("expected KeyParseError for %q, got %v", input, err)
		}
		if !errors.Is(err, models.ErrAuth) {
			t.Fatalf("expected ErrAuth for %q", input)
		}
	}

	_, err := ParsePrivateKey(base64.StdEncoding.EncodeToString([]byte("garbage")))
	if !strings.Contains(err.Error(), "base64/pkcs8") || !strings.Contains(err.Error(), "base64/pkcs1") {
		t.Fatalf("expected every attempt in error, got %v", err)
	}
}

func TestSignerHeaders(t *testing.T) {
	signer, err := NewSigner("key-123", pkcs8PEM(t))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	now := time.UnixMilli(1700000000123)
	h, err := signer.Headers("get", "/trade-api/v2/markets?limit=50&status=open", now)
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}

	if h.Get(HeaderKey) != "key-123" {
		t.Fatalf("unexpected key header %q", h.Get(HeaderKey))
	}
	if h.Get(HeaderTimestamp) != "1700000000123" {
		t.Fatalf("unexpected timestamp %q", h.Get(HeaderTimestamp))
	}
	verify(t, "1700000000123GET/trade-api/v2/markets", h.Get(HeaderSignature))
}

func TestSignerApplyUsesRequestPath(t *testing.T) {
	signer, err := NewSigner("key-123", pkcs1PEM(t))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	signer.now = func() time.Time { return time.UnixMilli(42) }

	req, _ := http.NewRequest(http.MethodPost, "https://example.com/trade-api/v2/portfolio/orders", nil)
	if err := signer.Apply(req); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	verify(t, "42POST/trade-api/v2/portfolio/orders", req.Header.Get(HeaderSignature))
}

func TestNewSignerRequiresKeyID(t *testing.T) {
	if _, err := NewSigner(" ", pkcs8PEM(t)); !errors.Is(err, models.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	if err := BearerToken("tok").Apply(req); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if req.Header.Get("Authorization") != "Bearer tok" {
		t.Fatalf("unexpected header %q", req.Header.Get("Authorization"))
	}
	if err := BearerToken("").Apply(req); !errors.Is(err, models.ErrAuth) {
		t.Fatalf("expected ErrAuth for empty token, got %v", err)
	}
}
