package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		Secret:    []byte("test-secret-key"),
		AccessTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.IssueAccess(42, "alice", true)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	claims, err := m.Decode(tok)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if claims.TokenType != TypeAccess {
		t.Fatalf("type = %q, want access", claims.TokenType)
	}
	if claims.Username != "alice" || !claims.Admin {
		t.Fatalf("claims = %+v, want username alice admin true", claims)
	}
	sub, err := claims.SubjectID()
	if err != nil {
		t.Fatalf("SubjectID failed: %v", err)
	}
	if sub != 42 {
		t.Fatalf("subject = %d, want 42", sub)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Fatal("exp must be after iat")
	}
}

func TestRefreshTokenClaims(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.IssueRefresh(7)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	claims, err := m.Decode(tok)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if claims.TokenType != TypeRefresh {
		t.Fatalf("type = %q, want refresh", claims.TokenType)
	}
	if claims.Username != "" || claims.Admin {
		t.Fatalf("refresh token must not carry identity claims, got %+v", claims)
	}

	// Refresh payload carries only sub/type/iat/exp.
	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(tok, ".")[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	for _, k := range []string{"username", "is_admin"} {
		if _, ok := raw[k]; ok {
			t.Fatalf("refresh payload must not contain %q: %v", k, raw)
		}
	}
}

func TestWireHeaderShape(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.IssueAccess(1, "bob", false)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	header, err := base64.RawURLEncoding.DecodeString(strings.Split(tok, ".")[0])
	if err != nil {
		t.Fatalf("header segment must be unpadded base64url: %v", err)
	}
	if string(header) != `{"alg":"HS256","typ":"JWT"}` {
		t.Fatalf("header = %s", header)
	}
}

func TestTamperedSignatureRejected(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.IssueAccess(1, "bob", false)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	// Flip the last signature character to a different base64url character.
	last := tok[len(tok)-1]
	flip := byte('A')
	if last == 'A' {
		flip = 'B'
	}
	tampered := tok[:len(tok)-1] + string(flip)

	if _, err := m.Decode(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Decode tampered = %v, want ErrInvalidSignature", err)
	}
	if m.Verify(tampered) {
		t.Fatal("Verify must reject a tampered token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := newTestManager(t)

	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	tok, err := m.IssueAccess(1, "bob", false)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.Decode(tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Decode expired = %v, want ErrTokenExpired", err)
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	m := newTestManager(t)

	for _, input := range []string{"", "abc", "a.b", "a.b.c.d"} {
		if _, err := m.Decode(input); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("Decode(%q) = %v, want ErrMalformedToken", input, err)
		}
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{Secret: []byte("other-secret")})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	tok, err := m.IssueAccess(1, "bob", false)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, err := other.Decode(tok); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Decode with wrong secret = %v, want ErrInvalidSignature", err)
	}
}

func TestCodecSignVerify(t *testing.T) {
	c, err := NewCodec([]byte("secret"))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	sig, err := c.Sign("header.payload")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := c.Verify("header.payload", sig); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if err := c.Verify("header.tampered", sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Verify tampered input = %v, want ErrInvalidSignature", err)
	}
	if err := c.Verify("header.payload", "!!not-base64!!"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Verify bad encoding = %v, want ErrInvalidSignature", err)
	}
}
