package jwtauth

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestCreateVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	payload := map[string]any{"userID": 34, "name": "ada", "roles": []any{"a", "b"}}

	for _, typ := range []TokenType{TokenAccess, TokenRefresh} {
		token, err := svc.CreateToken(ctx, payload, typ)
		if err != nil {
			t.Fatalf("create %v: %v", typ, err)
		}
		claims, err := svc.VerifyToken(ctx, token)
		if err != nil {
			t.Fatalf("verify %v: %v", typ, err)
		}
		if claims.TokenType != typ {
			t.Fatalf("expected token_type %v, got %v", typ, claims.TokenType)
		}
		if claims.Issuer != "urn:auth" {
			t.Fatalf("expected issuer urn:auth, got %q", claims.Issuer)
		}
		if claims.Extra["userID"] != float64(34) || claims.Extra["name"] != "ada" {
			t.Fatalf("payload fields lost: %#v", claims.Extra)
		}
		roles, _ := claims.Extra["roles"].([]any)
		if len(roles) != 2 {
			t.Fatalf("expected roles preserved, got %#v", claims.Extra["roles"])
		}
		if claims.ID == "" {
			t.Fatal("expected jti on every token")
		}
	}
}

func TestCreateTokenExpiry(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	issuedAt := time.Now()
	access, err := svc.CreateAccessToken(ctx, nil)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	refresh, err := svc.CreateRefreshToken(ctx, nil)
	if err != nil {
		t.Fatalf("create refresh: %v", err)
	}

	cases := []struct {
		token    string
		lifetime time.Duration
	}{
		{access, DefaultTokenExpiration * time.Second},
		{refresh, DefaultRefreshTokenExpiration * time.Second},
	}
	for _, tc := range cases {
		claims, err := svc.VerifyToken(ctx, tc.token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		want := issuedAt.Add(tc.lifetime).Unix()
		if diff := math.Abs(float64(claims.ExpiresAt - want)); diff > 2 {
			t.Fatalf("exp %d too far from %d", claims.ExpiresAt, want)
		}
	}
}

func TestCreateTokenUsesClockExactly(t *testing.T) {
	clock := newTestClock(time.Unix(1_700_000_000, 0))
	svc := newTestService(t, func(b *Builder) {
		b.WithClock(clock.Now).WithOptions(Options{TokenExpirationInSeconds: 60, RefreshTokenExpirationInSeconds: 600})
	})

	token, err := svc.CreateRefreshToken(context.Background(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	claims, err := svc.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.ExpiresAt != 1_700_000_600 {
		t.Fatalf("expected exp 1700000600, got %d", claims.ExpiresAt)
	}
}

func TestCreateTokenOverwritesReservedClaims(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	token, err := svc.CreateAccessToken(ctx, map[string]any{
		"issuer":     "someone-else",
		"exp":        1,
		"token_type": 1,
		"keep":       true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	claims, err := svc.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Issuer != "urn:auth" || claims.TokenType != TokenAccess || claims.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("reserved claims not overwritten: %+v", claims)
	}
	if claims.Extra["keep"] != true {
		t.Fatalf("expected non-reserved field kept: %#v", claims.Extra)
	}
}

func TestCreateTokenDoesNotMutatePayload(t *testing.T) {
	svc := newTestService(t, nil)
	payload := map[string]any{"exp": 1, "sub": "x"}

	if _, err := svc.CreateAccessToken(context.Background(), payload); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(payload) != 2 || payload["exp"] != 1 {
		t.Fatalf("caller payload mutated: %#v", payload)
	}
}

func TestTokensForSamePayloadAreDistinct(t *testing.T) {
	clock := newTestClock(time.Unix(1_700_000_000, 0))
	svc := newTestService(t, func(b *Builder) { b.WithClock(clock.Now) })
	ctx := context.Background()

	a, err := svc.CreateRefreshToken(ctx, map[string]any{"userID": 1})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := svc.CreateRefreshToken(ctx, map[string]any{"userID": 1})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a == b || svc.GetTokenHash(a) == svc.GetTokenHash(b) {
		t.Fatal("tokens issued in the same second must differ")
	}
}

func TestCreateTokenErrors(t *testing.T) {
	ctx := context.Background()
	_, pub := testKeyPair(t)

	noKeys, err := New().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := noKeys.CreateAccessToken(ctx, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := noKeys.VerifyToken(ctx, "a.b.c"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured on verify, got %v", err)
	}

	badKey, err := New().WithKeyPair([]byte("not a key"), pub).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := badKey.CreateAccessToken(ctx, nil); !errors.Is(err, ErrSigning) {
		t.Fatalf("expected ErrSigning, got %v", err)
	}

	svc := newTestService(t, nil)
	if _, err := svc.CreateToken(ctx, nil, TokenType(7)); !errors.Is(err, ErrInvalidTokenType) {
		t.Fatalf("expected ErrInvalidTokenType, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := svc.CreateAccessToken(cancelled, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestVerifyTokenTamperedSignature(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	token, err := svc.CreateAccessToken(ctx, map[string]any{"userID": 34})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sigStart := strings.LastIndex(token, ".") + 1
	for _, idx := range []int{sigStart, sigStart + 1, (sigStart + len(token)) / 2, len(token) - 2, len(token) - 1} {
		replacement := byte('x')
		if token[idx] == 'x' {
			replacement = 'y'
		}
		tampered := token[:idx] + string(replacement) + token[idx+1:]

		_, err := svc.VerifyToken(ctx, tampered)
		if reason, ok := ReasonOf(err); !ok || reason != ReasonSignatureInvalid {
			t.Fatalf("index %d: expected signature-invalid, got %v", idx, err)
		}
	}

	_, err = svc.VerifyToken(ctx, flipTrailingBit(token))
	if reason, ok := ReasonOf(err); !ok || reason != ReasonSignatureInvalid {
		t.Fatalf("trailing bit: expected signature-invalid, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	clock := newTestClock(time.Now())
	svc := newTestService(t, func(b *Builder) {
		b.WithClock(clock.Now).WithOptions(Options{TokenExpirationInSeconds: 1, RefreshTokenExpirationInSeconds: 10})
	})
	ctx := context.Background()

	token, err := svc.CreateAccessToken(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.VerifyToken(ctx, token); err != nil {
		t.Fatalf("fresh token must verify: %v", err)
	}

	clock.Advance(2 * time.Second)
	_, err = svc.VerifyToken(ctx, token)
	if !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
	var ve *VerificationError
	if !errors.As(err, &ve) || ve.Reason != ReasonExpired {
		t.Fatalf("expected expired reason, got %v", err)
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.VerifyToken(context.Background(), "definitely not a token")
	if reason, ok := ReasonOf(err); !ok || reason != ReasonMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestGetTokenHash(t *testing.T) {
	svc := newTestService(t, nil)

	h1 := svc.GetTokenHash("token-a")
	if h1 != svc.GetTokenHash("token-a") {
		t.Fatal("hash must be deterministic")
	}
	if len(h1) != 40 || strings.Trim(h1, "0123456789abcdef") != "" {
		t.Fatalf("expected 40 lowercase hex chars, got %q", h1)
	}
	if h1 == svc.GetTokenHash("token-b") {
		t.Fatal("distinct tokens must hash differently")
	}
}

func TestInitMergesOptions(t *testing.T) {
	svc := newTestService(t, nil)

	got := svc.Options()
	if got.TokenExpirationInSeconds != 3600 || got.RefreshTokenExpirationInSeconds != 2592000 {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	svc.Init(Options{TokenExpirationInSeconds: 120})
	got = svc.Options()
	if got.TokenExpirationInSeconds != 120 || got.RefreshTokenExpirationInSeconds != 2592000 {
		t.Fatalf("expected merge of access lifetime only, got %+v", got)
	}

	svc.Init(Options{RefreshTokenExpirationInSeconds: 900, TokenExpirationInSeconds: -5})
	got = svc.Options()
	if got.TokenExpirationInSeconds != 120 || got.RefreshTokenExpirationInSeconds != 900 {
		t.Fatalf("expected non-positive fields ignored, got %+v", got)
	}

	token, err := svc.CreateAccessToken(context.Background(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	claims, err := svc.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if d := claims.ExpiresAt - time.Now().Unix(); d < 118 || d > 121 {
		t.Fatalf("expected ~120s lifetime after Init, got %ds", d)
	}
}

func TestKeyAccessorsReturnCopies(t *testing.T) {
	priv, pub := testKeyPair(t)
	svc := newTestService(t, nil)

	got := svc.PrivateKey()
	if string(got) != string(priv) {
		t.Fatal("private key mismatch")
	}
	got[0] ^= 0xff
	if string(svc.PrivateKey()) != string(priv) {
		t.Fatal("PrivateKey must return a copy")
	}
	if string(svc.PublicKey()) != string(pub) {
		t.Fatal("public key mismatch")
	}

	empty, err := New().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if empty.PrivateKey() != nil || empty.PublicKey() != nil {
		t.Fatal("expected nil keys before loading")
	}
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service
	ctx := context.Background()

	if _, err := svc.CreateAccessToken(ctx, nil); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("expected ErrServiceNotReady, got %v", err)
	}
	if _, err := svc.VerifyToken(ctx, "x"); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("expected ErrServiceNotReady, got %v", err)
	}
	if _, err := svc.ExecuteRefreshToken(ctx, "x"); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("expected ErrServiceNotReady, got %v", err)
	}
	if err := svc.LoadKeys("", ""); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("expected ErrServiceNotReady, got %v", err)
	}
	svc.Init(Options{TokenExpirationInSeconds: 1})
	svc.Close()
	if svc.AuditDropped() != 0 || len(svc.MetricsSnapshot().Counters) != 0 {
		t.Fatal("nil service must report empty diagnostics")
	}
}
