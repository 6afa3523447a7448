package jwt

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewClaimsDropsReservedPayloadFields(t *testing.T) {
	exp := time.Unix(1_700_000_000, 0)
	c := NewClaims(map[string]any{
		"issuer":     "attacker",
		"exp":        1,
		"token_type": 7,
		"jti":        "forged",
		"userID":     34,
	}, TokenAccess, exp, "real-id")

	if c.Issuer != Issuer || c.ExpiresAt != exp.Unix() || c.TokenType != TokenAccess || c.ID != "real-id" {
		t.Fatalf("reserved claims not taken from arguments: %+v", c)
	}
	if len(c.Extra) != 1 || c.Extra["userID"] != 34 {
		t.Fatalf("expected only userID in Extra, got %#v", c.Extra)
	}
}

func TestClaimsMarshalReservedWins(t *testing.T) {
	c := Claims{
		Issuer:    Issuer,
		ExpiresAt: 42,
		TokenType: TokenRefresh,
		Extra:     map[string]any{"exp": 1, "issuer": "x", "jti": "ghost", "name": "n"},
	}
	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["exp"] != float64(42) || body["issuer"] != Issuer || body["token_type"] != float64(1) {
		t.Fatalf("reserved claims overwritten by payload: %s", raw)
	}
	if _, ok := body["jti"]; ok {
		t.Fatalf("empty ID must not emit jti: %s", raw)
	}
	if body["name"] != "n" {
		t.Fatalf("expected payload field preserved: %s", raw)
	}
}

func TestClaimsUnmarshal(t *testing.T) {
	var c Claims
	if err := json.Unmarshal([]byte(`{"issuer":"urn:auth","exp":99,"token_type":0,"jti":"abc","role":"admin"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Issuer != Issuer || c.ExpiresAt != 99 || c.TokenType != TokenAccess || c.ID != "abc" {
		t.Fatalf("unexpected reserved claims: %+v", c)
	}
	if c.Extra["role"] != "admin" || len(c.Extra) != 1 {
		t.Fatalf("unexpected Extra: %#v", c.Extra)
	}
}

func TestClaimsUnmarshalTokenType(t *testing.T) {
	cases := map[string]TokenType{
		`{"exp":1}`:                 TokenUnknown,
		`{"exp":1,"token_type":1}`:  TokenRefresh,
		`{"exp":1,"token_type":5}`:  TokenUnknown,
		`{"exp":1,"token_type":-1}`: TokenUnknown,
	}
	for input, want := range cases {
		var c Claims
		if err := json.Unmarshal([]byte(input), &c); err != nil {
			t.Fatalf("unmarshal %s: %v", input, err)
		}
		if c.TokenType != want {
			t.Fatalf("%s: expected %v, got %v", input, want, c.TokenType)
		}
	}
}

func TestClaimsUnmarshalRejectsBadReservedTypes(t *testing.T) {
	for _, input := range []string{
		`{"exp":"soon"}`,
		`{"exp":1.5}`,
		`{"token_type":"access"}`,
		`{"issuer":1}`,
		`{"jti":true}`,
		`[]`,
	} {
		var c Claims
		if err := json.Unmarshal([]byte(input), &c); err == nil {
			t.Fatalf("expected error for %s", input)
		}
	}
}

func TestClaimsAccessors(t *testing.T) {
	c := NewClaims(map[string]any{"k": "v"}, TokenRefresh, time.Unix(500, 0), "")

	payload := c.Payload()
	payload["k"] = "mutated"
	if c.Extra["k"] != "v" {
		t.Fatal("Payload must return a copy")
	}
	if v, ok := c.Get(ClaimTokenType); !ok || v != TokenRefresh {
		t.Fatalf("Get(token_type) = %v, %v", v, ok)
	}
	if _, ok := c.Get(ClaimID); ok {
		t.Fatal("expected jti absent when ID is empty")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected missing claim to be absent")
	}
	if !c.Expiry().Equal(time.Unix(500, 0)) {
		t.Fatalf("unexpected expiry %v", c.Expiry())
	}
	if exp, _ := (&Claims{}).GetExpirationTime(); exp != nil {
		t.Fatal("zero ExpiresAt must report no expiration")
	}
}

func TestTokenTypeString(t *testing.T) {
	if TokenAccess.String() != "access" || TokenRefresh.String() != "refresh" || TokenUnknown.String() != "unknown" {
		t.Fatal("unexpected TokenType names")
	}
	if TokenUnknown.Valid() || !TokenAccess.Valid() || !TokenRefresh.Valid() {
		t.Fatal("unexpected TokenType validity")
	}
}
