package apple

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMatchAudience(t *testing.T) {
	allowed := []string{"app.hakmun.ios", "app.hakmun.web"}

	if got, ok := matchAudience("app.hakmun.ios", allowed); !ok || got != "app.hakmun.ios" {
		t.Fatalf("string audience: got %q ok=%v", got, ok)
	}
	if _, ok := matchAudience("app.other", allowed); ok {
		t.Fatalf("unknown audience matched")
	}
	if got, ok := matchAudience([]any{"app.other", "app.hakmun.web"}, allowed); !ok || got != "app.hakmun.web" {
		t.Fatalf("slice audience: got %q ok=%v", got, ok)
	}
	if _, ok := matchAudience([]any{42}, allowed); ok {
		t.Fatalf("non-string slice element matched")
	}
	if _, ok := matchAudience(nil, allowed); ok {
		t.Fatalf("nil audience matched")
	}
}

func TestValidateTimeClaims(t *testing.T) {
	now := time.Now().UTC()

	if err := validateTimeClaims(jwt.MapClaims{}, now); err == nil {
		t.Fatalf("missing exp accepted")
	}
	if err := validateTimeClaims(jwt.MapClaims{"exp": float64(now.Add(-time.Minute).Unix())}, now); err == nil {
		t.Fatalf("expired token accepted")
	}
	claims := jwt.MapClaims{
		"exp": float64(now.Add(time.Hour).Unix()),
		"iat": float64(now.Add(-time.Minute).Unix()),
	}
	if err := validateTimeClaims(claims, now); err != nil {
		t.Fatalf("valid claims rejected: %v", err)
	}
	claims["iat"] = float64(now.Add(10 * time.Minute).Unix())
	if err := validateTimeClaims(claims, now); err == nil {
		t.Fatalf("future iat accepted")
	}
	claims["iat"] = "not-a-number"
	if err := validateTimeClaims(claims, now); err == nil {
		t.Fatalf("garbage iat accepted")
	}
}

func TestParseNumericTime(t *testing.T) {
	want := time.Unix(1700000000, 0).UTC()

	for _, v := range []any{
		float64(1700000000),
		int64(1700000000),
		int(1700000000),
		json.Number("1700000000"),
		"1700000000",
	} {
		got, err := parseNumericTime(v)
		if err != nil {
			t.Fatalf("parseNumericTime(%T): %v", v, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parseNumericTime(%T) = %v, want %v", v, got, want)
		}
	}

	if _, err := parseNumericTime("later"); err == nil {
		t.Fatalf("non-numeric string accepted")
	}
	if _, err := parseNumericTime(float64(0)); err == nil {
		t.Fatalf("zero accepted")
	}
	if _, err := parseNumericTime([]string{"x"}); err == nil {
		t.Fatalf("unexpected type accepted")
	}
}

func TestParseBool(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"false", false},
		{float64(1), true},
		{float64(0), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := parseBool(c.in); got != c.want {
			t.Fatalf("parseBool(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseJWK_RSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	k := jwk{
		Kty: "RSA",
		N:   base64.RawURLEncoding.EncodeToString(priv.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
	}
	got, err := parseJWK(k)
	if err != nil {
		t.Fatalf("parseJWK: %v", err)
	}
	pub, ok := got.(*rsa.PublicKey)
	if !ok {
		t.Fatalf("parseJWK returned %T, want *rsa.PublicKey", got)
	}
	if pub.N.Cmp(priv.PublicKey.N) != 0 || pub.E != priv.PublicKey.E {
		t.Fatalf("round-tripped key does not match original")
	}
}

func TestParseJWK_Rejections(t *testing.T) {
	if _, err := parseJWK(jwk{Kty: "oct"}); err == nil {
		t.Fatalf("unsupported kty accepted")
	}
	if _, err := parseJWK(jwk{Kty: "EC", Crv: "P-384"}); err == nil {
		t.Fatalf("unsupported curve accepted")
	}
	if _, err := parseJWK(jwk{Kty: "RSA", N: "!!not-base64!!", E: "AQAB"}); err == nil {
		t.Fatalf("bad modulus accepted")
	}
}
