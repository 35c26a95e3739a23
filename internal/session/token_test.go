package session

import (
	"encoding/base64"
	"strconv"
	"testing"
	"time"
)

func unsignedToken(header, claims string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(claims)) + "."
}

func TestDecode_IgnoresHeader(t *testing.T) {
	exp := epoch.Add(time.Hour).Unix()
	claims := `{"sub":"ada","exp":` + strconv.FormatInt(exp, 10) + `}`

	tests := []struct {
		name   string
		header string
	}{
		{"no alg", `{"typ":"JWT"}`},
		{"unregistered alg", `{"alg":"ES256K","typ":"JWT"}`},
		{"garbage header", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(unsignedToken(tt.header, claims))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.DisplayName() != "ada" {
				t.Fatalf("expected ada, got %q", p.DisplayName())
			}
			if p.ExpiresAt == nil || p.ExpiresAt.Unix() != exp {
				t.Fatalf("unexpected expiry %v", p.ExpiresAt)
			}
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, raw := range []string{"", "single-part", "a.%%%.c", unsignedToken(`{}`, `[1,2]`), unsignedToken(`{}`, `{"exp":"soon"}`)} {
		if _, err := Decode(raw); err == nil {
			t.Errorf("Decode(%q): expected an error", raw)
		}
	}
}

func TestLogin_AcceptsTokenWithoutAlg(t *testing.T) {
	m := newTestManager(&MemoryStorage{}, newFakeClock())
	token := unsignedToken(`{"typ":"JWT"}`, `{"username":"grace","exp":`+strconv.FormatInt(epoch.Add(time.Hour).Unix(), 10)+`}`)

	if err := m.Login(token); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if m.Username() != "grace" {
		t.Fatalf("expected grace, got %q", m.Username())
	}
}
