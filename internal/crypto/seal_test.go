package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plain := []byte(`{"jwt_token":"abc","admin_role":"admin"}`)

	sealed, err := Seal(plain, "hunter2")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("abc")) {
		t.Fatalf("sealed envelope leaks plaintext")
	}

	got, err := Open(sealed, "hunter2")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("got %s, want %s", got, plain)
	}

	if _, err := Open(sealed, "wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestSealRequiresPassphrase(t *testing.T) {
	if _, err := Seal([]byte("x"), ""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
	if _, err := Open([]byte("{}"), ""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}

func TestConsoleKey(t *testing.T) {
	secret := []byte("s3cret")

	a := ConsoleKey(secret, "token-a")
	if a == "" {
		t.Fatal("expected non-empty key")
	}
	if a != ConsoleKey(secret, "token-a") {
		t.Fatal("key is not deterministic")
	}
	if a == ConsoleKey(secret, "token-b") {
		t.Fatal("different tokens produced the same key")
	}
	if a == ConsoleKey([]byte("other"), "token-a") {
		t.Fatal("different secrets produced the same key")
	}
	if ConsoleKey(secret, "") != "" {
		t.Fatal("empty token must produce empty key")
	}

	if !Equal(a, a) || Equal(a, "x") || Equal("", "") {
		t.Fatal("Equal mismatch")
	}
}
