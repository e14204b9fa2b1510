package otp

import (
	"strconv"
	"testing"
)

func TestGenerateCode_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 500; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestGenerateCode_NotConstant(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode error: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected varied codes across 50 draws")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := Encrypt("482913", "shared-secret")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	got, err := Decrypt(enc, "shared-secret")
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if got != "482913" {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestEncrypt_NonceVaries(t *testing.T) {
	t.Parallel()

	enc1, err := Encrypt("111111", "s")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	enc2, err := Encrypt("111111", "s")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if enc1 == enc2 {
		t.Fatal("expected different nonces to produce different ciphertexts")
	}
}

func TestDecrypt_Failures(t *testing.T) {
	t.Parallel()

	valid, err := Encrypt("123456", "right-secret")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	tests := []struct {
		name   string
		input  string
		secret string
	}{
		{"wrong secret", valid, "wrong-secret"},
		{"not base64", "!!!not-base64!!!", "right-secret"},
		{"truncated blob", "AAAA", "right-secret"},
		{"empty input", "", "right-secret"},
		{"empty secret", valid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decrypt(tt.input, tt.secret); err != ErrDecrypt {
				t.Fatalf("expected ErrDecrypt, got %v", err)
			}
		})
	}
}
