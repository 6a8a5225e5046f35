package core

import (
	"strings"
	"testing"
)

func TestEncryptDecryptSecret(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "short", text: "pwd"},
		{name: "block sized", text: strings.Repeat("a", 16)},
		{name: "long", text: "s0me-L0ng_P@ssw0rd!with spaces and émojis 🚀"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncryptSecret(tt.text)
			if err != nil {
				t.Fatalf("EncryptSecret() error = %v", err)
			}
			if enc == tt.text {
				t.Error("EncryptSecret() did not transform input")
			}
			if !strings.Contains(enc, ":") {
				t.Errorf("EncryptSecret() = %q; want \"<iv>:<ciphertext>\" format", enc)
			}

			dec, err := DecryptSecret(enc)
			if err != nil {
				t.Fatalf("DecryptSecret() error = %v", err)
			}
			if dec != tt.text {
				t.Errorf("DecryptSecret() = %q; want %q", dec, tt.text)
			}
		})
	}
}

func TestEncryptSecret_randomIV(t *testing.T) {
	enc1, err := EncryptSecret("same input")
	if err != nil {
		t.Fatal(err)
	}
	enc2, err := EncryptSecret("same input")
	if err != nil {
		t.Fatal(err)
	}
	if enc1 == enc2 {
		t.Error("two encryptions of the same input must differ")
	}
}

func TestDecryptSecret_malformed(t *testing.T) {
	tests := []struct {
		name      string
		encrypted string
	}{
		{name: "empty", encrypted: ""},
		{name: "no separator", encrypted: "deadbeef"},
		{name: "bad iv hex", encrypted: "zzzz:deadbeef"},
		{name: "short iv", encrypted: "dead:deadbeefdeadbeefdeadbeefdeadbeef"},
		{name: "empty ciphertext", encrypted: "00000000000000000000000000000000:"},
		{name: "partial block", encrypted: "00000000000000000000000000000000:dead"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptSecret(tt.encrypted); err != ErrMalformedSecret {
				t.Errorf("DecryptSecret() error = %v; want ErrMalformedSecret", err)
			}
		})
	}
}
