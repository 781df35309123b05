package vstorage

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("Secret data for vstorage testing!")
	ciphertext, nonce, salt, err := encryptPayload(plaintext, "hunter2")
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext must not equal plaintext")
	}
	got, err := decryptPayload(ciphertext, "hunter2", nonce, salt)
	if err != nil {
		t.Fatalf("decryptPayload: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("decryptPayload(encryptPayload(p)) != p")
	}
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	plaintext := []byte("Secret data")
	ciphertext, nonce, salt, err := encryptPayload(plaintext, "correct")
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}
	if _, err := decryptPayload(ciphertext, "wrong", nonce, salt); err == nil {
		t.Fatal("expected decryption failure with wrong password")
	}
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	plaintext := []byte("Secret data")
	ciphertext, nonce, salt, err := encryptPayload(plaintext, "correct")
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}
	ciphertext[0] ^= 0xff
	if _, err := decryptPayload(ciphertext, "correct", nonce, salt); err == nil {
		t.Fatal("expected decryption failure for tampered ciphertext")
	}
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	var salt [16]byte
	for i := range salt {
		salt[i] = 42
	}
	k1 := deriveKey("password", salt)
	k2 := deriveKey("password", salt)
	if !bytes.Equal(k1, k2) {
		t.Fatal("deriveKey must be deterministic for the same password and salt")
	}
}

func TestIsZeroSentinel(t *testing.T) {
	var nonce [12]byte
	var salt [16]byte
	if !isZeroSentinel(nonce, salt) {
		t.Error("all-zero nonce/salt must be recognized as the no-encryption sentinel")
	}
	nonce[0] = 1
	if isZeroSentinel(nonce, salt) {
		t.Error("non-zero nonce must not be recognized as the sentinel")
	}
}
