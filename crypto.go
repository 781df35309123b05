package vstorage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"golang.org/x/crypto/argon2"
)

// Argon2id tuning. These match the library defaults used elsewhere in the
// ecosystem for interactive key derivation: one pass is acceptable because
// the time budget is this pipeline's own, not a shared login path.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLen       = 32
)

// zeroNonce and zeroSalt form the sentinel (nonce, salt) pair that marks a frame as
// unencrypted: both are all-zero, which Argon2id/AES-GCM would otherwise
// never produce from a random fill.
var (
	zeroNonce [12]byte
	zeroSalt  [16]byte
)

func isZeroSentinel(nonce [12]byte, salt [16]byte) bool {
	return nonce == zeroNonce && salt == zeroSalt
}

// deriveKey derives a 256-bit AES key from password and salt via Argon2id.
func deriveKey(password string, salt [16]byte) []byte {
	return argon2.IDKey([]byte(password), salt[:], argonTime, argonMemory, argonThreads, keyLen)
}

// encryptPayload seals data with AES-256-GCM under a freshly generated
// random nonce and salt, returning the ciphertext and the two wire fields
// frame headers carry alongside it.
func encryptPayload(data []byte, password string) (ciphertext []byte, nonce [12]byte, salt [16]byte, err error) {
	if _, err = rand.Read(nonce[:]); err != nil {
		return nil, nonce, salt, wrapErr(KindCrypto, err, "generate nonce")
	}
	if _, err = rand.Read(salt[:]); err != nil {
		return nil, nonce, salt, wrapErr(KindCrypto, err, "generate salt")
	}

	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nonce, salt, wrapErr(KindCrypto, err, "create AES cipher")
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(nonce))
	if err != nil {
		return nil, nonce, salt, wrapErr(KindCrypto, err, "create GCM mode")
	}
	ciphertext = gcm.Seal(nil, nonce[:], data, nil)
	return ciphertext, nonce, salt, nil
}

// decryptPayload opens ciphertext sealed by encryptPayload. A wrong password
// or corrupted ciphertext surfaces as a KindCrypto error from the GCM tag
// check, never a silent garbage result.
func decryptPayload(ciphertext []byte, password string, nonce [12]byte, salt [16]byte) ([]byte, error) {
	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapErr(KindCrypto, err, "create AES cipher")
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(nonce))
	if err != nil {
		return nil, wrapErr(KindCrypto, err, "create GCM mode")
	}
	plaintext, err := gcm.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, wrapErr(KindCrypto, err, "authentication failed")
	}
	return plaintext, nil
}
