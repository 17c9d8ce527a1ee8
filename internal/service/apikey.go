package service

import (
	"golang.org/x/crypto/bcrypt"
)

// KeyVerifier checks presented API keys against configured bcrypt hashes.
// Two keys exist: the operator key for admin endpoints and the callback
// key the engine presents when posting progress.
type KeyVerifier struct {
	adminHash    string
	callbackHash string
}

// NewKeyVerifier creates a verifier from configured hashes. Either hash
// may be empty, in which case the corresponding surface is disabled.
func NewKeyVerifier(adminHash, callbackHash string) *KeyVerifier {
	return &KeyVerifier{
		adminHash:    adminHash,
		callbackHash: callbackHash,
	}
}

// VerifyAdmin checks a presented key against the admin key hash.
func (v *KeyVerifier) VerifyAdmin(key string) error {
	return verifyKey(v.adminHash, key)
}

// VerifyCallback checks a presented key against the engine callback key hash.
func (v *KeyVerifier) VerifyCallback(key string) error {
	return verifyKey(v.callbackHash, key)
}

func verifyKey(hash, key string) error {
	if hash == "" {
		return ErrAPIKeyNotConfigured
	}
	if key == "" {
		return ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ErrInvalidAPIKey
	}
	return nil
}

// HashKey produces a bcrypt hash for an API key. Used by tooling to
// generate values for ADMIN_API_KEY_HASH and ENGINE_CALLBACK_KEY_HASH.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
