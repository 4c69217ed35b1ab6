package supabase

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

func newPKCEPair() (verifier, challenge string, err error) {
	buf := make([]byte, 56)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}
