package service

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// sessionKeyer derives the storage key for a session cookie with a keyed
// BLAKE2b-256 MAC, so storage never holds a usable cookie value.
type sessionKeyer struct {
	secret []byte
}

func newSessionKeyer(secret []byte) sessionKeyer {
	if len(secret) > blake2b.Size {
		sum := blake2b.Sum256(secret)
		secret = sum[:]
	}
	return sessionKeyer{secret: secret}
}

func (k sessionKeyer) key(sid string) string {
	h, err := blake2b.New256(k.secret)
	if err != nil {
		// unreachable: the secret is capped at blake2b.Size
		panic(err)
	}
	_, _ = h.Write([]byte(sid))
	return hex.EncodeToString(h.Sum(nil))
}
