// Package crypto holds the ciphers used for supporting documents at rest.
package crypto

import (
	"context"
	"crypto/sha1"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	KeySize = 32
	// Matches the PBKDF2 defaults the legacy blobs were written with.
	KeyIterations = 1000
)

var ErrNoKey = errors.New("crypto: no key material")

// KeyProvider supplies the document key. Implementations may fetch it from a
// secret store; the ciphers ask for it on every call.
type KeyProvider interface {
	Key(ctx context.Context) ([]byte, error)
}

// PassphraseKeys stretches a passphrase into a 256-bit key once, at construction.
type PassphraseKeys struct{ key []byte }

func NewPassphraseKeys(passphrase, salt string) (*PassphraseKeys, error) {
	if passphrase == "" {
		return nil, ErrNoKey
	}
	return &PassphraseKeys{key: DeriveKey(passphrase, salt)}, nil
}

func (p *PassphraseKeys) Key(context.Context) ([]byte, error) { return p.key, nil }

// DeriveKey is PBKDF2-HMAC-SHA1 with KeyIterations rounds.
func DeriveKey(passphrase, salt string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(salt), KeyIterations, KeySize, sha1.New)
}

// StaticKey is a raw key, mostly for tests.
type StaticKey []byte

func (k StaticKey) Key(context.Context) ([]byte, error) {
	if len(k) != KeySize {
		return nil, ErrNoKey
	}
	return k, nil
}
