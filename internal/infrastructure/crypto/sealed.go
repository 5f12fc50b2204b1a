package crypto

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// sealedMagic prefixes every blob written by Sealed so readers can tell it
// apart from legacy CBC blobs.
var sealedMagic = []byte("CMCS1")

var errShortCiphertext = errors.New("crypto: ciphertext too short")

// Sealed is AES-256-GCM with a fresh random nonce per blob.
// Layout: magic || nonce || ciphertext+tag. The magic is bound as AAD.
type Sealed struct {
	keys KeyProvider
	rand io.Reader
}

func NewSealed(keys KeyProvider) *Sealed { return &Sealed{keys: keys, rand: rand.Reader} }

func IsSealed(b []byte) bool { return bytes.HasPrefix(b, sealedMagic) }

func (s *Sealed) aead(ctx context.Context) (cipher.AEAD, error) {
	key, err := s.keys.Key(ctx)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *Sealed) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	gcm, err := s.aead(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(sealedMagic)+gcm.NonceSize(), len(sealedMagic)+gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	copy(out, sealedMagic)
	nonce := out[len(sealedMagic):]
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return nil, fmt.Errorf("crypto: nonce: %w", err)
	}
	return gcm.Seal(out, nonce, plaintext, sealedMagic), nil
}

func (s *Sealed) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if !IsSealed(ciphertext) {
		return nil, errors.New("crypto: not a sealed blob")
	}
	gcm, err := s.aead(ctx)
	if err != nil {
		return nil, err
	}
	body := ciphertext[len(sealedMagic):]
	if len(body) < gcm.NonceSize()+gcm.Overhead() {
		return nil, errShortCiphertext
	}
	nonce, sealed := body[:gcm.NonceSize()], body[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, sealedMagic)
}
