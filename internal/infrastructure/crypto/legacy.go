package crypto

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

var errBadPadding = errors.New("crypto: invalid padding")

// Legacy reproduces the first-generation at-rest format: AES-256-CBC, all-zero IV,
// PKCS#7 padding, no authentication. Identical plaintexts give identical
// ciphertexts. Only use it to read old blobs, or when bit-exact output is
// required.
type Legacy struct{ keys KeyProvider }

func NewLegacy(keys KeyProvider) *Legacy { return &Legacy{keys: keys} }

func (l *Legacy) block(ctx context.Context) (cipher.Block, error) {
	key, err := l.keys.Key(ctx)
	if err != nil {
		return nil, err
	}
	return aes.NewCipher(key)
}

func (l *Legacy) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	b, err := l.block(ctx)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(b, make([]byte, aes.BlockSize)).CryptBlocks(out, padded)
	return out, nil
}

func (l *Legacy) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errShortCiphertext
	}
	b, err := l.block(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(b, make([]byte, aes.BlockSize)).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, errBadPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errBadPadding
		}
	}
	return b[:len(b)-n], nil
}
