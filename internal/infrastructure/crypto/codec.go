package crypto

import (
	"context"
	"errors"
	"fmt"

	"cmcs-backend/internal/domain/document"
)

var _ document.Cipher = (*Codec)(nil)

var errUnknownFormat = errors.New("crypto: unrecognised blob format")

// Codec writes blobs in one format and reads both. Decrypt failures always
// wrap document.ErrDecryption.
type Codec struct {
	sealed      *Sealed
	legacy      *Legacy
	legacyRead  bool
	legacyWrite bool
}

type Option func(*Codec)

// WithLegacyRead lets Decrypt fall back to the CBC format for blobs without
// the sealed prefix.
func WithLegacyRead(on bool) Option { return func(c *Codec) { c.legacyRead = on } }

// WithLegacyWrite makes Encrypt emit the CBC format.
func WithLegacyWrite(on bool) Option { return func(c *Codec) { c.legacyWrite = on } }

func NewCodec(keys KeyProvider, opts ...Option) *Codec {
	c := &Codec{sealed: NewSealed(keys), legacy: NewLegacy(keys), legacyRead: true}
	for _, o := range opts {
		o(c)
	}
	if c.legacyWrite {
		c.legacyRead = true
	}
	return c
}

func (c *Codec) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if c.legacyWrite {
		return c.legacy.Encrypt(ctx, plaintext)
	}
	return c.sealed.Encrypt(ctx, plaintext)
}

func (c *Codec) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	var (
		pt  []byte
		err error
	)
	switch {
	case IsSealed(ciphertext):
		pt, err = c.sealed.Decrypt(ctx, ciphertext)
	case c.legacyRead:
		pt, err = c.legacy.Decrypt(ctx, ciphertext)
	default:
		err = errUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrDecryption, err)
	}
	return pt, nil
}
