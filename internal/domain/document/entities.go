package document

import (
	"bytes"
	"context"
	"errors"
)

var (
	ErrUnsupportedFileType = errors.New("invalid file type, allowed types: .pdf, .docx, .xlsx")
	ErrFileTooLarge        = errors.New("file size exceeds limit")
	ErrNotFound            = errors.New("document not found")
	ErrDecryption          = errors.New("document could not be decrypted")
	ErrStorage             = errors.New("document storage failure")
)

// Ref is what a claim keeps about its supporting document.
type Ref struct {
	StoredName       string `json:"-"`
	OriginalFileName string `json:"original_file_name"`
}

// Payload is a fully decrypted document. Reader starts at offset zero.
type Payload struct {
	Data   []byte
	Reader *bytes.Reader
}

func NewPayload(b []byte) *Payload { return &Payload{Data: b, Reader: bytes.NewReader(b)} }

// File is a payload ready to hand to a client.
type File struct {
	*Payload
	ContentType string
	FileName    string
}

// BlobStore holds ciphertext blobs by stored name.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	// Get returns ErrNotFound when no blob exists under name.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete returns ErrNotFound when no blob exists under name.
	Delete(ctx context.Context, name string) error
}

// Cipher turns plaintext into the at-rest form and back.
type Cipher interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}
