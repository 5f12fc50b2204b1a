package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"cmcs-backend/internal/domain/document"
)

// DefaultMaxBytes is the upload limit (5 MiB).
const DefaultMaxBytes int64 = 5 << 20

const (
	MIMEPDF         = "application/pdf"
	MIMEDocx        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXlsx        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEOctetStream = "application/octet-stream"
)

var contentTypes = map[string]string{
	".pdf":  MIMEPDF,
	".docx": MIMEDocx,
	".xlsx": MIMEXlsx,
}

type Usecase struct {
	blobs    document.BlobStore
	cipher   document.Cipher
	maxBytes int64
	log      *zap.Logger
	newName  func(ext string) string
}

func NewUsecase(blobs document.BlobStore, cipher document.Cipher, maxBytes int64, log *zap.Logger) *Usecase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{blobs: blobs, cipher: cipher, maxBytes: maxBytes, log: log, newName: storedName}
}

// storedName is independent of the client's file name: <uuid><ext>.enc
func storedName(ext string) string { return uuid.NewString() + ext + ".enc" }

func (u *Usecase) MaxBytes() int64 { return u.maxBytes }

func extension(name string) string { return strings.ToLower(filepath.Ext(name)) }

func AllowedExtension(name string) bool {
	_, ok := contentTypes[extension(name)]
	return ok
}

// ContentType is derived from the original file name only.
func ContentType(originalFileName string) string {
	if ct, ok := contentTypes[extension(originalFileName)]; ok {
		return ct
	}
	return MIMEOctetStream
}

// SanitizeFileName decomposes the name (NFKD) and keeps printable ASCII only,
// so it is safe in a Content-Disposition header. Empty results become "file".
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "file"
	}
	return out
}

// Store validates, encrypts and writes a document for claimID.
// Nothing is written when validation fails.
func (u *Usecase) Store(ctx context.Context, claimID string, data []byte, originalFileName string) (document.Ref, error) {
	if !AllowedExtension(originalFileName) {
		return document.Ref{}, document.ErrUnsupportedFileType
	}
	if int64(len(data)) > u.maxBytes {
		return document.Ref{}, fmt.Errorf("%w (%d MiB)", document.ErrFileTooLarge, u.maxBytes>>20)
	}

	sealed, err := u.cipher.Encrypt(ctx, data)
	if err != nil {
		u.log.Error("encrypt document", zap.String("claim_id", claimID), zap.Error(err))
		return document.Ref{}, fmt.Errorf("%w: %v", document.ErrStorage, err)
	}

	name := u.newName(extension(originalFileName))
	if err := u.blobs.Put(ctx, name, sealed); err != nil {
		u.log.Error("write document blob", zap.String("claim_id", claimID), zap.String("stored_name", name), zap.Error(err))
		return document.Ref{}, fmt.Errorf("%w: %v", document.ErrStorage, err)
	}

	u.log.Info("document stored",
		zap.String("claim_id", claimID),
		zap.String("stored_name", name),
		zap.Int("bytes", len(data)))
	return document.Ref{StoredName: name, OriginalFileName: originalFileName}, nil
}

// StoreReader reads at most the limit plus one byte, so oversize uploads are
// refused without buffering them whole.
func (u *Usecase) StoreReader(ctx context.Context, claimID string, r io.Reader, originalFileName string) (document.Ref, error) {
	if !AllowedExtension(originalFileName) {
		return document.Ref{}, document.ErrUnsupportedFileType
	}
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return document.Ref{}, fmt.Errorf("read upload: %w", err)
	}
	return u.Store(ctx, claimID, data, originalFileName)
}

// Fetch decrypts a stored blob fully into memory.
func (u *Usecase) Fetch(ctx context.Context, storedName string) (*document.Payload, error) {
	sealed, err := u.blobs.Get(ctx, storedName)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, document.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", document.ErrStorage, err)
	}

	plain, err := u.cipher.Decrypt(ctx, sealed)
	if err != nil {
		// the blob stays where it is for inspection
		u.log.Error("decrypt document", zap.String("stored_name", storedName), zap.Error(err))
		if errors.Is(err, document.ErrDecryption) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", document.ErrDecryption, err)
	}
	return document.NewPayload(plain), nil
}

// Open fetches ref and attaches what a client needs to serve it.
func (u *Usecase) Open(ctx context.Context, ref document.Ref) (*document.File, error) {
	p, err := u.Fetch(ctx, ref.StoredName)
	if err != nil {
		return nil, err
	}
	return &document.File{
		Payload:     p,
		ContentType: ContentType(ref.OriginalFileName),
		FileName:    SanitizeFileName(ref.OriginalFileName),
	}, nil
}

func (u *Usecase) Delete(ctx context.Context, storedName string) error {
	err := u.blobs.Delete(ctx, storedName)
	switch {
	case err == nil:
		u.log.Info("document deleted", zap.String("stored_name", storedName))
		return nil
	case errors.Is(err, document.ErrNotFound):
		return document.ErrNotFound
	default:
		return fmt.Errorf("%w: %v", document.ErrStorage, err)
	}
}
